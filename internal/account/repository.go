package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartwin-lab/smartwin/internal/membership"
)

// Repository persists member accounts. Create must reject duplicate phones
// with ErrPhoneTaken and duplicate invitation codes with ErrInvitationCodeTaken.
// Update leaves the password hash and identity fields untouched, so saving a
// session snapshot never wipes credentials.
type Repository interface {
	Create(ctx context.Context, acct membership.Account) error
	FindByID(ctx context.Context, id string) (membership.Account, error)
	FindByPhone(ctx context.Context, phone string) (membership.Account, error)
	FindByInvitationCode(ctx context.Context, code string) (membership.Account, error)
	Update(ctx context.Context, acct membership.Account) error
}

const (
	uniqueViolation          = "23505"
	phoneConstraint          = "accounts_phone_key"
	invitationCodeConstraint = "accounts_invitation_code_key"

	selectAccount = `SELECT id, phone, password_hash, display_alias, tier, expiry_date,
        invitation_code, referrer_phone, commission_balance, created_at FROM accounts`
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new account.
func (r *PostgresRepository) Create(ctx context.Context, acct membership.Account) error {
	id, err := uuid.Parse(acct.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (id, phone, password_hash, display_alias, tier, expiry_date,
        invitation_code, referrer_phone, commission_balance, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, acct.Phone, acct.PasswordHash, acct.DisplayAlias, acct.Tier.String(), acct.ExpiryDate,
		acct.InvitationCode, acct.ReferrerPhone, acct.CommissionBalance, acct.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case phoneConstraint:
			return ErrPhoneTaken
		case invitationCodeConstraint:
			return ErrInvitationCodeTaken
		}
	}
	return err
}

// FindByID fetches an account by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (membership.Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return membership.Account{}, ErrNotFound
	}
	return scanAccount(r.db.QueryRow(ctx, selectAccount+` WHERE id = $1`, accountID))
}

// FindByPhone fetches an account by phone number.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (membership.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, selectAccount+` WHERE phone = $1`, phone))
}

// FindByInvitationCode fetches the account owning an invitation code.
func (r *PostgresRepository) FindByInvitationCode(ctx context.Context, code string) (membership.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, selectAccount+` WHERE invitation_code = $1`, code))
}

// Update overwrites the mutable fields of an account: alias, tier, expiry and
// commission. Credentials and identity fields are never rewritten.
func (r *PostgresRepository) Update(ctx context.Context, acct membership.Account) error {
	id, err := uuid.Parse(acct.ID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET display_alias = $2, tier = $3, expiry_date = $4,
        commission_balance = $5 WHERE id = $1`,
		id, acct.DisplayAlias, acct.Tier.String(), acct.ExpiryDate, acct.CommissionBalance)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (membership.Account, error) {
	var (
		id        uuid.UUID
		tier      string
		expiry    *time.Time
		createdAt time.Time
		acct      membership.Account
	)
	err := row.Scan(&id, &acct.Phone, &acct.PasswordHash, &acct.DisplayAlias, &tier, &expiry,
		&acct.InvitationCode, &acct.ReferrerPhone, &acct.CommissionBalance, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return membership.Account{}, ErrNotFound
	}
	if err != nil {
		return membership.Account{}, err
	}
	parsed, err := membership.ParseTier(tier)
	if err != nil {
		return membership.Account{}, fmt.Errorf("account %s: %w", id, err)
	}
	acct.ID = id.String()
	acct.Tier = parsed
	if expiry != nil {
		utc := expiry.UTC()
		acct.ExpiryDate = &utc
	}
	acct.CreatedAt = createdAt.UTC()
	return acct, nil
}
