package hall

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartwin-lab/smartwin/internal/membership"
)

const (
	uniqueViolation = "23505"

	selectProposal = `SELECT id::text, COALESCE(author_id::text, ''), author, title, description, votes, submitted_at FROM proposals`
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed hall repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) SaveActivation(ctx context.Context, req membership.ActivationRequest) (string, error) {
	id := uuid.New()
	_, err := r.db.Exec(ctx, `INSERT INTO activation_requests (id, account_id, tier, platform, trading_account_id, requested_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		id, req.AccountID, req.Tier.String(), string(req.Platform), req.TradingAccountID, req.RequestedAt)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (r *PostgresRepository) SavePkSubmission(ctx context.Context, sub membership.PkSubmission) (string, error) {
	id := uuid.New()
	_, err := r.db.Exec(ctx, `INSERT INTO pk_submissions (id, account_id, alias, pk_code, submitted_at)
        VALUES ($1, $2, $3, $4, $5)`,
		id, sub.AccountID, sub.Alias, sub.PkCode, sub.SubmittedAt)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (r *PostgresRepository) CreateProposal(ctx context.Context, draft membership.ProposalDraft) (Proposal, error) {
	p := Proposal{
		ID:          uuid.NewString(),
		AuthorID:    draft.AuthorID,
		Author:      draft.Author,
		Title:       draft.Title,
		Description: draft.Description,
		SubmittedAt: draft.SubmittedAt,
	}
	_, err := r.db.Exec(ctx, `INSERT INTO proposals (id, author_id, author, title, description, votes, submitted_at)
        VALUES ($1, $2, $3, $4, $5, 0, $6)`,
		p.ID, p.AuthorID, p.Author, p.Title, p.Description, p.SubmittedAt)
	if err != nil {
		return Proposal{}, err
	}
	return p, nil
}

func (r *PostgresRepository) ListProposals(ctx context.Context) ([]Proposal, error) {
	rows, err := r.db.Query(ctx, selectProposal+` ORDER BY votes DESC, submitted_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CastVote records the ballot and bumps the tally in one transaction. The
// proposal_votes primary key rejects a second ballot from the same account.
func (r *PostgresRepository) CastVote(ctx context.Context, ballot membership.Ballot) (Proposal, error) {
	proposalID, err := uuid.Parse(ballot.ProposalID)
	if err != nil {
		return Proposal{}, ErrProposalNotFound
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Proposal{}, err
	}
	defer tx.Rollback(ctx)

	if _, err := scanProposal(tx.QueryRow(ctx, selectProposal+` WHERE id = $1 FOR UPDATE`, proposalID)); err != nil {
		return Proposal{}, err
	}

	_, err = tx.Exec(ctx, `INSERT INTO proposal_votes (proposal_id, account_id, cast_at) VALUES ($1, $2, $3)`,
		proposalID, ballot.AccountID, ballot.CastAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return Proposal{}, ErrAlreadyVoted
	}
	if err != nil {
		return Proposal{}, err
	}

	updated, err := scanProposal(tx.QueryRow(ctx,
		`UPDATE proposals SET votes = votes + 1 WHERE id = $1
        RETURNING id::text, COALESCE(author_id::text, ''), author, title, description, votes, submitted_at`, proposalID))
	if err != nil {
		return Proposal{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Proposal{}, err
	}
	return updated, nil
}

func scanProposal(row pgx.Row) (Proposal, error) {
	var p Proposal
	err := row.Scan(&p.ID, &p.AuthorID, &p.Author, &p.Title, &p.Description, &p.Votes, &p.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Proposal{}, ErrProposalNotFound
	}
	if err != nil {
		return Proposal{}, err
	}
	p.SubmittedAt = p.SubmittedAt.UTC()
	return p, nil
}
