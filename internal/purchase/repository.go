package purchase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartwin-lab/smartwin/internal/membership"
)

// OrderRepository persists purchase orders.
//
// Claim moves a pending order to settling, or takes over a settling order
// whose claim is older than staleBefore. It returns ErrOrderSettled or
// ErrSettlementInProgress, along with the stored order, when the claim is
// refused. Complete finishes a claimed order as applied or rejected and
// returns ErrOrderSettled when someone else already did; rejection clears
// AppliedAt. Delete drops an
// order that never left the pending phase.
type OrderRepository interface {
	Create(ctx context.Context, order Order) error
	Get(ctx context.Context, id string) (Order, error)
	Delete(ctx context.Context, id string) error
	Claim(ctx context.Context, id string, now, staleBefore time.Time) (Order, error)
	Complete(ctx context.Context, id string, phase Phase, reason string) (Order, error)
}

// PostgresRepository implements OrderRepository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed order repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const orderColumns = `id, account_id, sku, tier, months, status, submitted_at, claimed_at, applied_at, reject_reason`

func (r *PostgresRepository) Create(ctx context.Context, order Order) error {
	id, err := uuid.Parse(order.ID)
	if err != nil {
		return err
	}
	accountID, err := uuid.Parse(order.AccountID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO purchase_orders (`+orderColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, accountID, order.SKU, order.Tier.String(), order.Months, string(order.Status),
		order.SubmittedAt, order.ClaimedAt, order.AppliedAt, order.RejectReason)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Order, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return Order{}, ErrOrderNotFound
	}
	return scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1`, orderID))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return ErrOrderNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1 AND status = $2`, orderID, string(PhasePending))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Claim is a single conditional update, so only one worker across every
// process can hold a live claim.
func (r *PostgresRepository) Claim(ctx context.Context, id string, now, staleBefore time.Time) (Order, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return Order{}, ErrOrderNotFound
	}
	order, err := scanOrder(r.db.QueryRow(ctx, `UPDATE purchase_orders
        SET status = $2, claimed_at = $3, applied_at = COALESCE(applied_at, $3)
        WHERE id = $1 AND (status = $4 OR (status = $2 AND claimed_at <= $5))
        RETURNING `+orderColumns,
		orderID, string(PhaseSettling), now, string(PhasePending), staleBefore))
	if errors.Is(err, ErrOrderNotFound) {
		return r.refusal(ctx, id)
	}
	return order, err
}

func (r *PostgresRepository) Complete(ctx context.Context, id string, phase Phase, reason string) (Order, error) {
	if !phase.Settled() {
		return Order{}, fmt.Errorf("complete order %s: %q is not a final phase", id, phase)
	}
	orderID, err := uuid.Parse(id)
	if err != nil {
		return Order{}, ErrOrderNotFound
	}
	order, err := scanOrder(r.db.QueryRow(ctx, `UPDATE purchase_orders
        SET status = $2, reject_reason = $3,
            applied_at = CASE WHEN $2 = $5 THEN NULL ELSE applied_at END
        WHERE id = $1 AND status = $4
        RETURNING `+orderColumns,
		orderID, string(phase), reason, string(PhaseSettling), string(PhaseRejected)))
	if errors.Is(err, ErrOrderNotFound) {
		return r.refusal(ctx, id)
	}
	return order, err
}

// refusal explains why a conditional update matched no row.
func (r *PostgresRepository) refusal(ctx context.Context, id string) (Order, error) {
	order, err := r.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	return order, stateError(order)
}

func stateError(order Order) error {
	switch {
	case order.Status.Settled():
		return ErrOrderSettled
	case order.Status == PhaseSettling:
		return ErrSettlementInProgress
	default:
		return fmt.Errorf("order %s is %s", order.ID, order.Status)
	}
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		id, accountID uuid.UUID
		tier, status  string
		order         Order
	)
	err := row.Scan(&id, &accountID, &order.SKU, &tier, &order.Months, &status,
		&order.SubmittedAt, &order.ClaimedAt, &order.AppliedAt, &order.RejectReason)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	parsed, err := membership.ParseTier(tier)
	if err != nil {
		return Order{}, fmt.Errorf("order %s: %w", id, err)
	}
	order.ID = id.String()
	order.AccountID = accountID.String()
	order.Tier = parsed
	order.Status = Phase(status)
	order.SubmittedAt = order.SubmittedAt.UTC()
	return order, nil
}

type memoryRepository struct {
	mu     sync.RWMutex
	orders map[string]Order
}

// NewMemoryRepository builds an in-memory order store.
func NewMemoryRepository() OrderRepository {
	return &memoryRepository{orders: make(map[string]Order)}
}

func (r *memoryRepository) Create(_ context.Context, order Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.ID]; exists {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	r.orders[order.ID] = order
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return order, nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.Status != PhasePending {
		return ErrOrderNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *memoryRepository) Claim(_ context.Context, id string, now, staleBefore time.Time) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	stale := order.Status == PhaseSettling && order.ClaimedAt != nil && !order.ClaimedAt.After(staleBefore)
	if order.Status != PhasePending && !stale {
		return order, stateError(order)
	}
	order.Status = PhaseSettling
	order.ClaimedAt = &now
	if order.AppliedAt == nil {
		order.AppliedAt = &now
	}
	r.orders[id] = order
	return order, nil
}

func (r *memoryRepository) Complete(_ context.Context, id string, phase Phase, reason string) (Order, error) {
	if !phase.Settled() {
		return Order{}, fmt.Errorf("complete order %s: %q is not a final phase", id, phase)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if order.Status != PhaseSettling {
		return order, stateError(order)
	}
	order.Status = phase
	order.RejectReason = reason
	if phase == PhaseRejected {
		order.AppliedAt = nil
	}
	r.orders[id] = order
	return order, nil
}
