package purchase

import (
	"context"
	"errors"
	"time"

	"github.com/smartwin-lab/smartwin/internal/membership"
)

var (
	ErrOrderNotFound = errors.New("purchase order not found")
	// ErrOrderSettled is returned by claims and completions on an order that
	// is already applied or rejected.
	ErrOrderSettled = errors.New("purchase order already settled")
	// ErrSettlementInProgress means another worker holds a live claim.
	ErrSettlementInProgress = errors.New("purchase order settlement in progress")
)

// Phase is the lifecycle position of a purchase order.
type Phase string

const (
	PhasePending  Phase = "pending"
	PhaseSettling Phase = "settling"
	PhaseApplied  Phase = "applied"
	PhaseRejected Phase = "rejected"
)

// Settled reports whether the phase is final.
func (p Phase) Settled() bool {
	return p == PhaseApplied || p == PhaseRejected
}

// Order tracks one purchase from submission to settlement. AppliedAt is the
// issue date of the plan; it is stamped by the first claim and reused by any
// later claim so a repeated settlement computes the same expiry.
type Order struct {
	ID           string
	AccountID    string
	SKU          string
	Tier         membership.Tier
	Months       int
	Status       Phase
	SubmittedAt  time.Time
	ClaimedAt    *time.Time
	AppliedAt    *time.Time
	RejectReason string
}

// Update is delivered to the submitter twice: once pending, after the order
// is recorded and scheduled, and once applied or rejected. The applied
// update arrives after the account has been saved.
type Update struct {
	Phase   Phase
	Order   Order
	Account membership.Account
}

// UpdateFunc receives purchase updates.
type UpdateFunc func(ctx context.Context, update Update)

// AccountStore loads and persists the accounts a purchase settles against.
type AccountStore interface {
	Get(ctx context.Context, id string) (membership.Account, error)
	Save(ctx context.Context, acct membership.Account) error
}

// Settler applies a pending order. Settling a settled order is a no-op.
type Settler interface {
	Settle(ctx context.Context, orderID string) (Order, error)
}
