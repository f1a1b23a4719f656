package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartwin-lab/smartwin/internal/membership"
	"github.com/smartwin-lab/smartwin/internal/notification"
)

// claimLease is how long a settlement claim blocks other workers. A worker
// that dies mid-settlement leaves the order to be retaken after it expires.
const claimLease = time.Minute

// Service coordinates two-phase purchases: the order is accepted as pending
// and later settled by the confirmer, which applies the plan to the account.
type Service struct {
	engine    *membership.Engine
	orders    OrderRepository
	accounts  AccountStore
	confirmer Confirmer
	notifier  notification.Notifier
	logger    *slog.Logger

	// settleMu serializes settlement within the process; Claim covers the
	// other processes.
	settleMu  sync.Mutex
	mu        sync.Mutex
	listeners map[string]*listener
}

// listener holds the submitter's callback. ready is closed once the pending
// update has been delivered, so the final update never overtakes it.
type listener struct {
	fn    UpdateFunc
	ready chan struct{}
}

// NewService prepares a purchase service. A nil confirmer settles immediately
// through a zero-delay timer.
func NewService(engine *membership.Engine, orders OrderRepository, accounts AccountStore, confirmer Confirmer, notifier notification.Notifier, logger *slog.Logger) (*Service, error) {
	if engine == nil || orders == nil || accounts == nil {
		return nil, fmt.Errorf("engine, order repository and account store are required")
	}
	if confirmer == nil {
		confirmer = TimerConfirmer{Logger: logger}
	}
	return &Service{
		engine:    engine,
		orders:    orders,
		accounts:  accounts,
		confirmer: confirmer,
		notifier:  notifier,
		logger:    logger,
		listeners: make(map[string]*listener),
	}, nil
}

// Submit validates the purchase, records a pending order and schedules its
// settlement. onUpdate receives the pending update once scheduling succeeded
// and before Submit returns, then the applied or rejected update. When
// scheduling fails the order is dropped and onUpdate is never called.
// Settlement runs detached from ctx, so cancelling the request does not
// abandon it.
func (s *Service) Submit(ctx context.Context, acct membership.Account, sku string, onUpdate UpdateFunc) (Order, error) {
	plan, err := s.engine.Purchase(acct, sku)
	if err != nil {
		return Order{}, err
	}

	order := Order{
		ID:          uuid.NewString(),
		AccountID:   acct.ID,
		SKU:         plan.Product.SKU,
		Tier:        plan.Product.Tier,
		Months:      plan.Product.Months,
		Status:      PhasePending,
		SubmittedAt: s.engine.Now(),
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return Order{}, fmt.Errorf("record order: %w", err)
	}

	var l *listener
	if onUpdate != nil {
		l = &listener{fn: onUpdate, ready: make(chan struct{})}
		s.mu.Lock()
		s.listeners[order.ID] = l
		s.mu.Unlock()
	}

	detached := context.WithoutCancel(ctx)
	if err := s.confirmer.Schedule(detached, order, s); err != nil {
		s.takeListener(order.ID)
		if derr := s.orders.Delete(detached, order.ID); derr != nil {
			s.logger.ErrorContext(ctx, "drop unscheduled order failed",
				slog.String("order_id", order.ID),
				slog.Any("error", derr),
			)
		}
		return Order{}, fmt.Errorf("schedule settlement: %w", err)
	}

	if l != nil {
		l.fn(ctx, Update{Phase: PhasePending, Order: order, Account: acct})
		close(l.ready)
	}

	s.logger.InfoContext(ctx, "purchase accepted",
		slog.String("order_id", order.ID),
		slog.String("account_id", acct.ID),
		slog.String("sku", order.SKU),
		slog.String("from_tier", plan.FromTier.String()),
	)
	return order, nil
}

// Settle claims a pending order, checks the purchase again against the
// current account, persists the account, completes the order and then
// delivers the final update. A purchase that is no longer allowed, such as
// a plan below a tier granted by an earlier order, is rejected and leaves
// the account untouched. A settled order is returned unchanged; a claim held
// by another worker yields ErrSettlementInProgress so the queue retries.
func (s *Service) Settle(ctx context.Context, orderID string) (Order, error) {
	s.settleMu.Lock()
	defer s.settleMu.Unlock()

	now := s.engine.Now()
	order, err := s.orders.Claim(ctx, orderID, now, now.Add(-claimLease))
	if errors.Is(err, ErrOrderSettled) {
		return order, nil
	}
	if err != nil {
		return Order{}, err
	}

	acct, err := s.accounts.Get(ctx, order.AccountID)
	if err != nil {
		return Order{}, fmt.Errorf("load account %s: %w", order.AccountID, err)
	}
	plan, err := s.engine.Purchase(acct, order.SKU)
	if membership.IsDenied(err) || membership.IsValidation(err) {
		return s.reject(ctx, order, acct, err)
	}
	if err != nil {
		return Order{}, err
	}

	updated := s.engine.ApplyPurchase(acct, plan.Product, *order.AppliedAt)
	if err := s.accounts.Save(ctx, updated); err != nil {
		return Order{}, fmt.Errorf("save account %s: %w", acct.ID, err)
	}

	applied, err := s.orders.Complete(ctx, orderID, PhaseApplied, "")
	if errors.Is(err, ErrOrderSettled) {
		return applied, nil
	}
	if err != nil {
		return Order{}, fmt.Errorf("complete order: %w", err)
	}

	s.logger.InfoContext(ctx, "purchase applied",
		slog.String("order_id", orderID),
		slog.String("account_id", updated.ID),
		slog.String("tier", updated.Tier.String()),
	)
	s.notify(ctx, notification.Message{
		Kind:      notification.KindPurchaseApplied,
		AccountID: updated.ID,
		Body:      fmt.Sprintf("%s applied to %s", applied.SKU, updated.DisplayName()),
		Attrs:     map[string]string{"sku": applied.SKU, "tier": updated.Tier.String(), "months": strconv.Itoa(applied.Months)},
	})
	s.deliver(ctx, Update{Phase: PhaseApplied, Order: applied, Account: updated})
	return applied, nil
}

func (s *Service) reject(ctx context.Context, order Order, acct membership.Account, cause error) (Order, error) {
	rejected, err := s.orders.Complete(ctx, order.ID, PhaseRejected, cause.Error())
	if errors.Is(err, ErrOrderSettled) {
		return rejected, nil
	}
	if err != nil {
		return Order{}, fmt.Errorf("reject order: %w", err)
	}

	s.logger.WarnContext(ctx, "purchase rejected at settlement",
		slog.String("order_id", order.ID),
		slog.String("account_id", acct.ID),
		slog.String("sku", order.SKU),
		slog.String("tier", acct.Tier.String()),
		slog.Any("error", cause),
	)
	s.notify(ctx, notification.Message{
		Kind:      notification.KindPurchaseRejected,
		AccountID: acct.ID,
		Body:      fmt.Sprintf("%s rejected for %s", order.SKU, acct.DisplayName()),
		Attrs:     map[string]string{"sku": order.SKU, "tier": acct.Tier.String(), "reason": cause.Error()},
	})
	s.deliver(ctx, Update{Phase: PhaseRejected, Order: rejected, Account: acct})
	return rejected, nil
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "purchase notification failed", slog.Any("error", err))
	}
}

func (s *Service) deliver(ctx context.Context, u Update) {
	if l := s.takeListener(u.Order.ID); l != nil {
		<-l.ready
		l.fn(ctx, u)
	}
}

// Get returns an order by identifier.
func (s *Service) Get(ctx context.Context, orderID string) (Order, error) {
	return s.orders.Get(ctx, orderID)
}

func (s *Service) takeListener(orderID string) *listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.listeners[orderID]
	delete(s.listeners, orderID)
	return l
}
