package purchase

import (
	"context"
	"log/slog"
	"time"
)

// Confirmer schedules settlement of an accepted order. Implementations must
// eventually call Settle exactly once per successful schedule, or leave the
// retry to an at-least-once queue.
type Confirmer interface {
	Schedule(ctx context.Context, order Order, settler Settler) error
}

// TimerConfirmer settles in-process after a fixed delay. Orders still pending
// when the process exits are not settled.
type TimerConfirmer struct {
	Delay  time.Duration
	Logger *slog.Logger
}

// Schedule arms a timer. ctx must already be detached from the request.
func (t TimerConfirmer) Schedule(ctx context.Context, order Order, settler Settler) error {
	time.AfterFunc(t.Delay, func() {
		if _, err := settler.Settle(ctx, order.ID); err != nil && t.Logger != nil {
			t.Logger.ErrorContext(ctx, "purchase settlement failed",
				slog.String("order_id", order.ID),
				slog.Any("error", err),
			)
		}
	})
	return nil
}
