package purchase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// ErrWorkerUnbound is returned by SettleWorker before Bind is called.
var ErrWorkerUnbound = errors.New("settle worker has no settler bound")

// SettleArgs is the River job that settles one order.
type SettleArgs struct {
	OrderID string `json:"order_id"`
}

func (SettleArgs) Kind() string { return "purchase_settle" }

// SettleWorker runs settlement jobs. The settler is bound after the purchase
// service is built, since the service needs the River client first.
type SettleWorker struct {
	river.WorkerDefaults[SettleArgs]

	mu      sync.RWMutex
	settler Settler
}

func NewSettleWorker() *SettleWorker {
	return &SettleWorker{}
}

// Bind attaches the settler used by Work.
func (w *SettleWorker) Bind(settler Settler) {
	w.mu.Lock()
	w.settler = settler
	w.mu.Unlock()
}

func (w *SettleWorker) Work(ctx context.Context, job *river.Job[SettleArgs]) error {
	w.mu.RLock()
	settler := w.settler
	w.mu.RUnlock()
	if settler == nil {
		return ErrWorkerUnbound
	}
	if _, err := settler.Settle(ctx, job.Args.OrderID); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return river.JobCancel(err)
		}
		return fmt.Errorf("settle order %s: %w", job.Args.OrderID, err)
	}
	return nil
}

// JobInserter is the subset of *river.Client used to enqueue settlements.
type JobInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// RiverConfirmer schedules settlement as a River job so pending orders survive
// restarts. River delivers at least once; Settle tolerates repeats.
type RiverConfirmer struct {
	client JobInserter
	delay  time.Duration
	now    func() time.Time
}

func NewRiverConfirmer(client JobInserter, delay time.Duration) *RiverConfirmer {
	return &RiverConfirmer{client: client, delay: delay, now: time.Now}
}

// Schedule enqueues the job. The settler argument is unused: the worker bound
// to the River client performs the settlement.
func (c *RiverConfirmer) Schedule(ctx context.Context, order Order, _ Settler) error {
	_, err := c.client.Insert(ctx, SettleArgs{OrderID: order.ID}, &river.InsertOpts{
		ScheduledAt: c.now().Add(c.delay),
	})
	if err != nil {
		return fmt.Errorf("enqueue settlement: %w", err)
	}
	return nil
}
