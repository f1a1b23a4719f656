package notification

import (
	"context"
	"log/slog"
	"sync"
)

// Kinds of back-office notifications emitted by the business hall.
const (
	KindActivationRequested = "activation_requested"
	KindPkSubmitted         = "pk_submitted"
	KindProposalSubmitted   = "proposal_submitted"
	KindVoteCast            = "vote_cast"
	KindPurchaseApplied     = "purchase_applied"
	KindPurchaseRejected    = "purchase_rejected"
)

// Message describes a notification payload.
type Message struct {
	Kind      string
	AccountID string
	Body      string
	Attrs     map[string]string
}

// Notifier hands work over to the administrative processes that act on it.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger, where the
// back office picks them up.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	attrs := []any{
		slog.String("kind", message.Kind),
		slog.String("account_id", message.AccountID),
		slog.String("body", message.Body),
	}
	for k, v := range message.Attrs {
		attrs = append(attrs, slog.String(k, v))
	}
	n.logger.InfoContext(ctx, "notification", attrs...)
	return nil
}

// Recorder keeps sent messages in memory. Tests use it to assert on
// notifications.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Send appends the message.
func (r *Recorder) Send(_ context.Context, message Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Kinds lists the kinds of every recorded message in order.
func (r *Recorder) Kinds() []string {
	msgs := r.Messages()
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Kind)
	}
	return out
}
