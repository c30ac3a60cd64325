package ports

import (
	"context"
	"log/slog"
	"time"
)

// Notification events published by the portal.
const (
	// EventFlightChanged is published after a reservation is created or cancelled.
	EventFlightChanged = "flight:changed"
)

// Publisher delivers real-time notifications to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event string) error
}

// Notifier is the fire-and-forget side of a Publisher: it never blocks the caller
// and never reports failures other than through the log.
type Notifier struct {
	pub     Publisher
	logger  *slog.Logger
	timeout time.Duration
}

// FireAndForget wraps a Publisher. A nil publisher yields a no-op notifier.
func FireAndForget(pub Publisher, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Notifier{pub: pub, logger: logger, timeout: 5 * time.Second}
}

// Notify publishes the event in the background.
func (n *Notifier) Notify(ctx context.Context, event string) {
	if n == nil || n.pub == nil {
		return
	}
	go func() {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()
		if err := n.pub.Publish(pctx, event); err != nil {
			n.logger.Warn("notification publish failed", "event", event, "error", err)
		}
	}()
}
