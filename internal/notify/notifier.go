// Package notify defines the outbound notification port. The budget check
// job speaks to it; delivery itself (mail gateway) lives outside this
// system.
package notify

import (
	"context"

	"budgetd/internal/log"
)

// Message is a notification to a single recipient.
type Message struct {
	Recipient string
	Subject   string
	Body      string
}

// Notifier delivers messages. Implementations must be safe for concurrent
// use; delivery is fire-and-forget and failures are logged, not retried.
type Notifier interface {
	Send(ctx context.Context, m Message) error
}

// LogNotifier writes notifications to the log. It is the fallback when no
// message broker is configured.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.WithComponent(log.ComponentWorker)}
}

func (n *LogNotifier) Send(ctx context.Context, m Message) error {
	n.logger.InfoContext(ctx, "Notification (log only)",
		log.FieldRecipient, m.Recipient,
		"subject", m.Subject)
	return nil
}
