package amqp

import (
	"context"
	"time"

	"budgetd/internal/notify"
)

// Notifier adapts the AMQP client to the notification port. Each message
// becomes one persistent budget alert on the alerts queue.
type Notifier struct {
	client *Client
}

func NewNotifier(client *Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) Send(ctx context.Context, m notify.Message) error {
	msg := &BudgetAlertMessage{
		Recipient: m.Recipient,
		Subject:   m.Subject,
		Body:      m.Body,
		Timestamp: time.Now().UTC(),
	}
	return n.client.PublishBudgetAlert(ctx, msg)
}
