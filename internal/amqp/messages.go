package amqp

import (
	"encoding/json"
	"time"
)

// BudgetAlertMessage is the payload handed to the mail gateway when a
// budget ceiling is crossed. It carries the rendered notification so the
// consumer does not need database access.
type BudgetAlertMessage struct {
	BudgetID  int64     `json:"budget_id"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBudgetAlertMessage(budgetID int64, recipient, subject, body string) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		BudgetID:  budgetID,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetAlertMessageFromJSON creates a message from JSON bytes.
func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
