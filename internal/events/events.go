// Package events publishes ledger and budget notifications to a message
// broker.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Event types.
const (
	TypeBudgetLow       = "budget.low"
	TypeBudgetExhausted = "budget.exhausted"
	TypeBudgetCleared   = "budget.cleared"
	TypeBudgetReset     = "budget.reset"
)

// Event is the message body sent to the broker.
type Event struct {
	Type       string           `json:"type"`
	UserID     uint             `json:"user_id"`
	Remaining  *decimal.Decimal `json:"remaining,omitempty"`
	Budget     *decimal.Decimal `json:"budget,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON parses an event body.
func EventFromJSON(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}
