package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Event types published on the exchange.
const (
	ChoreCreated         = "chore.created"
	ChoreEntryCreated    = "chore_entry.created"
	ChoreEntryApproved   = "chore_entry.approved"
	ChoreEntryRejected   = "chore_entry.rejected"
	ChoreEntryDeleted    = "chore_entry.deleted"
	LedgerEntryCreated   = "ledger_entry.created"
	AllowanceRuleUpdated = "allowance_rule.updated"
)

// Event notifies downstream consumers that a kid's money state changed.
// It carries identifiers, not full records: consumers re-read the store.
type Event struct {
	Type      string           `json:"type"`
	KidID     string           `json:"kidId"`
	EntryID   string           `json:"entryId,omitempty"`
	Date      string           `json:"date,omitempty"`
	Status    string           `json:"status,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType, kidID string) *Event {
	return &Event{
		Type:      eventType,
		KidID:     kidID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON creates an event from JSON bytes
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
