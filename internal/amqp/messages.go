package amqp

import (
	"encoding/json"
	"time"

	"ledger/internal/core"
)

// LedgerEvent describes one mutation of the ledger. The full record is
// carried so consumers never need to read the ledger store.
type LedgerEvent struct {
	Type        core.ChangeKind `json:"type"`
	ID          string          `json:"id"`
	Amount      string          `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Timestamp   time.Time       `json:"timestamp"`
}

func NewLedgerEvent(kind core.ChangeKind, e core.Expense) *LedgerEvent {
	return &LedgerEvent{
		Type:        kind,
		ID:          e.ID,
		Amount:      e.Amount.String(),
		Category:    e.Category,
		Description: e.Description,
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON creates a message from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
