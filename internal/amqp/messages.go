package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event types carried over the sync queue.
const (
	EventPaymentRecorded = "payment_recorded"
	EventPaymentUndone   = "payment_undone"
	EventMemberChanged   = "member_changed"
)

// LedgerEventMessage tells the worker that one member's ledger changed.
// It carries only identifiers; the worker reads the current state from
// the database, so a stale or redelivered event converges to the same
// spreadsheet row.
type LedgerEventMessage struct {
	Type       string    `json:"type"`
	MemberID   int64     `json:"member_id"`
	SchoolYear string    `json:"school_year"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(eventType string, memberID int64, schoolYear string) *LedgerEventMessage {
	return &LedgerEventMessage{
		Type:       eventType,
		MemberID:   memberID,
		SchoolYear: schoolYear,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
