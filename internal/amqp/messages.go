package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds published by the ledger after successful commits.
const (
	EventTransactionRecorded = "transaction_recorded"
	EventTransactionDeleted  = "transaction_deleted"
	EventStatementPaid       = "statement_paid"
	EventSlipGrouped         = "slip_grouped"
	EventSlipUngrouped       = "slip_ungrouped"
)

// LedgerEventMessage is a lightweight notification: consumers that need the
// full row fetch it from the database by id.
type LedgerEventMessage struct {
	Kind      string    `json:"kind"`
	EntityID  int64     `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(kind string, entityID int64) *LedgerEventMessage {
	return &LedgerEventMessage{
		Kind:      kind,
		EntityID:  entityID,
		Timestamp: time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
