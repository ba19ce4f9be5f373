package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChangeKind names the mutation that produced a LedgerChangedMessage.
type ChangeKind string

const (
	ChangeAppended ChangeKind = "appended"
	ChangeCleared  ChangeKind = "cleared"
)

func (k ChangeKind) IsValid() bool {
	return k == ChangeAppended || k == ChangeCleared
}

// LedgerChangedMessage announces that a ledger slot was rewritten.
// It carries no records; consumers re-read the slot from the store.
type LedgerChangedMessage struct {
	ID        uuid.UUID  `json:"id"`
	LedgerKey string     `json:"ledger_key"`
	Kind      ChangeKind `json:"kind"`
	Count     int        `json:"count"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewLedgerChangedMessage(ledgerKey string, kind ChangeKind, count int) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		ID:        uuid.New(),
		LedgerKey: ledgerKey,
		Kind:      kind,
		Count:     count,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes and sanity-checks a message body.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Kind.IsValid() {
		return nil, fmt.Errorf("unknown change kind %q", msg.Kind)
	}
	if msg.LedgerKey == "" {
		return nil, fmt.Errorf("message %s has no ledger key", msg.ID)
	}
	return &msg, nil
}
