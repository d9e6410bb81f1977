package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace-ledger/internal/domain/transfer"
)

// Status defines message publishing states
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusProcessed       Status = "PROCESSED"
	StatusFailedToPublish Status = "FAILED_TO_PUBLISH"
)

// Message stores a committed transfer record for reliable publishing.
// Rows are created inside the same database transaction that moves the
// balances, so a committed transfer always has a matching outbox row.
type Message struct {
	ID            int64           `json:"id"`
	TransferID    uuid.UUID       `json:"transfer_id"`
	SenderID      uuid.UUID       `json:"sender_id"`
	Payload       json.RawMessage `json:"payload"`
	Status        Status          `json:"status"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
}

func NewMessage(record *transfer.Record) (*Message, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransferID: record.ID,
		SenderID:   record.SenderID,
		Payload:    payload,
		Status:     StatusPending,
		Attempts:   0,
		CreatedAt:  time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = StatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = StatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetTransferRecord extracts the transfer record from the payload
func (m *Message) GetTransferRecord() (*transfer.Record, error) {
	var record transfer.Record
	if err := json.Unmarshal(m.Payload, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
