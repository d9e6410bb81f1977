// Package transfer defines the immutable audit records produced by the
// ledger transfer service. A record is written for every attempt that
// reaches the mutation stage, whether it commits or fails.
package transfer

import (
	"time"

	"github.com/google/uuid"
)

// Status defines the terminal outcome of a transfer attempt
type Status string

const (
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// FailureReason defines transfer failure categories
type FailureReason string

const (
	FailureReasonInsufficientFunds FailureReason = "INSUFFICIENT_FUNDS"
	FailureReasonConflict          FailureReason = "CONFLICT"
	FailureReasonStorageFailure    FailureReason = "STORAGE_FAILURE"
)

// Record is an append-only audit entry describing one transfer attempt.
// Records are created once and never updated or deleted.
type Record struct {
	ID            uuid.UUID     `json:"id" bson:"transfer_id"`
	SenderID      uuid.UUID     `json:"sender_id" bson:"sender_id"`
	ReceiverID    uuid.UUID     `json:"receiver_id" bson:"receiver_id"`
	ProductID     string        `json:"product_id" bson:"product_id"` // Opaque catalog reference
	Amount        int64         `json:"amount" bson:"amount"`         // Stored in cents/minor units
	Status        Status        `json:"status" bson:"status"`
	FailureReason FailureReason `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	CorrelationID string        `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at"`
}

// NewSucceededRecord builds the audit entry for a committed transfer
func NewSucceededRecord(id, senderID, receiverID uuid.UUID, productID string, amount int64, correlationID string) *Record {
	return &Record{
		ID:            id,
		SenderID:      senderID,
		ReceiverID:    receiverID,
		ProductID:     productID,
		Amount:        amount,
		Status:        StatusSucceeded,
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	}
}

// NewFailedRecord builds the audit entry for an attempt that reached the
// mutation stage but did not commit
func NewFailedRecord(id, senderID, receiverID uuid.UUID, productID string, amount int64, reason FailureReason, correlationID string) *Record {
	return &Record{
		ID:            id,
		SenderID:      senderID,
		ReceiverID:    receiverID,
		ProductID:     productID,
		Amount:        amount,
		Status:        StatusFailed,
		FailureReason: reason,
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	}
}
