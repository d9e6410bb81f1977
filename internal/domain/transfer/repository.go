package transfer

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages transfer record persistence with pagination support.
// The store is append-only: records are never updated or deleted.
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Record, error)
	CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// ErrRecordNotFound indicates missing transfer record
type ErrRecordNotFound struct {
	TransferID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "transfer record not found: " + e.TransferID.String()
}

// Is implements the errors.Is interface for ErrRecordNotFound
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	// If the target TransferID is empty, consider it a match for any ErrRecordNotFound
	if t.TransferID == uuid.Nil {
		return true
	}
	return e.TransferID == t.TransferID
}

// ErrDuplicateRecord indicates transfer record uniqueness violation
type ErrDuplicateRecord struct {
	TransferID uuid.UUID
}

func (e ErrDuplicateRecord) Error() string {
	return "duplicate transfer record: " + e.TransferID.String()
}

// Is implements the errors.Is interface for ErrDuplicateRecord
func (e ErrDuplicateRecord) Is(target error) bool {
	t, ok := target.(ErrDuplicateRecord)
	if !ok {
		return false
	}
	if t.TransferID == uuid.Nil {
		return true
	}
	return e.TransferID == t.TransferID
}
