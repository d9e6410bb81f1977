package product

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows catalog listings. Zero-valued fields are ignored.
// Category matching is case-insensitive.
type Filter struct {
	Category string
	SellerID string
}

// Repository defines catalog persistence operations
type Repository interface {
	Create(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context, filter Filter) ([]*Product, error)
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteAll supports catalog reseeding by the importer
	DeleteAll(ctx context.Context) error
}

// ErrProductNotFound indicates missing catalog product
type ErrProductNotFound struct {
	ProductID uuid.UUID
}

func (e ErrProductNotFound) Error() string {
	return "product not found: " + e.ProductID.String()
}

// Is implements the errors.Is interface for ErrProductNotFound
func (e ErrProductNotFound) Is(target error) bool {
	t, ok := target.(ErrProductNotFound)
	if !ok {
		return false
	}
	if t.ProductID == uuid.Nil {
		return true
	}
	return e.ProductID == t.ProductID
}
