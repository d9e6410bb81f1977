package product

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrEmptyName        = errors.New("product name cannot be empty")
	ErrEmptyDescription = errors.New("product description cannot be empty")
	ErrNegativePrice    = errors.New("product price cannot be negative")
	ErrEmptyCategory    = errors.New("product category cannot be empty")
	ErrEmptySellerID    = errors.New("seller id is required")
)

// Product represents a catalog listing offered by a seller
type Product struct {
	ID          uuid.UUID `json:"id" bson:"product_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Price       int64     `json:"price" bson:"price"` // Stored in cents/minor units
	Image       string    `json:"image" bson:"image"`
	Category    string    `json:"category" bson:"category"` // Normalized to lowercase
	Stock       int       `json:"stock" bson:"stock"`
	SellerID    string    `json:"seller_id" bson:"seller_id"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// NewProduct creates a new catalog product, normalizing the category
func NewProduct(name, description string, price int64, image, category string, stock int, sellerID string) (*Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyDescription
	}
	if price < 0 {
		return nil, ErrNegativePrice
	}
	if strings.TrimSpace(category) == "" {
		return nil, ErrEmptyCategory
	}
	if sellerID == "" {
		return nil, ErrEmptySellerID
	}

	now := time.Now()
	return &Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: description,
		Price:       price,
		Image:       image,
		Category:    strings.ToLower(strings.TrimSpace(category)),
		Stock:       stock,
		SellerID:    sellerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Update applies the given fields to the product and refreshes the
// update timestamp. Zero-valued fields are left unchanged.
func (p *Product) Update(name, description string, price *int64, image, category string, stock *int) {
	if strings.TrimSpace(name) != "" {
		p.Name = strings.TrimSpace(name)
	}
	if strings.TrimSpace(description) != "" {
		p.Description = description
	}
	if price != nil && *price >= 0 {
		p.Price = *price
	}
	if image != "" {
		p.Image = image
	}
	if strings.TrimSpace(category) != "" {
		p.Category = strings.ToLower(strings.TrimSpace(category))
	}
	if stock != nil && *stock >= 0 {
		p.Stock = *stock
	}
	p.UpdatedAt = time.Now()
}
