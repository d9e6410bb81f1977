// Package catalog provides the product listing operations backing the
// marketplace API and the bulk importer.
package catalog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace-ledger/internal/domain/product"
)

// CreateParams carries the fields for a new product listing
type CreateParams struct {
	Name        string
	Description string
	Price       int64
	Image       string
	Category    string
	Stock       int
	SellerID    string
}

// UpdateParams carries optional field updates; nil pointers and empty
// strings leave the stored value unchanged
type UpdateParams struct {
	Name        string
	Description string
	Price       *int64
	Image       string
	Category    string
	Stock       *int
}

// Service manages the product catalog
type Service struct {
	productRepo product.Repository
	logger      *slog.Logger
}

// NewService creates a new catalog service
func NewService(logger *slog.Logger, productRepo product.Repository) *Service {
	return &Service{
		productRepo: productRepo,
		logger:      logger,
	}
}

// ListProducts returns products matching the optional category and seller
// filters. The literal category "All" disables category filtering.
func (s *Service) ListProducts(ctx context.Context, category, sellerID string) ([]*product.Product, error) {
	filter := product.Filter{SellerID: sellerID}
	if category != "" && !strings.EqualFold(category, "All") {
		filter.Category = category
	}
	return s.productRepo.List(ctx, filter)
}

// GetProductByID retrieves one product, returns ErrProductNotFound if missing
func (s *Service) GetProductByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

// CreateProduct validates and stores a new listing
func (s *Service) CreateProduct(ctx context.Context, params CreateParams) (*product.Product, error) {
	p, err := product.NewProduct(params.Name, params.Description, params.Price, params.Image, params.Category, params.Stock, params.SellerID)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("Product created", "product_id", p.ID.String(), "seller_id", p.SellerID)
	return p, nil
}

// UpdateProduct applies the given field updates to an existing listing
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateParams) (*product.Product, error) {
	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Update(params.Name, params.Description, params.Price, params.Image, params.Category, params.Stock)

	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// DeleteProduct removes a listing from the catalog
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Product deleted", "product_id", id.String())
	return nil
}
