package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marketplace-ledger/internal/catalog"
	"github.com/marketplace-ledger/internal/domain/product"
)

// CatalogService manages product listings.
// *catalog.Service satisfies this interface.
type CatalogService interface {
	ListProducts(ctx context.Context, category, sellerID string) ([]*product.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*product.Product, error)
	CreateProduct(ctx context.Context, params catalog.CreateParams) (*product.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, params catalog.UpdateParams) (*product.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// ProductHandler handles HTTP requests for catalog operations
type ProductHandler struct {
	catalogService CatalogService
	logger         *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(logger *slog.Logger, catalogService CatalogService) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// List returns catalog listings filtered by optional category and
// seller_id query parameters
func (h *ProductHandler) List(c *gin.Context) {
	category := c.Query("category")
	sellerID := c.Query("seller_id")

	products, err := h.catalogService.ListProducts(c.Request.Context(), category, sellerID)
	if err != nil {
		h.logger.Error("Failed to list products", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		responses = append(responses, mapProductToResponse(p))
	}

	RespondOK(c, ProductListResponse{Products: responses})
}

// GetByID retrieves a product by its ID, returns 404 if not found
func (h *ProductHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid product ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid product ID")
		return
	}

	p, err := h.catalogService.GetProductByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrProductNotFound{}) {
			RespondNotFound(c, "Product not found")
			return
		}
		h.logger.Error("Failed to get product", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapProductToResponse(p))
}

// Create handles creation of a new catalog listing
func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.catalogService.CreateProduct(c.Request.Context(), catalog.CreateParams{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
		Stock:       req.Stock,
		SellerID:    req.SellerID,
	})
	if err != nil {
		switch {
		case errors.Is(err, product.ErrEmptyName),
			errors.Is(err, product.ErrEmptyDescription),
			errors.Is(err, product.ErrNegativePrice),
			errors.Is(err, product.ErrEmptyCategory),
			errors.Is(err, product.ErrEmptySellerID):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to create product", "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapProductToResponse(p))
}

// Update applies a partial update to an existing listing
func (h *ProductHandler) Update(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid product ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid product ID")
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.catalogService.UpdateProduct(c.Request.Context(), id, catalog.UpdateParams{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
		Stock:       req.Stock,
	})
	if err != nil {
		if errors.Is(err, product.ErrProductNotFound{}) {
			RespondNotFound(c, "Product not found")
			return
		}
		h.logger.Error("Failed to update product", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapProductToResponse(p))
}

// Delete removes a listing from the catalog
func (h *ProductHandler) Delete(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid product ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid product ID")
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, product.ErrProductNotFound{}) {
			RespondNotFound(c, "Product not found")
			return
		}
		h.logger.Error("Failed to delete product", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondNoContent(c)
}

// mapProductToResponse maps a product entity to a product response DTO
func mapProductToResponse(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
		Category:    p.Category,
		Stock:       p.Stock,
		SellerID:    p.SellerID,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}
