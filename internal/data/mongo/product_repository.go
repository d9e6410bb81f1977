package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/marketplace-ledger/internal/domain/product"
)

const (
	// ProductCollectionName is the name of the catalog collection in MongoDB
	ProductCollectionName = "products"
)

// ProductRepository implements the product.Repository interface for MongoDB
type ProductRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewProductRepository creates a new MongoDB product catalog repository
func NewProductRepository(logger *slog.Logger, db *mongo.Database) product.Repository {
	return &ProductRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new catalog product
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	collection := r.db.Collection(ProductCollectionName)

	_, err := collection.InsertOne(ctx, p)
	if err != nil {
		r.logger.Error("Failed to create product",
			"product_id", p.ID.String(),
			"error", err)
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its ID.
// Returns ErrProductNotFound if the product doesn't exist.
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	collection := r.db.Collection(ProductCollectionName)

	filter := bson.M{"product_id": id}
	var p product.Product
	err := collection.FindOne(ctx, filter).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, product.ErrProductNotFound{ProductID: id}
		}
		r.logger.Error("Failed to get product",
			"product_id", id.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &p, nil
}

// List retrieves catalog products matching the filter. Category matching
// is case-insensitive; zero-valued filter fields are ignored.
func (r *ProductRepository) List(ctx context.Context, filter product.Filter) ([]*product.Product, error) {
	collection := r.db.Collection(ProductCollectionName)

	cursor, err := collection.Find(ctx, filterQuery(filter))
	if err != nil {
		r.logger.Error("Failed to list products", "error", err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []*product.Product
	if err := cursor.All(ctx, &products); err != nil {
		r.logger.Error("Failed to decode products", "error", err)
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	return products, nil
}

// Update replaces the stored product document.
// Returns ErrProductNotFound if the product doesn't exist.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	collection := r.db.Collection(ProductCollectionName)

	filter := bson.M{"product_id": p.ID}
	result, err := collection.ReplaceOne(ctx, filter, p)
	if err != nil {
		r.logger.Error("Failed to update product",
			"product_id", p.ID.String(),
			"error", err)
		return fmt.Errorf("failed to update product: %w", err)
	}

	if result.MatchedCount == 0 {
		return product.ErrProductNotFound{ProductID: p.ID}
	}

	return nil
}

// Delete removes a product from the catalog.
// Returns ErrProductNotFound if the product doesn't exist.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	collection := r.db.Collection(ProductCollectionName)

	result, err := collection.DeleteOne(ctx, bson.M{"product_id": id})
	if err != nil {
		r.logger.Error("Failed to delete product",
			"product_id", id.String(),
			"error", err)
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if result.DeletedCount == 0 {
		return product.ErrProductNotFound{ProductID: id}
	}

	return nil
}

func filterQuery(filter product.Filter) bson.M {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = primitive.Regex{Pattern: "^" + filter.Category + "$", Options: "i"}
	}
	if filter.SellerID != "" {
		query["seller_id"] = filter.SellerID
	}
	return query
}

// DeleteAll removes every product from the catalog. Used by the importer
// before reseeding.
func (r *ProductRepository) DeleteAll(ctx context.Context) error {
	collection := r.db.Collection(ProductCollectionName)

	if _, err := collection.DeleteMany(ctx, bson.M{}); err != nil {
		r.logger.Error("Failed to delete all products", "error", err)
		return fmt.Errorf("failed to delete all products: %w", err)
	}

	return nil
}
