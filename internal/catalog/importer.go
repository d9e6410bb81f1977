package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/marketplace-ledger/internal/domain/product"
	"github.com/panjf2000/ants/v2"
)

// seedProduct describes one entry in the product seed file
type seedProduct struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	Stock       int    `json:"stock"`
	SellerID    string `json:"seller_id"`
}

// Importer replaces the product catalog with the contents of a JSON seed
// file, validating and inserting entries concurrently through a bounded
// worker pool.
type Importer struct {
	productRepo product.Repository
	pool        *ants.Pool
	logger      *slog.Logger
}

// NewImporter creates an importer backed by a worker pool of the given size
func NewImporter(logger *slog.Logger, productRepo product.Repository, poolSize int) (*Importer, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	return &Importer{
		productRepo: productRepo,
		pool:        pool,
		logger:      logger,
	}, nil
}

// Run wipes the catalog and imports every valid entry from the seed file.
// Returns the number of imported products. Invalid entries are logged and
// skipped; they do not abort the import.
func (i *Importer) Run(ctx context.Context, filePath string) (int, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file %s: %w", filePath, err)
	}

	var seeds []seedProduct
	if err := json.Unmarshal(data, &seeds); err != nil {
		return 0, fmt.Errorf("failed to parse seed file %s: %w", filePath, err)
	}

	i.logger.Info("Importing products", "file", filePath, "count", len(seeds))

	if err := i.productRepo.DeleteAll(ctx); err != nil {
		return 0, fmt.Errorf("failed to clear existing catalog: %w", err)
	}

	var (
		wg       sync.WaitGroup
		imported atomic.Int64
	)
	for _, seed := range seeds {
		seed := seed
		wg.Add(1)
		if err := i.pool.Submit(func() {
			defer wg.Done()

			p, err := product.NewProduct(seed.Name, seed.Description, seed.Price, seed.Image, seed.Category, seed.Stock, seed.SellerID)
			if err != nil {
				i.logger.Warn("Skipping invalid seed product", "name", seed.Name, "error", err)
				return
			}

			if err := i.productRepo.Create(ctx, p); err != nil {
				i.logger.Error("Failed to insert seed product", "name", seed.Name, "error", err)
				return
			}

			imported.Add(1)
		}); err != nil {
			wg.Done()
			return int(imported.Load()), fmt.Errorf("failed to submit import task: %w", err)
		}
	}

	wg.Wait()

	i.logger.Info("Product import finished", "imported", imported.Load(), "total", len(seeds))
	return int(imported.Load()), nil
}

// Shutdown releases the worker pool
func (i *Importer) Shutdown() {
	i.pool.Release()
}
