package main

import (
	"context"
	"fmt"
	"os"

	"github.com/marketplace-ledger/internal/catalog"
	"github.com/marketplace-ledger/internal/config"
	"github.com/marketplace-ledger/internal/data/mongo"
	"github.com/marketplace-ledger/internal/logger"
	"github.com/marketplace-ledger/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("importer")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	if cfg.Importer.FilePath == "" {
		log.Error("IMPORTER_FILE_PATH is required")
		os.Exit(1)
	}

	// Initialize MongoDB
	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoDB.Close(appCtx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}()

	productRepo := mongo.NewProductRepository(log, mongoDB.Database())

	importer, err := catalog.NewImporter(log, productRepo, cfg.Importer.WorkerPoolSize)
	if err != nil {
		log.Error("Failed to initialize importer", "error", err)
		os.Exit(1)
	}
	defer importer.Shutdown()

	imported, err := importer.Run(appCtx, cfg.Importer.FilePath)
	if err != nil {
		log.Error("Product import failed", "error", err)
		os.Exit(1)
	}

	log.Info("Product data imported", "count", imported)
}
