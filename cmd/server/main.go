package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marketplace-ledger/internal/accounts"
	"github.com/marketplace-ledger/internal/catalog"
	"github.com/marketplace-ledger/internal/config"
	"github.com/marketplace-ledger/internal/data/mongo"
	"github.com/marketplace-ledger/internal/data/postgres"
	"github.com/marketplace-ledger/internal/events"
	"github.com/marketplace-ledger/internal/ledger"
	"github.com/marketplace-ledger/internal/logger"
	"github.com/marketplace-ledger/internal/platform/messaging/producers"
	"github.com/marketplace-ledger/internal/platform/persistence"
	"github.com/marketplace-ledger/internal/server"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("server")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for transfer events
	kafkaProducer, err := producers.NewTransferEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	transferRepo := mongo.NewTransferRepository(log, mongoDB.Database())
	productRepo := mongo.NewProductRepository(log, mongoDB.Database())

	// Initialize services
	paymentService := ledger.NewService(postgresDB, accountRepo, outboxRepo, transferRepo, log, &cfg.Transfer)
	accountService := accounts.NewService(accountRepo)
	catalogService := catalog.NewService(log, productRepo)

	// Initialize outbox poller; it guarantees every committed transfer
	// reaches the transfer log and the event stream
	transferPublisher := events.NewTransferPublisher(outboxRepo, transferRepo, kafkaProducer, log)
	outboxPoller := events.NewPoller(&cfg.Outbox, outboxRepo, transferPublisher, log)
	go outboxPoller.Start(appCtx)

	// Initialize REST server
	srv := server.NewServer(log, cfg, paymentService, accountService, catalogService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := srv.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context; this also stops the outbox poller
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so in-flight payments finish
	if err = srv.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = kafkaProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
