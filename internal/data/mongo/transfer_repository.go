// Package mongo provides MongoDB implementations of the transfer log and
// product catalog repositories.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/marketplace-ledger/internal/domain/transfer"
)

const (
	// TransferCollectionName is the name of the transfer log collection in MongoDB
	TransferCollectionName = "transfer_records"
)

// TransferRepository implements the transfer.Repository interface for MongoDB
type TransferRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewTransferRepository creates a new MongoDB transfer log repository
func NewTransferRepository(logger *slog.Logger, db *mongo.Database) transfer.Repository {
	return &TransferRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a new transfer record after checking for duplicates.
// Returns ErrDuplicateRecord if a record with the same transfer ID exists.
func (r *TransferRepository) Create(ctx context.Context, record *transfer.Record) error {
	collection := r.db.Collection(TransferCollectionName)

	// Check if record already exists
	existingRecord, err := r.GetByID(ctx, record.ID)
	if err != nil && !errors.Is(err, transfer.ErrRecordNotFound{}) {
		r.logger.Error("Failed to check for existing transfer record",
			"transfer_id", record.ID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing transfer record: %w", err)
	}

	if existingRecord != nil {
		return transfer.ErrDuplicateRecord{TransferID: record.ID}
	}

	_, err = collection.InsertOne(ctx, record)
	if err != nil {
		r.logger.Error("Failed to create transfer record",
			"transfer_id", record.ID.String(),
			"error", err)
		return fmt.Errorf("failed to create transfer record: %w", err)
	}

	return nil
}

// GetByID retrieves a transfer record by its ID.
// Returns ErrRecordNotFound if no record exists for the given transfer.
func (r *TransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*transfer.Record, error) {
	collection := r.db.Collection(TransferCollectionName)

	filter := bson.M{"transfer_id": id}
	var record transfer.Record
	err := collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, transfer.ErrRecordNotFound{TransferID: id}
		}
		r.logger.Error("Failed to get transfer record",
			"transfer_id", id.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get transfer record: %w", err)
	}

	return &record, nil
}

// GetByAccountID retrieves paginated transfer records where the account is
// either the sender or the receiver, newest first.
func (r *TransferRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transfer.Record, error) {
	collection := r.db.Collection(TransferCollectionName)

	filter := accountFilter(accountID)
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}). // Sort by created_at in descending order
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get transfer records",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get transfer records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*transfer.Record
	if err := cursor.All(ctx, &records); err != nil {
		r.logger.Error("Failed to decode transfer records",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode transfer records: %w", err)
	}

	return records, nil
}

// CountByAccountID counts transfer records where the account is either side
func (r *TransferRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	collection := r.db.Collection(TransferCollectionName)

	count, err := collection.CountDocuments(ctx, accountFilter(accountID))
	if err != nil {
		r.logger.Error("Failed to count transfer records",
			"account_id", accountID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count transfer records: %w", err)
	}

	return count, nil
}

func accountFilter(accountID uuid.UUID) bson.M {
	return bson.M{
		"$or": []bson.M{
			{"sender_id": accountID},
			{"receiver_id": accountID},
		},
	}
}
