// Package events drains the transfer outbox: every committed transfer is
// guaranteed to reach the transfer log and the Kafka event stream even
// when the synchronous append was lost.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/marketplace-ledger/internal/domain/outbox"
	"github.com/marketplace-ledger/internal/domain/transfer"
	"github.com/marketplace-ledger/internal/platform/messaging/producers"
)

// TransferPublisher pushes one outbox message through to the transfer
// log and the event stream
type TransferPublisher interface {
	PublishTransfer(ctx context.Context, message *outbox.Message) error
}

// TransferPublisherImpl implements TransferPublisher
type TransferPublisherImpl struct {
	outboxRepo   outbox.Repository
	transferRepo transfer.Repository
	producer     producers.MessagePublisher
	logger       *slog.Logger
}

// NewTransferPublisher creates a new publisher
func NewTransferPublisher(
	outboxRepo outbox.Repository,
	transferRepo transfer.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) TransferPublisher {
	return &TransferPublisherImpl{
		outboxRepo:   outboxRepo,
		transferRepo: transferRepo,
		producer:     producer,
		logger:       logger,
	}
}

// PublishTransfer ensures the transfer record exists in the log, publishes
// the event to Kafka, and marks the outbox row processed. The record
// create tolerates duplicates because the transfer service usually wrote
// it already.
func (p *TransferPublisherImpl) PublishTransfer(ctx context.Context, message *outbox.Message) error {
	record, err := message.GetTransferRecord()
	if err != nil {
		p.logger.Error("Failed to unmarshal transfer record from outbox payload",
			"outbox_id", message.ID, "transfer_id", message.TransferID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if record.CorrelationID != "" {
		logger = p.logger.With("correlation_id", record.CorrelationID)
	}

	logger.Info("Publishing outbox transfer", "outbox_id", message.ID, "transfer_id", message.TransferID)

	// The synchronous append after commit normally wrote the record; this
	// backfills it after a crash or a transient log outage
	err = p.transferRepo.Create(ctx, record)
	if err != nil && !errors.Is(err, transfer.ErrDuplicateRecord{}) {
		logger.Error("Failed to ensure transfer record in log", "transfer_id", message.TransferID, "error", err)
		return fmt.Errorf("failed to ensure transfer record %s: %w", message.TransferID, err)
	}

	if err := p.producer.Publish(ctx, record.SenderID.String(), record); err != nil {
		logger.Error("Failed to publish transfer event", "transfer_id", message.TransferID, "error", err)
		return fmt.Errorf("failed to publish transfer event %s: %w", message.TransferID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusProcessed); err != nil {
		logger.Error("Failed to mark outbox message as PROCESSED",
			"outbox_id", message.ID, "transfer_id", message.TransferID, "error", err,
		)
		return fmt.Errorf("event for %s published, but failed to mark outbox %d as PROCESSED: %w", message.TransferID, message.ID, err)
	}

	logger.Info("Outbox transfer published and marked as PROCESSED", "outbox_id", message.ID, "transfer_id", message.TransferID)
	return nil
}
