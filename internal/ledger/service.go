// Package ledger implements the funds transfer service. It is the only
// component allowed to mutate account balances, and it guarantees that a
// debit and its matching credit commit together or not at all.
package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/marketplace-ledger/internal/config"
	"github.com/marketplace-ledger/internal/domain/account"
	"github.com/marketplace-ledger/internal/domain/outbox"
	"github.com/marketplace-ledger/internal/domain/transfer"
)

// Common errors
var (
	ErrInvalidAmount    = errors.New("transfer amount must be a positive integer")
	ErrSameAccount      = errors.New("sender and receiver must be distinct accounts")
	ErrTransferConflict = errors.New("transfer aborted after exhausting retries")
)

// TxRunner executes a function inside a database transaction.
// persistence.PostgresDB satisfies this interface.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// Request carries one transfer attempt through the service
type Request struct {
	TransferID    uuid.UUID
	SenderID      uuid.UUID
	ReceiverID    uuid.UUID
	ProductID     string
	Amount        int64 // Stored in cents/minor units
	CorrelationID string
	Timestamp     time.Time
}

// Service moves funds between two accounts and appends an immutable
// transfer record reflecting the outcome of every attempt that reaches
// the mutation stage.
type Service struct {
	db           TxRunner
	accountRepo  account.Repository
	outboxRepo   outbox.Repository
	transferRepo transfer.Repository
	logger       *slog.Logger
	maxRetries   int
	retryDelay   time.Duration
}

// NewService creates a new ledger transfer service
func NewService(
	db TxRunner,
	accountRepo account.Repository,
	outboxRepo outbox.Repository,
	transferRepo transfer.Repository,
	logger *slog.Logger,
	cfg *config.TransferConfig,
) *Service {
	return &Service{
		db:           db,
		accountRepo:  accountRepo,
		outboxRepo:   outboxRepo,
		transferRepo: transferRepo,
		logger:       logger,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
	}
}

// Transfer atomically debits the sender and credits the receiver, then
// appends a transfer record. Validation failures (non-positive amount,
// identical accounts, missing account) reject the attempt without writing
// a record; every failure after that point leaves a FAILED record behind.
func (s *Service) Transfer(ctx context.Context, req *Request) (*transfer.Record, error) {
	logger := s.logger
	if req.CorrelationID != "" {
		logger = s.logger.With("correlation_id", req.CorrelationID)
	}

	if req.TransferID == uuid.Nil {
		req.TransferID = uuid.New()
	}

	if req.Amount <= 0 {
		logger.Warn("Rejected transfer with non-positive amount", "transfer_id", req.TransferID.String(), "amount", req.Amount)
		return nil, ErrInvalidAmount
	}
	if req.SenderID == req.ReceiverID {
		logger.Warn("Rejected transfer between identical accounts", "transfer_id", req.TransferID.String(), "account_id", req.SenderID.String())
		return nil, ErrSameAccount
	}

	logger.Info("Processing transfer",
		"transfer_id", req.TransferID.String(),
		"sender_id", req.SenderID.String(),
		"receiver_id", req.ReceiverID.String(),
		"amount", req.Amount,
	)

	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
			return s.executeTransfer(ctx, tx, req)
		})
		if err == nil || !isRetryable(err) {
			break
		}

		logger.Warn("Transfer attempt hit transient contention, retrying",
			"transfer_id", req.TransferID.String(),
			"attempt", attempt,
			"error", err,
		)

		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(s.retryDelay * time.Duration(attempt)):
		}
		if ctx.Err() != nil {
			break
		}
	}

	switch {
	case err == nil:
		record := transfer.NewSucceededRecord(req.TransferID, req.SenderID, req.ReceiverID, req.ProductID, req.Amount, req.CorrelationID)
		s.appendRecord(ctx, logger, record)
		logger.Info("Transfer committed", "transfer_id", req.TransferID.String(), "amount", req.Amount)
		return record, nil

	case errors.Is(err, account.ErrAccountNotFound{}):
		// Missing account is a validation failure: nothing moved, no audit entry
		return nil, err

	case errors.Is(err, account.ErrInsufficientFunds):
		record := s.recordFailure(ctx, logger, req, transfer.FailureReasonInsufficientFunds)
		return record, account.ErrInsufficientFunds

	case isRetryable(err):
		logger.Error("Transfer failed after exhausting retries", "transfer_id", req.TransferID.String(), "error", err)
		record := s.recordFailure(ctx, logger, req, transfer.FailureReasonConflict)
		return record, fmt.Errorf("%w: %v", ErrTransferConflict, err)

	default:
		logger.Error("Transfer failed on storage error", "transfer_id", req.TransferID.String(), "error", err)
		record := s.recordFailure(ctx, logger, req, transfer.FailureReasonStorageFailure)
		return record, fmt.Errorf("transfer %s failed: %w", req.TransferID.String(), err)
	}
}

// executeTransfer runs the balance mutation inside one database
// transaction: lock both rows in a fixed global order, re-check the
// sender balance under the lock, then write both sides plus the outbox
// row so they commit together.
func (s *Service) executeTransfer(ctx context.Context, tx pgx.Tx, req *Request) error {
	repo := s.accountRepo.WithTx(tx)

	// Lock in ascending ID order so two opposite transfers on the same
	// pair cannot deadlock
	firstID, secondID := req.SenderID, req.ReceiverID
	if bytes.Compare(firstID[:], secondID[:]) > 0 {
		firstID, secondID = secondID, firstID
	}

	first, err := repo.LockForUpdate(ctx, firstID)
	if err != nil {
		return err
	}
	second, err := repo.LockForUpdate(ctx, secondID)
	if err != nil {
		return err
	}

	sender, receiver := first, second
	if sender.ID != req.SenderID {
		sender, receiver = second, first
	}

	// Authoritative balance check under the lock
	if !sender.CanDebit(req.Amount) {
		return account.ErrInsufficientFunds
	}

	if err := sender.Debit(req.Amount); err != nil {
		return err
	}
	if err := receiver.Credit(req.Amount); err != nil {
		return err
	}

	if err := repo.Update(ctx, sender); err != nil {
		return err
	}
	if err := repo.Update(ctx, receiver); err != nil {
		return err
	}

	record := transfer.NewSucceededRecord(req.TransferID, req.SenderID, req.ReceiverID, req.ProductID, req.Amount, req.CorrelationID)
	message, err := outbox.NewMessage(record)
	if err != nil {
		return fmt.Errorf("failed to build outbox message for transfer %s: %w", req.TransferID.String(), err)
	}
	if err := s.outboxRepo.WithTx(tx).Create(ctx, message); err != nil {
		return err
	}

	return nil
}

// appendRecord writes the terminal audit entry to the transfer log.
// Failures are logged but not surfaced: the committed outbox row
// guarantees the record still reaches the log via the poller.
func (s *Service) appendRecord(ctx context.Context, logger *slog.Logger, record *transfer.Record) {
	err := s.transferRepo.Create(ctx, record)
	if err != nil && !errors.Is(err, transfer.ErrDuplicateRecord{}) {
		logger.Error("Failed to append transfer record, deferring to outbox",
			"transfer_id", record.ID.String(),
			"error", err,
		)
	}
}

// recordFailure appends a FAILED transfer record so unsuccessful attempts
// stay auditable. Returns the record even when the append itself fails.
func (s *Service) recordFailure(ctx context.Context, logger *slog.Logger, req *Request, reason transfer.FailureReason) *transfer.Record {
	record := transfer.NewFailedRecord(req.TransferID, req.SenderID, req.ReceiverID, req.ProductID, req.Amount, reason, req.CorrelationID)

	err := s.transferRepo.Create(ctx, record)
	if err != nil && !errors.Is(err, transfer.ErrDuplicateRecord{}) {
		logger.Error("Failed to append failed transfer record",
			"transfer_id", record.ID.String(),
			"reason", string(reason),
			"error", err,
		)
	}
	return record
}

// GetTransfer retrieves one transfer record by its ID
func (s *Service) GetTransfer(ctx context.Context, id uuid.UUID) (*transfer.Record, error) {
	return s.transferRepo.GetByID(ctx, id)
}

// ListAccountTransfers retrieves the paginated transfer history for an
// account, newest first. Returns records, total count, and any error.
func (s *Service) ListAccountTransfers(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*transfer.Record, int64, error) {
	offset := (page - 1) * perPage

	records, err := s.transferRepo.GetByAccountID(ctx, accountID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.transferRepo.CountByAccountID(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// isRetryable reports whether the transfer transaction failed on transient
// contention worth another attempt: an optimistic version miss or a
// serialization/deadlock abort from the database.
func isRetryable(err error) bool {
	if errors.Is(err, account.ErrConcurrentModification{}) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}

	return false
}
