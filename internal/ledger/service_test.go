package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketplace-ledger/internal/config"
	"github.com/marketplace-ledger/internal/domain/account"
	"github.com/marketplace-ledger/internal/domain/outbox"
	"github.com/marketplace-ledger/internal/domain/transfer"
)

// Mock implementations of the dependencies

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) Update(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return m
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status outbox.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

type MockTransferRepository struct {
	mock.Mock
}

func (m *MockTransferRepository) Create(ctx context.Context, record *transfer.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockTransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*transfer.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Record), args.Error(1)
}

func (m *MockTransferRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transfer.Record, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transfer.Record), args.Error(1)
}

func (m *MockTransferRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

// stubTxRunner drives ExecuteTx without a real database. Queued errors
// are returned before the callback runs, emulating transaction aborts.
type stubTxRunner struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (r *stubTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	r.mu.Lock()
	r.calls++
	var queued error
	if len(r.errs) > 0 {
		queued = r.errs[0]
		r.errs = r.errs[1:]
	}
	r.mu.Unlock()

	if queued != nil {
		return queued
	}
	return fn(nil)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.TransferConfig {
	return &config.TransferConfig{MaxRetries: 3, RetryDelay: time.Millisecond}
}

func newTestService(db TxRunner, accountRepo account.Repository, outboxRepo outbox.Repository, transferRepo transfer.Repository) *Service {
	return NewService(db, accountRepo, outboxRepo, transferRepo, testLogger(), testConfig())
}

func TestService_Transfer_Success(t *testing.T) {
	senderID := uuid.New()
	receiverID := uuid.New()
	sender := &account.Account{ID: senderID, Balance: 10000, Version: 1}
	receiver := &account.Account{ID: receiverID, Balance: 500, Version: 1}

	accountRepo := new(MockAccountRepository)
	outboxRepo := new(MockOutboxRepository)
	transferRepo := new(MockTransferRepository)
	db := &stubTxRunner{}

	accountRepo.On("LockForUpdate", mock.Anything, senderID).Return(sender, nil)
	accountRepo.On("LockForUpdate", mock.Anything, receiverID).Return(receiver, nil)
	accountRepo.On("Update", mock.Anything, sender).Return(nil)
	accountRepo.On("Update", mock.Anything, receiver).Return(nil)
	outboxRepo.On("Create", mock.Anything, mock.AnythingOfType("*outbox.Message")).Return(nil)
	transferRepo.On("Create", mock.Anything, mock.AnythingOfType("*transfer.Record")).Return(nil)

	service := newTestService(db, accountRepo, outboxRepo, transferRepo)
	record, err := service.Transfer(context.Background(), &Request{
		SenderID:   senderID,
		ReceiverID: receiverID,
		ProductID:  "prod-1",
		Amount:     2500,
	})

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, transfer.StatusSucceeded, record.Status)
	assert.Equal(t, int64(2500), record.Amount)

	// Both sides moved by the same amount
	assert.Equal(t, int64(7500), sender.Balance)
	assert.Equal(t, int64(3000), receiver.Balance)
	assert.Equal(t, 1, db.calls)

	accountRepo.AssertExpectations(t)
	outboxRepo.AssertExpectations(t)
	transferRepo.AssertExpectations(t)
}

func TestService_Transfer_ValidationRejections(t *testing.T) {
	t.Run("NonPositiveAmount", func(t *testing.T) {
		transferRepo := new(MockTransferRepository)
		db := &stubTxRunner{}
		service := newTestService(db, new(MockAccountRepository), new(MockOutboxRepository), transferRepo)

		for _, amount := range []int64{0, -1, -1000} {
			record, err := service.Transfer(context.Background(), &Request{
				SenderID:   uuid.New(),
				ReceiverID: uuid.New(),
				Amount:     amount,
			})

			assert.ErrorIs(t, err, ErrInvalidAmount)
			assert.Nil(t, record)
		}

		// Rejected attempts never reach storage and leave no audit entry
		assert.Equal(t, 0, db.calls)
		transferRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("IdenticalAccounts", func(t *testing.T) {
		transferRepo := new(MockTransferRepository)
		db := &stubTxRunner{}
		service := newTestService(db, new(MockAccountRepository), new(MockOutboxRepository), transferRepo)

		id := uuid.New()
		record, err := service.Transfer(context.Background(), &Request{
			SenderID:   id,
			ReceiverID: id,
			Amount:     100,
		})

		assert.ErrorIs(t, err, ErrSameAccount)
		assert.Nil(t, record)
		assert.Equal(t, 0, db.calls)
		transferRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestService_Transfer_AccountNotFound(t *testing.T) {
	senderID := uuid.New()
	receiverID := uuid.New()

	accountRepo := new(MockAccountRepository)
	transferRepo := new(MockTransferRepository)

	accountRepo.On("LockForUpdate", mock.Anything, mock.Anything).
		Return(nil, account.ErrAccountNotFound{AccountID: receiverID})

	service := newTestService(&stubTxRunner{}, accountRepo, new(MockOutboxRepository), transferRepo)
	record, err := service.Transfer(context.Background(), &Request{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     100,
	})

	assert.ErrorIs(t, err, account.ErrAccountNotFound{})
	assert.Nil(t, record, "Missing account leaves no audit entry")
	transferRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Transfer_InsufficientFunds(t *testing.T) {
	senderID := uuid.New()
	receiverID := uuid.New()
	sender := &account.Account{ID: senderID, Balance: 50, Version: 1}
	receiver := &account.Account{ID: receiverID, Balance: 0, Version: 1}

	accountRepo := new(MockAccountRepository)
	transferRepo := new(MockTransferRepository)

	accountRepo.On("LockForUpdate", mock.Anything, senderID).Return(sender, nil)
	accountRepo.On("LockForUpdate", mock.Anything, receiverID).Return(receiver, nil)
	transferRepo.On("Create", mock.Anything, mock.AnythingOfType("*transfer.Record")).Return(nil)

	service := newTestService(&stubTxRunner{}, accountRepo, new(MockOutboxRepository), transferRepo)
	record, err := service.Transfer(context.Background(), &Request{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     100,
	})

	assert.ErrorIs(t, err, account.ErrInsufficientFunds)
	require.NotNil(t, record, "Insufficient funds leaves a FAILED audit entry")
	assert.Equal(t, transfer.StatusFailed, record.Status)
	assert.Equal(t, transfer.FailureReasonInsufficientFunds, record.FailureReason)

	// Balances untouched
	assert.Equal(t, int64(50), sender.Balance)
	assert.Equal(t, int64(0), receiver.Balance)
	accountRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	transferRepo.AssertExpectations(t)
}

func TestService_Transfer_ConflictRetriesExhausted(t *testing.T) {
	conflict := account.ErrConcurrentModification{AccountID: uuid.New()}
	db := &stubTxRunner{errs: []error{conflict, conflict, conflict}}

	transferRepo := new(MockTransferRepository)
	transferRepo.On("Create", mock.Anything, mock.AnythingOfType("*transfer.Record")).Return(nil)

	service := newTestService(db, new(MockAccountRepository), new(MockOutboxRepository), transferRepo)
	record, err := service.Transfer(context.Background(), &Request{
		SenderID:   uuid.New(),
		ReceiverID: uuid.New(),
		Amount:     100,
	})

	assert.ErrorIs(t, err, ErrTransferConflict)
	require.NotNil(t, record)
	assert.Equal(t, transfer.StatusFailed, record.Status)
	assert.Equal(t, transfer.FailureReasonConflict, record.FailureReason)
	assert.Equal(t, 3, db.calls, "Should attempt exactly MaxRetries times")
}

func TestService_Transfer_RetrySucceedsAfterConflict(t *testing.T) {
	senderID := uuid.New()
	receiverID := uuid.New()
	sender := &account.Account{ID: senderID, Balance: 1000, Version: 1}
	receiver := &account.Account{ID: receiverID, Balance: 0, Version: 1}

	accountRepo := new(MockAccountRepository)
	outboxRepo := new(MockOutboxRepository)
	transferRepo := new(MockTransferRepository)
	db := &stubTxRunner{errs: []error{account.ErrConcurrentModification{AccountID: senderID}}}

	accountRepo.On("LockForUpdate", mock.Anything, senderID).Return(sender, nil)
	accountRepo.On("LockForUpdate", mock.Anything, receiverID).Return(receiver, nil)
	accountRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	outboxRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	transferRepo.On("Create", mock.Anything, mock.AnythingOfType("*transfer.Record")).Return(nil)

	service := newTestService(db, accountRepo, outboxRepo, transferRepo)
	record, err := service.Transfer(context.Background(), &Request{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     400,
	})

	require.NoError(t, err)
	assert.Equal(t, transfer.StatusSucceeded, record.Status)
	assert.Equal(t, 2, db.calls)
	assert.Equal(t, int64(600), sender.Balance)
	assert.Equal(t, int64(400), receiver.Balance)
}

func TestService_Transfer_StorageFailure(t *testing.T) {
	db := &stubTxRunner{errs: []error{errors.New("connection refused")}}

	transferRepo := new(MockTransferRepository)
	transferRepo.On("Create", mock.Anything, mock.AnythingOfType("*transfer.Record")).Return(nil)

	service := newTestService(db, new(MockAccountRepository), new(MockOutboxRepository), transferRepo)
	record, err := service.Transfer(context.Background(), &Request{
		SenderID:   uuid.New(),
		ReceiverID: uuid.New(),
		Amount:     100,
	})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTransferConflict)
	require.NotNil(t, record)
	assert.Equal(t, transfer.FailureReasonStorageFailure, record.FailureReason)
	assert.Equal(t, 1, db.calls, "Non-retryable errors should not be retried")
}

func TestService_Transfer_LockOrdering(t *testing.T) {
	// Pick two IDs with a known byte order
	lowID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	highID := uuid.MustParse("ffffffff-ffff-ffff-ffff-fffffffffffe")

	run := func(t *testing.T, senderID, receiverID uuid.UUID, senderBalance int64) []uuid.UUID {
		var lockOrder []uuid.UUID

		accountRepo := new(MockAccountRepository)
		outboxRepo := new(MockOutboxRepository)
		transferRepo := new(MockTransferRepository)

		accountRepo.On("LockForUpdate", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				lockOrder = append(lockOrder, args.Get(1).(uuid.UUID))
			}).
			Return(&account.Account{ID: senderID, Balance: senderBalance, Version: 1}, nil).Once()
		accountRepo.On("LockForUpdate", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				lockOrder = append(lockOrder, args.Get(1).(uuid.UUID))
			}).
			Return(&account.Account{ID: receiverID, Balance: 0, Version: 1}, nil).Once()
		accountRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
		outboxRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		transferRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		service := newTestService(&stubTxRunner{}, accountRepo, outboxRepo, transferRepo)
		_, err := service.Transfer(context.Background(), &Request{
			SenderID:   senderID,
			ReceiverID: receiverID,
			Amount:     100,
		})
		require.NoError(t, err)
		return lockOrder
	}

	t.Run("SenderFirstWhenLower", func(t *testing.T) {
		order := run(t, lowID, highID, 1000)
		require.Len(t, order, 2)
		assert.Equal(t, lowID, order[0])
		assert.Equal(t, highID, order[1])
	})

	t.Run("ReceiverFirstWhenLower", func(t *testing.T) {
		order := run(t, highID, lowID, 1000)
		require.Len(t, order, 2)
		assert.Equal(t, lowID, order[0], "Locks must be acquired in ascending ID order")
		assert.Equal(t, highID, order[1])
	})
}

// In-memory account store used to exercise the conservation property
// under concurrent transfers. The serialized TxRunner stands in for the
// database's row locks.
type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*account.Account
}

func (r *memAccountRepo) Create(ctx context.Context, acc *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *acc
	r.accounts[acc.ID] = &copy
	return nil
}

func (r *memAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}
	copy := *acc
	return &copy, nil
}

func (r *memAccountRepo) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	return nil, nil
}

func (r *memAccountRepo) Update(ctx context.Context, acc *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *acc
	r.accounts[acc.ID] = &copy
	return nil
}

func (r *memAccountRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *memAccountRepo) WithTx(tx pgx.Tx) account.Repository {
	return r
}

// serialTxRunner serializes transactions with a single mutex, matching
// the isolation the pessimistic row locks provide against this workload
type serialTxRunner struct {
	mu sync.Mutex
}

func (r *serialTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(nil)
}

func TestService_Transfer_ConcurrentConservation(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	repo := &memAccountRepo{accounts: make(map[uuid.UUID]*account.Account)}
	for _, id := range ids {
		require.NoError(t, repo.Create(context.Background(), &account.Account{ID: id, Balance: 10000, Version: 1}))
	}
	totalBefore := int64(3 * 10000)

	outboxRepo := new(MockOutboxRepository)
	outboxRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	transferRepo := new(MockTransferRepository)
	transferRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	service := newTestService(&serialTxRunner{}, repo, outboxRepo, transferRepo)

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			sender := ids[i%3]
			receiver := ids[(i+1)%3]
			_, err := service.Transfer(context.Background(), &Request{
				SenderID:   sender,
				ReceiverID: receiver,
				Amount:     int64(100 + i),
			})
			// Insufficient funds is an acceptable outcome under contention
			if err != nil {
				assert.ErrorIs(t, err, account.ErrInsufficientFunds)
			}
		}()
	}
	wg.Wait()

	var totalAfter int64
	for _, id := range ids {
		acc, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, acc.Balance, int64(0), "No account may be overdrawn")
		totalAfter += acc.Balance
	}
	assert.Equal(t, totalBefore, totalAfter, "Transfers must conserve the total balance")
}

func TestService_ListAccountTransfers(t *testing.T) {
	accountID := uuid.New()
	records := []*transfer.Record{
		transfer.NewSucceededRecord(uuid.New(), accountID, uuid.New(), "", 100, ""),
		transfer.NewSucceededRecord(uuid.New(), uuid.New(), accountID, "", 200, ""),
	}

	transferRepo := new(MockTransferRepository)
	transferRepo.On("GetByAccountID", mock.Anything, accountID, 10, 10).Return(records, nil)
	transferRepo.On("CountByAccountID", mock.Anything, accountID).Return(int64(12), nil)

	service := newTestService(&stubTxRunner{}, new(MockAccountRepository), new(MockOutboxRepository), transferRepo)
	got, total, err := service.ListAccountTransfers(context.Background(), accountID, 2, 10)

	require.NoError(t, err)
	assert.Equal(t, records, got)
	assert.Equal(t, int64(12), total)
	transferRepo.AssertExpectations(t)
}
