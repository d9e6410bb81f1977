package mongo

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/marketplace-ledger/internal/domain/transfer"
)

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

func TestNewTransferRepository(t *testing.T) {
	db := &mongo.Database{}
	logger := slog.Default()

	repo := NewTransferRepository(logger, db)

	assert.NotNil(t, repo)
	assert.IsType(t, &TransferRepository{}, repo)
}

func TestTransferRepository_Create(t *testing.T) {
	transferID := uuid.New()
	record := transfer.NewSucceededRecord(transferID, uuid.New(), uuid.New(), "prod-1", 2500, "corr-1")

	tests := []struct {
		name          string
		setupMocks    func(mockRepo *MockTransferRepository)
		expectedError error
	}{
		{
			name: "successful creation",
			setupMocks: func(mockRepo *MockTransferRepository) {
				mockRepo.On("Create", mock.Anything, record).Return(nil)
			},
			expectedError: nil,
		},
		{
			name: "duplicate record",
			setupMocks: func(mockRepo *MockTransferRepository) {
				mockRepo.On("Create", mock.Anything, record).Return(transfer.ErrDuplicateRecord{TransferID: transferID})
			},
			expectedError: transfer.ErrDuplicateRecord{TransferID: transferID},
		},
		{
			name: "database error",
			setupMocks: func(mockRepo *MockTransferRepository) {
				mockRepo.On("Create", mock.Anything, record).Return(errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockTransferRepository{}
			tt.setupMocks(mockRepo)

			err := mockRepo.Create(context.Background(), record)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTransferRepository_GetByID(t *testing.T) {
	transferID := uuid.New()
	record := transfer.NewSucceededRecord(transferID, uuid.New(), uuid.New(), "prod-1", 2500, "corr-1")

	tests := []struct {
		name           string
		setupMocks     func(mockRepo *MockTransferRepository)
		expectedRecord *transfer.Record
		expectedError  error
	}{
		{
			name: "record found",
			setupMocks: func(mockRepo *MockTransferRepository) {
				mockRepo.On("GetByID", mock.Anything, transferID).Return(record, nil)
			},
			expectedRecord: record,
			expectedError:  nil,
		},
		{
			name: "record not found",
			setupMocks: func(mockRepo *MockTransferRepository) {
				mockRepo.On("GetByID", mock.Anything, transferID).Return(nil, transfer.ErrRecordNotFound{TransferID: transferID})
			},
			expectedRecord: nil,
			expectedError:  transfer.ErrRecordNotFound{TransferID: transferID},
		},
		{
			name: "database error",
			setupMocks: func(mockRepo *MockTransferRepository) {
				mockRepo.On("GetByID", mock.Anything, transferID).Return(nil, errors.New("db error"))
			},
			expectedRecord: nil,
			expectedError:  errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockTransferRepository{}
			tt.setupMocks(mockRepo)

			result, err := mockRepo.GetByID(context.Background(), transferID)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedRecord, result)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAccountFilter(t *testing.T) {
	accountID := uuid.New()

	filter := accountFilter(accountID)

	or, ok := filter["$or"].([]bson.M)
	assert.True(t, ok)
	assert.Len(t, or, 2)
	assert.Equal(t, accountID, or[0]["sender_id"])
	assert.Equal(t, accountID, or[1]["receiver_id"])
}
