package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marketplace-ledger/internal/domain/account"
	"github.com/marketplace-ledger/internal/domain/transfer"
	"github.com/marketplace-ledger/internal/ledger"
	"github.com/marketplace-ledger/internal/server/middleware"
)

// PaymentService executes buyer-to-seller transfers and exposes the
// transfer audit log. *ledger.Service satisfies this interface.
type PaymentService interface {
	Transfer(ctx context.Context, req *ledger.Request) (*transfer.Record, error)
	GetTransfer(ctx context.Context, id uuid.UUID) (*transfer.Record, error)
	ListAccountTransfers(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*transfer.Record, int64, error)
}

// PaymentHandler handles HTTP requests for payments and transfer history
type PaymentHandler struct {
	paymentService PaymentService
	logger         *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(logger *slog.Logger, paymentService PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// Create executes a payment from buyer to seller and returns the
// resulting transfer record. The outcome maps onto HTTP statuses:
// missing account 404, invalid amount or insufficient funds 400,
// contention after retries 409, storage failure 500.
func (h *PaymentHandler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	buyerID, err := uuid.Parse(req.BuyerID)
	if err != nil {
		h.logger.Error("Invalid buyer ID", "buyer_id", req.BuyerID, "error", err)
		RespondBadRequest(c, "Invalid buyer ID")
		return
	}
	sellerID, err := uuid.Parse(req.SellerID)
	if err != nil {
		h.logger.Error("Invalid seller ID", "seller_id", req.SellerID, "error", err)
		RespondBadRequest(c, "Invalid seller ID")
		return
	}

	transferRequest := &ledger.Request{
		TransferID:    uuid.New(),
		SenderID:      buyerID,
		ReceiverID:    sellerID,
		ProductID:     req.ProductID,
		Amount:        req.Amount,
		CorrelationID: middleware.GetCorrelationID(c),
		Timestamp:     time.Now(),
	}

	record, err := h.paymentService.Transfer(c.Request.Context(), transferRequest)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrAccountNotFound{}):
			RespondNotFound(c, "Account not found")
		case errors.Is(err, ledger.ErrInvalidAmount):
			RespondBadRequest(c, "Payment amount must be a positive integer")
		case errors.Is(err, ledger.ErrSameAccount):
			RespondBadRequest(c, "Buyer and seller must be different accounts")
		case errors.Is(err, account.ErrInsufficientFunds):
			RespondBadRequest(c, "Insufficient funds")
		case errors.Is(err, ledger.ErrTransferConflict):
			RespondConflict(c, "Payment aborted due to concurrent activity, please retry")
		default:
			h.logger.Error("Payment failed", "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondOK(c, PaymentResponse{
		Message: "Payment successful",
		Payment: mapRecordToResponse(record),
	})
}

// GetByID retrieves a transfer record by its ID, returns 404 if not found
func (h *PaymentHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid transfer ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transfer ID")
		return
	}

	record, err := h.paymentService.GetTransfer(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, transfer.ErrRecordNotFound{}) {
			RespondNotFound(c, "Transfer not found")
			return
		}
		h.logger.Error("Failed to get transfer", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapRecordToResponse(record))
}

// GetByAccountID retrieves paginated transfer history for an account
func (h *PaymentHandler) GetByAccountID(c *gin.Context) {
	accountIDParam := c.Param("id")
	accountID, err := uuid.Parse(accountIDParam)
	if err != nil {
		h.logger.Error("Invalid account ID", "account_id", accountIDParam, "error", err)
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	records, total, err := h.paymentService.ListAccountTransfers(
		c.Request.Context(),
		accountID,
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		h.logger.Error("Failed to get transfers", "account_id", accountIDParam, "error", err)
		RespondInternalError(c)
		return
	}

	transfers := make([]TransferRecord, 0, len(records))
	for _, record := range records {
		transfers = append(transfers, mapRecordToResponse(record))
	}

	RespondWithPaginatedData(c, http.StatusOK, transfers, pagination.Page, pagination.PerPage, int(total))
}

// mapRecordToResponse maps a transfer record to its response DTO
func mapRecordToResponse(record *transfer.Record) TransferRecord {
	return TransferRecord{
		TransferID:    record.ID.String(),
		SenderID:      record.SenderID.String(),
		ReceiverID:    record.ReceiverID.String(),
		ProductID:     record.ProductID,
		Amount:        record.Amount,
		Status:        string(record.Status),
		FailureReason: string(record.FailureReason),
		CreatedAt:     record.CreatedAt.Format(time.RFC3339),
	}
}
