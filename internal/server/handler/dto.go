package handler

// CreatePaymentRequest represents a request to pay a seller for a product
type CreatePaymentRequest struct {
	BuyerID   string `json:"buyerId" binding:"required,uuid"`
	SellerID  string `json:"sellerId" binding:"required,uuid"`
	ProductID string `json:"productId" binding:"required"`
	Amount    int64  `json:"amount" binding:"required"`
}

// PaymentResponse wraps the transfer record for the payment endpoint
type PaymentResponse struct {
	Message string         `json:"message"`
	Payment TransferRecord `json:"payment"`
}

// TransferRecord represents a transfer audit entry in API responses
type TransferRecord struct {
	TransferID    string `json:"transfer_id"`
	SenderID      string `json:"sender_id"`
	ReceiverID    string `json:"receiver_id"`
	ProductID     string `json:"product_id,omitempty"`
	Amount        int64  `json:"amount"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// CreateAccountRequest represents a request to create a new account
type CreateAccountRequest struct {
	OwnerName      string `json:"owner_name" binding:"required"`
	Email          string `json:"email" binding:"required"`
	InitialBalance int64  `json:"initial_balance" binding:"min=0"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID        string `json:"id"`
	OwnerName string `json:"owner_name"`
	Email     string `json:"email"`
	Balance   int64  `json:"balance"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// CreateProductRequest represents a request to create a catalog listing
type CreateProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
	Price       int64  `json:"price" binding:"min=0"`
	Image       string `json:"image"`
	Category    string `json:"category" binding:"required"`
	Stock       int    `json:"stock" binding:"min=0"`
	SellerID    string `json:"seller_id" binding:"required"`
}

// UpdateProductRequest represents a partial update to a catalog listing.
// Omitted fields keep their stored values.
type UpdateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       *int64 `json:"price"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	Stock       *int   `json:"stock"`
}

// ProductResponse represents a catalog listing in API responses
type ProductResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Image       string `json:"image,omitempty"`
	Category    string `json:"category"`
	Stock       int    `json:"stock"`
	SellerID    string `json:"seller_id"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ProductListResponse represents a product listing collection
type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
