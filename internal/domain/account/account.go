package account

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds for debit")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrEmptyOwnerName    = errors.New("owner name cannot be empty")
	ErrInvalidEmail      = errors.New("email address is not valid")
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)

// Account represents a marketplace account holding a spendable balance.
// The balance is never negative and is mutated only through the ledger
// transfer write path.
type Account struct {
	ID        uuid.UUID `json:"id"`
	OwnerName string    `json:"owner_name"`
	Email     string    `json:"email"`
	Balance   int64     `json:"balance"` // Stored in cents/minor units
	Version   int       `json:"version"` // For optimistic locking
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAccount creates a new account with the given parameters
func NewAccount(ownerName string, email string, initialBalance int64) (*Account, error) {
	if ownerName == "" {
		return nil, ErrEmptyOwnerName
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if initialBalance < 0 {
		return nil, ErrInvalidAmount
	}

	return &Account{
		ID:        uuid.New(),
		OwnerName: ownerName,
		Email:     email,
		Balance:   initialBalance,
		Version:   1,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

// Credit adds the specified amount to the account balance
func (a *Account) Credit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	a.Balance += amount
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// Debit subtracts the specified amount from the account balance
func (a *Account) Debit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if a.Balance < amount {
		return ErrInsufficientFunds
	}

	a.Balance -= amount
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// CanDebit checks if the account has sufficient funds for a debit
func (a *Account) CanDebit(amount int64) bool {
	return a.Balance >= amount
}
