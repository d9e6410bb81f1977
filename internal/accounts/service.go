// Package accounts provides account provisioning and lookup. Balance
// mutation is deliberately absent here: only the ledger transfer service
// writes balances.
package accounts

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace-ledger/internal/domain/account"
)

// Service manages account lifecycle operations
type Service struct {
	accountRepo account.Repository
}

// NewService creates a new account service
func NewService(accountRepo account.Repository) *Service {
	return &Service{
		accountRepo: accountRepo,
	}
}

// CreateAccount creates a new account with the given details, rejecting
// duplicate email addresses
func (s *Service) CreateAccount(ctx context.Context, ownerName string, email string, initialBalance int64) (*account.Account, error) {
	existingAccount, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existingAccount != nil {
		return nil, account.ErrDuplicateEmail{Email: email}
	}

	acc, err := account.NewAccount(ownerName, email, initialBalance)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	return acc, nil
}

// GetAccountByID retrieves an account by its ID, returns ErrAccountNotFound if not found
func (s *Service) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}
