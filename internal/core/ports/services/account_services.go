package services

import (
	"context"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/SscSPs/mfi_ledger/internal/dto"
)

// AccountReaderSvc defines read operations for the chart of accounts
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account by its unique identifier.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// GetAccountByCode resolves an account through the code index.
	GetAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// ListAccounts retrieves a page of accounts ordered by code.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)

	// GetAccountTree builds the id-keyed tree with rolled-up header balances.
	GetAccountTree(ctx context.Context) (*domain.AccountTree, error)
}

// AccountWriterSvc defines write operations for the chart of accounts
type AccountWriterSvc interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error)
	UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error)
	ActivateAccount(ctx context.Context, accountID string, userID string) (*domain.Account, error)
	DeactivateAccount(ctx context.Context, accountID string, userID string) (*domain.Account, error)
	CloseAccount(ctx context.Context, accountID string, userID string) (*domain.Account, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
