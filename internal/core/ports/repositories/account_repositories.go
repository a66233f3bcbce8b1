package repositories

import (
	"context"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByCode resolves an account through its unique code.
	FindAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// ListAccounts retrieves a page of accounts ordered by code.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)

	// ListAllAccounts retrieves the whole chart, used to build the account tree.
	ListAllAccounts(ctx context.Context) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccountTx persists a new account.
	SaveAccountTx(ctx context.Context, tx pgx.Tx, account domain.Account) error

	// UpdateAccountTx writes the account if its stored version still equals account.Version.
	UpdateAccountTx(ctx context.Context, tx pgx.Tx, account domain.Account) error
}

// AccountTransactionSupport defines operations that support account transactions
type AccountTransactionSupport interface {
	// FindAccountForUpdate selects one account and locks its row.
	FindAccountForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error)

	// FindAccountsByIDsForUpdate locks the given accounts in id order.
	FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error)

	// FindAccountByIDTx reads an account inside the transaction without locking it.
	FindAccountByIDTx(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error)

	// FindAccountByCodeTx resolves a code inside the transaction.
	FindAccountByCodeTx(ctx context.Context, tx pgx.Tx, code string) (*domain.Account, error)

	// UpdateAccountBalancesTx stores new debit, credit and derived balances of locked accounts.
	UpdateAccountBalancesTx(ctx context.Context, tx pgx.Tx, accounts []domain.Account) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountTransactionSupport
}
