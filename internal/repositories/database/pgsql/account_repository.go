package pgsql

import (
	"context"
	"sort"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

const accountColumns = `account_id, code, name, account_type, parent_account_id, level, is_header,
	allow_direct_posting, description, status, debit_balance, credit_balance, balance,
	created_at, created_by, last_updated_at, last_updated_by, version`

func scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	var parentID *string
	err := row.Scan(
		&a.AccountID, &a.Code, &a.Name, &a.AccountType, &parentID, &a.Level, &a.IsHeader,
		&a.AllowDirectPosting, &a.Description, &a.Status, &a.DebitBalance, &a.CreditBalance, &a.Balance,
		&a.CreatedAt, &a.CreatedBy, &a.LastUpdatedAt, &a.LastUpdatedBy, &a.Version,
	)
	a.ParentAccountID = derefString(parentID)
	return a, err
}

func collectAccounts(rows pgx.Rows, what string) ([]domain.Account, error) {
	defer rows.Close()
	accounts := []domain.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, mapError(err, "scan account row")
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, what)
	}
	return accounts, nil
}

func (r *PgxAccountRepository) findOne(ctx context.Context, q querier, query string, arg any, what string) (*domain.Account, error) {
	a, err := scanAccount(q.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapError(err, what)
	}
	return &a, nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`
	return r.findOne(ctx, r.Pool, query, accountID, "find account "+accountID)
}

// FindAccountByCode retrieves an account by its unique code.
func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE code = $1;`
	return r.findOne(ctx, r.Pool, query, code, "find account by code "+code)
}

// FindAccountByIDTx reads an account inside tx without locking the row.
func (r *PgxAccountRepository) FindAccountByIDTx(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`
	return r.findOne(ctx, tx, query, accountID, "find account "+accountID)
}

// FindAccountByCodeTx resolves a code inside tx without locking the row.
func (r *PgxAccountRepository) FindAccountByCodeTx(ctx context.Context, tx pgx.Tx, code string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE code = $1;`
	return r.findOne(ctx, tx, query, code, "find account by code "+code)
}

// ListAccounts retrieves a page of accounts ordered by code.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY code LIMIT $1 OFFSET $2;`
	rows, err := r.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, mapError(err, "list accounts")
	}
	return collectAccounts(rows, "list accounts")
}

// ListAllAccounts retrieves the whole chart ordered by code.
func (r *PgxAccountRepository) ListAllAccounts(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY code;`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, mapError(err, "list all accounts")
	}
	return collectAccounts(rows, "list all accounts")
}

// SaveAccountTx inserts a new account.
func (r *PgxAccountRepository) SaveAccountTx(ctx context.Context, tx pgx.Tx, a domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	_, err := tx.Exec(ctx, query,
		a.AccountID, a.Code, a.Name, a.AccountType, nullString(a.ParentAccountID), a.Level, a.IsHeader,
		a.AllowDirectPosting, a.Description, a.Status, a.DebitBalance, a.CreditBalance, a.Balance,
		a.CreatedAt, a.CreatedBy, a.LastUpdatedAt, a.LastUpdatedBy, a.Version,
	)
	if err != nil {
		return mapError(err, "save account "+a.Code)
	}
	return nil
}

// UpdateAccountTx writes the mutable account fields if the stored version matches.
func (r *PgxAccountRepository) UpdateAccountTx(ctx context.Context, tx pgx.Tx, a domain.Account) error {
	query := `
		UPDATE accounts
		SET name = $1, description = $2, status = $3, is_header = $4, allow_direct_posting = $5,
		    last_updated_at = $6, last_updated_by = $7, version = version + 1
		WHERE account_id = $8 AND version = $9;
	`
	tag, err := tx.Exec(ctx, query,
		a.Name, a.Description, a.Status, a.IsHeader, a.AllowDirectPosting,
		a.LastUpdatedAt, a.LastUpdatedBy, a.AccountID, a.Version,
	)
	if err != nil {
		return mapError(err, "update account "+a.AccountID)
	}
	return expectOneRow(tag, "account", a.AccountID, a.Version)
}

// FindAccountForUpdate selects one account and locks its row.
func (r *PgxAccountRepository) FindAccountForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1 FOR UPDATE;`
	return r.findOne(ctx, tx, query, accountID, "lock account "+accountID)
}

// FindAccountsByIDsForUpdate locks the given accounts. Rows are locked in
// account_id order so concurrent postings touching overlapping accounts
// cannot deadlock.
func (r *PgxAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}
	ids := append([]string(nil), accountIDs...)
	sort.Strings(ids)

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ANY($1) ORDER BY account_id FOR UPDATE;`
	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, mapError(err, "lock accounts")
	}
	accounts, err := collectAccounts(rows, "lock accounts")
	if err != nil {
		return nil, err
	}
	accountsMap := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		accountsMap[a.AccountID] = a
	}
	return accountsMap, nil
}

// UpdateAccountBalancesTx stores new balances of accounts already locked in tx.
func (r *PgxAccountRepository) UpdateAccountBalancesTx(ctx context.Context, tx pgx.Tx, accounts []domain.Account) error {
	if len(accounts) == 0 {
		return nil
	}
	query := `
		UPDATE accounts
		SET debit_balance = $1, credit_balance = $2, balance = $3,
		    last_updated_at = $4, last_updated_by = $5, version = version + 1
		WHERE account_id = $6;
	`
	batch := &pgx.Batch{}
	for _, a := range accounts {
		batch.Queue(query, a.DebitBalance, a.CreditBalance, a.Balance, a.LastUpdatedAt, a.LastUpdatedBy, a.AccountID)
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for _, a := range accounts {
		tag, err := br.Exec()
		if err != nil {
			return mapError(err, "update balance of account "+a.AccountID)
		}
		if err := expectRowUpdated(tag, "balance of account", a.AccountID); err != nil {
			return err
		}
	}
	return nil
}
