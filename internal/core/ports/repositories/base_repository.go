package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager is the raw transaction control a UnitOfWork is built on.
type TransactionManager interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Commit(ctx context.Context, tx pgx.Tx) error
	// Rollback is a no-op on a transaction that already ended.
	Rollback(ctx context.Context, tx pgx.Tx) error
}

// TxFunc is the body of a unit of work.
type TxFunc func(ctx context.Context, tx pgx.Tx) error

// UnitOfWork runs a function inside one database transaction. The function is
// committed atomically or not at all. Lock contention and optimistic version
// conflicts are retried a bounded number of times and then surface as
// apperrors.ErrConflict, so fn must be safe to run more than once.
type UnitOfWork interface {
	Do(ctx context.Context, fn TxFunc) error
}
