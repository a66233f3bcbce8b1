package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/mfi_ledger/internal/apperrors"
	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATE codes the repositories translate into application errors.
const (
	pgUniqueViolation      = "23505"
	pgExclusionViolation   = "23P01"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

const accountsCodeConstraint = "uq_accounts_code"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// Begin starts a new database transaction
func (r *BaseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (r *BaseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		if mapped := mapError(err, "commit"); errors.Is(mapped, apperrors.ErrConflict) {
			return mapped
		}
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}

// Rollback rolls back a transaction
func (r *BaseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return apperrors.NewAppError(500, "failed to rollback transaction", err)
	}
	return nil
}

// mapError translates driver errors into the apperrors categories. what names
// the operation for the wrapped message.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", apperrors.ErrNotFound, what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if pgErr.ConstraintName == accountsCodeConstraint {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateCode, pgErr.Detail)
			}
			return fmt.Errorf("%w: %s: %s", apperrors.ErrDuplicate, what, pgErr.ConstraintName)
		case pgExclusionViolation:
			return fmt.Errorf("%w: %s", domain.ErrPeriodOverlap, pgErr.Detail)
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return fmt.Errorf("%w: %s: %s", apperrors.ErrConflict, what, pgErr.Message)
		}
	}
	return fmt.Errorf("failed to %s: %w", what, err)
}

// expectOneRow turns a zero-row optimistic update into ErrConflict.
func expectOneRow(tag pgconn.CommandTag, what string, id string, version int64) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s changed since version %d", apperrors.ErrConflict, what, id, version)
	}
	return nil
}

// expectRowUpdated is expectOneRow for rows the transaction already holds
// locked; a missing row still means someone else got there first.
func expectRowUpdated(tag pgconn.CommandTag, what string, id string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s was not updated", apperrors.ErrConflict, what, id)
	}
	return nil
}

// nullString maps "" to SQL NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// derefString maps SQL NULL to "".
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
