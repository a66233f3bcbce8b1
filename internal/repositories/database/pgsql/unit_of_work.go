package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/mfi_ledger/internal/apperrors"
	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/mfi_ledger/internal/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxOptions tunes the unit of work.
type TxOptions struct {
	MaxAttempts  int
	LockTimeout  time.Duration
	RetryBackoff time.Duration
}

// DefaultTxOptions mirrors the configuration defaults.
var DefaultTxOptions = TxOptions{
	MaxAttempts:  3,
	LockTimeout:  2 * time.Second,
	RetryBackoff: 50 * time.Millisecond,
}

type pgxUnitOfWork struct {
	BaseRepository
	opts  TxOptions
	sleep func(ctx context.Context, d time.Duration) error
}

func newPgxUnitOfWork(pool *pgxpool.Pool, opts TxOptions) portsrepo.UnitOfWork {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &pgxUnitOfWork{
		BaseRepository: BaseRepository{Pool: pool},
		opts:           opts,
		sleep:          sleepCtx,
	}
}

var (
	_ portsrepo.UnitOfWork         = (*pgxUnitOfWork)(nil)
	_ portsrepo.TransactionManager = (*BaseRepository)(nil)
)

// Do runs fn in a transaction, retrying on ErrConflict with linear backoff.
func (u *pgxUnitOfWork) Do(ctx context.Context, fn portsrepo.TxFunc) error {
	return retryConflicts(ctx, u.opts, u.sleep, func() error {
		return u.attempt(ctx, fn)
	})
}

func (u *pgxUnitOfWork) attempt(ctx context.Context, fn portsrepo.TxFunc) error {
	tx, err := u.Begin(ctx)
	if err != nil {
		return err
	}
	defer u.Rollback(ctx, tx)

	if u.opts.LockTimeout > 0 {
		// SET does not take bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.opts.LockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return mapError(err, "set lock timeout")
		}
	}
	if err := fn(ctx, tx); err != nil {
		return mapTxError(err)
	}
	return u.Commit(ctx, tx)
}

// mapTxError classifies raw driver errors that escaped a repository.
func mapTxError(err error) error {
	var appErr *apperrors.AppError
	var domainErr *apperrors.DomainError
	if errors.As(err, &appErr) || errors.As(err, &domainErr) ||
		errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	if mapped := mapError(err, "run unit of work"); errors.Is(mapped, apperrors.ErrConflict) {
		return mapped
	}
	return err
}

// retryConflicts calls run until it succeeds, fails with a non-conflict error,
// or the attempts are used up.
func retryConflicts(ctx context.Context, opts TxOptions, sleep func(context.Context, time.Duration) error, run func() error) error {
	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		lastErr = run()
		if lastErr == nil || !errors.Is(lastErr, apperrors.ErrConflict) {
			return lastErr
		}
		if attempt == opts.MaxAttempts {
			break
		}
		logger := middleware.GetLoggerFromCtx(ctx)
		logger.Warn("Retrying unit of work after conflict",
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()))
		if err := sleep(ctx, opts.RetryBackoff*time.Duration(attempt)); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: gave up after %d attempts: %v", apperrors.ErrConflict, opts.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
