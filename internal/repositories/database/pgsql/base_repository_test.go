package pgsql

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/SscSPs/mfi_ledger/internal/apperrors"
	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, apperrors.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), apperrors.ErrNotFound},
		{"unique", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "uq_journal_entries_reference"}, apperrors.ErrDuplicate},
		{"account code", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: accountsCodeConstraint}, domain.ErrDuplicateCode},
		{"period overlap", &pgconn.PgError{Code: pgExclusionViolation}, domain.ErrPeriodOverlap},
		{"serialization", &pgconn.PgError{Code: pgSerializationFailure}, apperrors.ErrConflict},
		{"deadlock", &pgconn.PgError{Code: pgDeadlockDetected}, apperrors.ErrConflict},
		{"lock timeout", &pgconn.PgError{Code: pgLockNotAvailable}, apperrors.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.err, "test"), tt.want)
		})
	}
}

func TestMapErrorKeepsUnknownCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := mapError(cause, "list accounts")
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, apperrors.ErrConflict)
	assert.Nil(t, mapError(nil, "noop"))
}

func TestAccountCodeDuplicateIsAlsoDuplicateCategory(t *testing.T) {
	err := mapError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: accountsCodeConstraint}, "save account")
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestExpectOneRow(t *testing.T) {
	assert.NoError(t, expectOneRow(pgconn.NewCommandTag("UPDATE 1"), "account", "a-1", 3))
	assert.ErrorIs(t, expectOneRow(pgconn.NewCommandTag("UPDATE 0"), "account", "a-1", 3), apperrors.ErrConflict)
}

func TestExpectRowUpdated(t *testing.T) {
	assert.NoError(t, expectRowUpdated(pgconn.NewCommandTag("UPDATE 1"), "balance of account", "a-1"))

	err := expectRowUpdated(pgconn.NewCommandTag("UPDATE 0"), "balance of account", "a-1")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Contains(t, err.Error(), "a-1")
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestRetryConflictsSucceedsAfterConflict(t *testing.T) {
	calls := 0
	err := retryConflicts(context.Background(), TxOptions{MaxAttempts: 3}, noSleep, func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("%w: version moved", apperrors.ErrConflict)
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryConflictsGivesUp(t *testing.T) {
	calls := 0
	err := retryConflicts(context.Background(), TxOptions{MaxAttempts: 3}, noSleep, func() error {
		calls++
		return fmt.Errorf("%w: lock timeout", apperrors.ErrConflict)
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.ErrorContains(t, err, "gave up after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestRetryConflictsDoesNotRetryDomainErrors(t *testing.T) {
	calls := 0
	err := retryConflicts(context.Background(), TxOptions{MaxAttempts: 3}, noSleep, func() error {
		calls++
		return domain.ErrPeriodClosed
	})
	assert.ErrorIs(t, err, domain.ErrPeriodClosed)
	assert.Equal(t, 1, calls)
}

func TestRetryConflictsBacksOffLinearly(t *testing.T) {
	var waits []time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	_ = retryConflicts(context.Background(), TxOptions{MaxAttempts: 3, RetryBackoff: 50 * time.Millisecond}, sleep, func() error {
		return apperrors.ErrConflict
	})
	assert.Equal(t, []time.Duration{50 * time.Millisecond, 100 * time.Millisecond}, waits)
}

func TestMapTxErrorClassifiesRawDeadlock(t *testing.T) {
	raw := fmt.Errorf("update balances: %w", &pgconn.PgError{Code: pgDeadlockDetected})
	assert.ErrorIs(t, mapTxError(raw), apperrors.ErrConflict)
	assert.ErrorIs(t, mapTxError(domain.ErrUnbalanced), domain.ErrUnbalanced)
}
