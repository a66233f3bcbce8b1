package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// OutboxWriter stores domain events in the same transaction as the state change.
type OutboxWriter interface {
	AppendEventsTx(ctx context.Context, tx pgx.Tx, events []domain.Event) error
}

// OutboxRelaySupport is used by the relay worker.
type OutboxRelaySupport interface {
	// ClaimPendingTx locks up to limit undelivered messages, skipping rows held by other relays.
	ClaimPendingTx(ctx context.Context, tx pgx.Tx, limit int) ([]domain.OutboxMessage, error)

	MarkDispatchedTx(ctx context.Context, tx pgx.Tx, ids []int64, at time.Time) error

	// RecordFailureTx bumps the attempt counter and stores the last error.
	RecordFailureTx(ctx context.Context, tx pgx.Tx, id int64, lastError string) error
}

// OutboxRepositoryFacade combines the outbox interfaces
type OutboxRepositoryFacade interface {
	OutboxWriter
	OutboxRelaySupport
}

// EventPublisher appends a single event to the durable event store.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// EventReader queries the event store.
type EventReader interface {
	// QueryEvents returns events in sequence order. Empty arguments match everything.
	QueryEvents(ctx context.Context, aggregateID string, types []domain.EventType) ([]domain.StoredEvent, error)
}
