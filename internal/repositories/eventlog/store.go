package eventlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AntonStoeckl/dynamic-streams-eventstore-go/eventstore"
	"github.com/AntonStoeckl/dynamic-streams-eventstore-go/eventstore/postgresengine"
	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

const defaultAppendAttempts = 5

// engine is the part of postgresengine.EventStore the adapter uses.
type engine interface {
	Query(ctx context.Context, filter eventstore.Filter) (eventstore.StorableEvents, eventstore.MaxSequenceNumberUint, error)
	Append(ctx context.Context, filter eventstore.Filter, expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
		event eventstore.StorableEvent, additionalEvents ...eventstore.StorableEvent) error
}

// Store appends ledger events to the dynamic-streams event store and reads them back.
type Store struct {
	engine         engine
	appendAttempts int
	logger         *slog.Logger
}

var (
	_ portsrepo.EventPublisher = (*Store)(nil)
	_ portsrepo.EventReader    = (*Store)(nil)
)

// NewPgxStore builds a Store on the application's pgx pool.
func NewPgxStore(pool *pgxpool.Pool, table string, logger *slog.Logger) (*Store, error) {
	es, err := postgresengine.NewEventStoreFromPGXPool(pool, engineOptions(table, logger)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create event store: %w", err)
	}
	return newStore(es, logger), nil
}

// NewSQLXStore builds a Store on a database/sql connection opened through sqlx and lib/pq.
func NewSQLXStore(db *sqlx.DB, table string, logger *slog.Logger) (*Store, error) {
	es, err := postgresengine.NewEventStoreFromSQLX(db, engineOptions(table, logger)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create event store: %w", err)
	}
	return newStore(es, logger), nil
}

func engineOptions(table string, logger *slog.Logger) []postgresengine.Option {
	opts := []postgresengine.Option{}
	if table != "" {
		opts = append(opts, postgresengine.WithTableName(table))
	}
	if logger != nil {
		opts = append(opts, postgresengine.WithLogger(logger))
	}
	return opts
}

func newStore(e engine, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{engine: e, appendAttempts: defaultAppendAttempts, logger: logger}
}

// Publish appends event to its aggregate's stream. An event whose id is
// already in the stream is skipped, so redelivery from the outbox is harmless.
func (s *Store) Publish(ctx context.Context, event domain.Event) error {
	storable, err := toStorable(event)
	if err != nil {
		return err
	}
	filter := buildFilter(event.AggregateID, nil)

	for attempt := 1; attempt <= s.appendAttempts; attempt++ {
		stream, maxSeq, err := s.engine.Query(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to read stream of %s: %w", event.AggregateID, err)
		}
		for _, se := range stream {
			if eventIDOf(se) == event.EventID {
				return nil
			}
		}
		err = s.engine.Append(ctx, filter, maxSeq, storable)
		if err == nil {
			return nil
		}
		if !errors.Is(err, eventstore.ErrConcurrencyConflict) {
			return fmt.Errorf("failed to append %s: %w", event.EventType, err)
		}
		s.logger.Debug("Event stream moved during append, retrying",
			slog.String("aggregate_id", event.AggregateID),
			slog.Int("attempt", attempt))
	}
	return fmt.Errorf("failed to append %s after %d attempts: %w", event.EventType, s.appendAttempts, eventstore.ErrConcurrencyConflict)
}

// QueryEvents returns events in sequence order. Empty arguments match everything.
func (s *Store) QueryEvents(ctx context.Context, aggregateID string, types []domain.EventType) ([]domain.StoredEvent, error) {
	stream, _, err := s.engine.Query(ctx, buildFilter(aggregateID, types))
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	events := make([]domain.StoredEvent, 0, len(stream))
	for i, se := range stream {
		e, err := fromStorable(se, i+1)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}
