package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const outboxTable = "event_outbox"

var pgDialect = goqu.Dialect("postgres")

// PgxOutboxRepository stores domain events next to the state change that
// produced them. Statements are built with goqu and run on the caller's tx.
type PgxOutboxRepository struct {
	BaseRepository
}

func newPgxOutboxRepository(pool *pgxpool.Pool) portsrepo.OutboxRepositoryFacade {
	return &PgxOutboxRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.OutboxRepositoryFacade = (*PgxOutboxRepository)(nil)

// AppendEventsTx inserts every event as one pending outbox row.
func (r *PgxOutboxRepository) AppendEventsTx(ctx context.Context, tx pgx.Tx, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]any, 0, len(events))
	for _, e := range events {
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload of %s: %w", e.EventType, err)
		}
		rows = append(rows, goqu.Record{
			"event_id":       e.EventID,
			"event_type":     string(e.EventType),
			"aggregate_type": e.AggregateType,
			"aggregate_id":   e.AggregateID,
			"occurred_at":    e.OccurredAt,
			"payload":        string(payload),
		})
	}
	query, args, err := pgDialect.Insert(outboxTable).Prepared(true).Rows(rows...).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build outbox insert: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return mapError(err, "append outbox events")
	}
	return nil
}

// ClaimPendingTx locks up to limit undelivered messages, skipping rows held by other relays.
func (r *PgxOutboxRepository) ClaimPendingTx(ctx context.Context, tx pgx.Tx, limit int) ([]domain.OutboxMessage, error) {
	query, args, err := pgDialect.From(outboxTable).Prepared(true).
		Select("id", "event_id", "event_type", "aggregate_type", "aggregate_id", "occurred_at", "payload", "attempts").
		Where(goqu.C("dispatched_at").IsNull()).
		Order(goqu.C("id").Asc()).
		Limit(uint(limit)).
		ForUpdate(exp.SkipLocked).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build outbox claim: %w", err)
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "claim outbox messages")
	}
	defer rows.Close()

	messages := []domain.OutboxMessage{}
	for rows.Next() {
		var m domain.OutboxMessage
		var eventType string
		var payload []byte
		if err := rows.Scan(&m.ID, &m.Event.EventID, &eventType, &m.Event.AggregateType, &m.Event.AggregateID,
			&m.Event.OccurredAt, &payload, &m.Attempts); err != nil {
			return nil, mapError(err, "scan outbox row")
		}
		m.Event.EventType = domain.EventType(eventType)
		if err := json.Unmarshal(payload, &m.Event.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode outbox payload %d: %w", m.ID, err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "claim outbox messages")
	}
	return messages, nil
}

func (r *PgxOutboxRepository) MarkDispatchedTx(ctx context.Context, tx pgx.Tx, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := pgDialect.Update(outboxTable).Prepared(true).
		Set(goqu.Record{"dispatched_at": at}).
		Where(goqu.C("id").In(ids)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build outbox dispatch update: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return mapError(err, "mark outbox messages dispatched")
	}
	return nil
}

// RecordFailureTx bumps the attempt counter and stores the last error.
func (r *PgxOutboxRepository) RecordFailureTx(ctx context.Context, tx pgx.Tx, id int64, lastError string) error {
	query, args, err := pgDialect.Update(outboxTable).Prepared(true).
		Set(goqu.Record{
			"attempts":   goqu.L("attempts + 1"),
			"last_error": lastError,
		}).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build outbox failure update: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return mapError(err, fmt.Sprintf("record failure of outbox message %d", id))
	}
	return nil
}
