package services

import (
	"context"
	"log/slog"
	"time"

	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

const (
	defaultRelayInterval  = time.Second
	defaultRelayBatchSize = 100
)

// OutboxRelay moves events from the transactional outbox to the event store.
// Delivery is at-least-once: a message is marked dispatched only after the
// store accepted it, and a crash in between redelivers it.
type OutboxRelay struct {
	BaseService
	uow       portsrepo.UnitOfWork
	outbox    portsrepo.OutboxRelaySupport
	publisher portsrepo.EventPublisher
	interval  time.Duration
	batchSize int
}

// OutboxRelayOption is a functional option for configuring the relay
type OutboxRelayOption func(*OutboxRelay)

// WithRelayInterval sets the polling interval.
func WithRelayInterval(d time.Duration) OutboxRelayOption {
	return func(r *OutboxRelay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithRelayBatchSize sets how many messages one pass claims.
func WithRelayBatchSize(n int) OutboxRelayOption {
	return func(r *OutboxRelay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithRelayClock overrides the clock used for dispatch stamps.
func WithRelayClock(clock func() time.Time) OutboxRelayOption {
	return func(r *OutboxRelay) {
		r.Clock = clock
	}
}

// NewOutboxRelay creates a relay. Call Run to start it.
func NewOutboxRelay(uow portsrepo.UnitOfWork, outbox portsrepo.OutboxRelaySupport, publisher portsrepo.EventPublisher, options ...OutboxRelayOption) *OutboxRelay {
	r := &OutboxRelay{
		uow:       uow,
		outbox:    outbox,
		publisher: publisher,
		interval:  defaultRelayInterval,
		batchSize: defaultRelayBatchSize,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Run dispatches on every tick until ctx is cancelled. A fully delivered
// batch is followed immediately by another pass.
func (r *OutboxRelay) Run(ctx context.Context) {
	r.LogInfo(ctx, "Outbox relay started",
		slog.Duration("interval", r.interval),
		slog.Int("batch_size", r.batchSize))
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.LogInfo(ctx, "Outbox relay stopped")
			return
		case <-ticker.C:
			for {
				n, err := r.DispatchOnce(ctx)
				if err != nil {
					if ctx.Err() == nil {
						r.LogError(ctx, err, "Outbox relay pass failed")
					}
					break
				}
				if n < r.batchSize {
					break
				}
			}
		}
	}
}

// DispatchOnce claims one batch, publishes it and records the outcome.
// It returns the number of messages delivered.
func (r *OutboxRelay) DispatchOnce(ctx context.Context) (int, error) {
	var claimed, delivered int
	err := r.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		messages, err := r.outbox.ClaimPendingTx(ctx, tx, r.batchSize)
		if err != nil {
			return err
		}
		claimed, delivered = len(messages), 0
		ids := make([]int64, 0, len(messages))
		for _, m := range messages {
			if err := r.publisher.Publish(ctx, m.Event); err != nil {
				r.GetLogger(ctx).Warn("Failed to publish outbox message",
					slog.Int64("outbox_id", m.ID),
					slog.String("event_type", string(m.Event.EventType)),
					slog.Int("attempts", m.Attempts+1),
					slog.String("error", err.Error()))
				if err := r.outbox.RecordFailureTx(ctx, tx, m.ID, err.Error()); err != nil {
					return err
				}
				continue
			}
			ids = append(ids, m.ID)
		}
		delivered = len(ids)
		return r.outbox.MarkDispatchedTx(ctx, tx, ids, r.Now())
	})
	if err != nil {
		return 0, err
	}
	if claimed > 0 {
		r.LogDebug(ctx, "Outbox batch dispatched",
			slog.Int("claimed", claimed),
			slog.Int("delivered", delivered))
	}
	return delivered, nil
}
