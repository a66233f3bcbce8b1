package eventlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AntonStoeckl/dynamic-streams-eventstore-go/eventstore"
	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryEngine keeps one stream and fails the first conflicts appends.
type memoryEngine struct {
	stream    eventstore.StorableEvents
	conflicts int
	appends   int
	queryErr  error
}

func (m *memoryEngine) Query(_ context.Context, _ eventstore.Filter) (eventstore.StorableEvents, eventstore.MaxSequenceNumberUint, error) {
	if m.queryErr != nil {
		return nil, 0, m.queryErr
	}
	return m.stream, eventstore.MaxSequenceNumberUint(len(m.stream)), nil
}

func (m *memoryEngine) Append(_ context.Context, _ eventstore.Filter, expected eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent, more ...eventstore.StorableEvent) error {
	m.appends++
	if m.conflicts > 0 {
		m.conflicts--
		return eventstore.ErrConcurrencyConflict
	}
	if expected != eventstore.MaxSequenceNumberUint(len(m.stream)) {
		return eventstore.ErrConcurrencyConflict
	}
	m.stream = append(m.stream, event)
	m.stream = append(m.stream, more...)
	return nil
}

func chargeCreated(id string) domain.Event {
	return domain.Event{
		EventID:       id,
		EventType:     domain.EventFeeChargeCreated,
		AggregateType: "FeeCharge",
		AggregateID:   "fc-1",
		OccurredAt:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Payload:       map[string]any{"amount": "25.00", "memberId": "m-1"},
	}
}

func TestPublishAppendsAndReadsBack(t *testing.T) {
	eng := &memoryEngine{}
	store := newStore(eng, nil)

	require.NoError(t, store.Publish(context.Background(), chargeCreated("ev-1")))

	events, err := store.QueryEvents(context.Background(), "fc-1", nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(1), events[0].SequenceNumber)
	assert.Equal(t, domain.EventFeeChargeCreated, events[0].EventType)
	assert.Equal(t, "25.00", events[0].Payload["amount"])
	assert.Equal(t, "fc-1", events[0].Payload["aggregateId"])
}

func TestPublishSkipsRedeliveredEvent(t *testing.T) {
	eng := &memoryEngine{}
	store := newStore(eng, nil)

	require.NoError(t, store.Publish(context.Background(), chargeCreated("ev-1")))
	require.NoError(t, store.Publish(context.Background(), chargeCreated("ev-1")))

	assert.Len(t, eng.stream, 1)
	assert.Equal(t, 1, eng.appends)
}

func TestPublishRetriesOnConcurrencyConflict(t *testing.T) {
	eng := &memoryEngine{conflicts: 2}
	store := newStore(eng, nil)

	require.NoError(t, store.Publish(context.Background(), chargeCreated("ev-1")))
	assert.Equal(t, 3, eng.appends)
	assert.Len(t, eng.stream, 1)
}

func TestPublishGivesUpAfterBoundedAttempts(t *testing.T) {
	eng := &memoryEngine{conflicts: 100}
	store := newStore(eng, nil)

	err := store.Publish(context.Background(), chargeCreated("ev-1"))
	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
	assert.Equal(t, defaultAppendAttempts, eng.appends)
}

func TestQueryEventsPropagatesEngineError(t *testing.T) {
	store := newStore(&memoryEngine{queryErr: errors.New("connection reset")}, nil)

	_, err := store.QueryEvents(context.Background(), "", nil)
	assert.ErrorContains(t, err, "connection reset")
}

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name        string
		aggregateID string
		types       []domain.EventType
		wantItems   int
		wantTypes   int
		wantPreds   int
	}{
		{name: "everything", wantItems: 0},
		{name: "aggregate only", aggregateID: "fc-1", wantItems: 1, wantPreds: 1},
		{name: "types only", types: []domain.EventType{domain.EventFeeChargeCreated, domain.EventFeeChargePaid}, wantItems: 1, wantTypes: 2},
		{name: "aggregate and type", aggregateID: "fc-1", types: []domain.EventType{domain.EventFeeChargePaid}, wantItems: 1, wantTypes: 1, wantPreds: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := buildFilter(tt.aggregateID, tt.types)
			require.Len(t, f.Items(), tt.wantItems)
			if tt.wantItems == 0 {
				return
			}
			item := f.Items()[0]
			assert.Len(t, item.EventTypes(), tt.wantTypes)
			assert.Len(t, item.Predicates(), tt.wantPreds)
			for _, p := range item.Predicates() {
				assert.Equal(t, "aggregateId", p.Key())
				assert.Equal(t, tt.aggregateID, p.Val())
			}
		})
	}
}

func TestStorableCarriesEventIDInMetadata(t *testing.T) {
	se, err := toStorable(chargeCreated("ev-9"))
	require.NoError(t, err)
	assert.Equal(t, "ev-9", eventIDOf(se))
	assert.Equal(t, string(domain.EventFeeChargeCreated), se.EventType)
}
