package eventlog

import (
	"fmt"
	"time"

	"github.com/AntonStoeckl/dynamic-streams-eventstore-go/eventstore"
	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Payload key every stored event carries; the append filter is scoped on it.
const keyAggregateID = "aggregateId"

// metadata is stored next to the payload and never filtered on.
type metadata struct {
	EventID       string `json:"eventId"`
	AggregateType string `json:"aggregateType"`
	AggregateID   string `json:"aggregateId"`
}

// toStorable encodes a domain event for the event store.
func toStorable(e domain.Event) (eventstore.StorableEvent, error) {
	payload := make(map[string]any, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[keyAggregateID] = e.AggregateID

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return eventstore.StorableEvent{}, fmt.Errorf("encode payload of %s: %w", e.EventType, err)
	}
	metadataJSON, err := json.Marshal(metadata{
		EventID:       e.EventID,
		AggregateType: e.AggregateType,
		AggregateID:   e.AggregateID,
	})
	if err != nil {
		return eventstore.StorableEvent{}, fmt.Errorf("encode metadata of %s: %w", e.EventType, err)
	}
	return eventstore.BuildStorableEvent(string(e.EventType), e.OccurredAt.UTC(), payloadJSON, metadataJSON)
}

// fromStorable decodes a stored event. position is its 1-based place in the queried stream.
func fromStorable(se eventstore.StorableEvent, position int) (domain.StoredEvent, error) {
	payload := map[string]any{}
	if err := json.Unmarshal(se.PayloadJSON, &payload); err != nil {
		return domain.StoredEvent{}, fmt.Errorf("decode payload of %s: %w", se.EventType, err)
	}
	return domain.StoredEvent{
		SequenceNumber: uint64(position),
		EventType:      domain.EventType(se.EventType),
		OccurredAt:     se.OccurredAt.In(time.UTC),
		Payload:        payload,
	}, nil
}

// eventIDOf reads the event id back out of the stored metadata.
func eventIDOf(se eventstore.StorableEvent) string {
	var m metadata
	if err := json.Unmarshal(se.MetadataJSON, &m); err != nil {
		return ""
	}
	return m.EventID
}

// buildFilter scopes a query to an aggregate and, optionally, a set of event types.
func buildFilter(aggregateID string, types []domain.EventType) eventstore.Filter {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	builder := eventstore.BuildEventFilter()
	switch {
	case aggregateID != "" && len(names) > 0:
		return builder.Matching().
			AnyEventTypeOf(names[0], names[1:]...).
			AndAnyPredicateOf(eventstore.P(keyAggregateID, aggregateID)).
			Finalize()
	case aggregateID != "":
		return builder.Matching().AnyPredicateOf(eventstore.P(keyAggregateID, aggregateID)).Finalize()
	case len(names) > 0:
		return builder.Matching().AnyEventTypeOf(names[0], names[1:]...).Finalize()
	default:
		return builder.MatchingAnyEvent()
	}
}
