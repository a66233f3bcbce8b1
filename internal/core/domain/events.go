package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a domain event emitted by the ledger core.
type EventType string

const (
	EventAccountingPeriodCreated  EventType = "AccountingPeriodCreated"
	EventAccountingPeriodClosed   EventType = "AccountingPeriodClosed"
	EventAccountingPeriodReopened EventType = "AccountingPeriodReopened"
	EventAccountingPeriodLocked   EventType = "AccountingPeriodLocked"

	EventChartOfAccountCreated        EventType = "ChartOfAccountCreated"
	EventChartOfAccountUpdated        EventType = "ChartOfAccountUpdated"
	EventChartOfAccountStatusChanged  EventType = "ChartOfAccountStatusChanged"
	EventChartOfAccountBalanceUpdated EventType = "ChartOfAccountBalanceUpdated"

	EventJournalEntrySubmitted EventType = "JournalEntrySubmitted"
	EventJournalEntryApproved  EventType = "JournalEntryApproved"
	EventJournalEntryRejected  EventType = "JournalEntryRejected"
	EventJournalEntryPosted    EventType = "JournalEntryPosted"
	EventJournalEntryReversed  EventType = "JournalEntryReversed"

	EventFeeChargeCreated   EventType = "FeeChargeCreated"
	EventFeeChargePaid      EventType = "FeeChargePaid"
	EventFeeChargeWaived    EventType = "FeeChargeWaived"
	EventFeeChargeReversed  EventType = "FeeChargeReversed"
	EventFeePaymentReversed EventType = "FeePaymentReversed"
	EventFeeWaiverApproved  EventType = "FeeWaiverApproved"
	EventFeeWaiverRejected  EventType = "FeeWaiverRejected"

	EventLoanSchedulePaid EventType = "LoanSchedulePaid"
)

// AllEventTypes lists every event type the core emits.
func AllEventTypes() []EventType {
	return []EventType{
		EventAccountingPeriodCreated, EventAccountingPeriodClosed, EventAccountingPeriodReopened, EventAccountingPeriodLocked,
		EventChartOfAccountCreated, EventChartOfAccountUpdated, EventChartOfAccountStatusChanged, EventChartOfAccountBalanceUpdated,
		EventJournalEntrySubmitted, EventJournalEntryApproved, EventJournalEntryRejected, EventJournalEntryPosted, EventJournalEntryReversed,
		EventFeeChargeCreated, EventFeeChargePaid, EventFeeChargeWaived, EventFeeChargeReversed, EventFeePaymentReversed,
		EventFeeWaiverApproved, EventFeeWaiverRejected,
		EventLoanSchedulePaid,
	}
}

// Event is an immutable fact produced by a domain transition. Transitions
// return their events explicitly; nothing is queued on the aggregates.
type Event struct {
	EventID       string         `json:"eventId"`
	EventType     EventType      `json:"eventType"`
	AggregateType string         `json:"aggregateType"`
	AggregateID   string         `json:"aggregateId"`
	OccurredAt    time.Time      `json:"occurredAt"`
	Payload       map[string]any `json:"payload"`
}

func newEvent(eventType EventType, aggregateType, aggregateID string, at time.Time, payload map[string]any) Event {
	if payload == nil {
		payload = map[string]any{}
	}
	return Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		OccurredAt:    at,
		Payload:       payload,
	}
}

const (
	aggregateAccount     = "Account"
	aggregatePeriod      = "AccountingPeriod"
	aggregateJournal     = "JournalEntry"
	aggregateFeeCharge   = "FeeCharge"
	aggregateFeePayment  = "FeePayment"
	aggregateFeeWaiver   = "FeeWaiver"
	aggregateLoanInstall = "LoanSchedule"
)

// OutboxMessage is an event waiting in the transactional outbox for delivery.
type OutboxMessage struct {
	ID       int64
	Event    Event
	Attempts int
}

// StoredEvent is an event read back from the event store.
type StoredEvent struct {
	SequenceNumber uint64         `json:"sequenceNumber"`
	EventType      EventType      `json:"eventType"`
	OccurredAt     time.Time      `json:"occurredAt"`
	Payload        map[string]any `json:"payload"`
}
