package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/SscSPs/mfi_ledger/internal/core/services"
)

func outboxMessage(id int64, eventID string) domain.OutboxMessage {
	return domain.OutboxMessage{
		ID: id,
		Event: domain.Event{
			EventID:     eventID,
			EventType:   domain.EventFeeChargeCreated,
			AggregateID: "fc-1",
			OccurredAt:  testNow,
			Payload:     map[string]any{"amount": "10"},
		},
	}
}

func TestOutboxRelay_DispatchesClaimedBatch(t *testing.T) {
	uow := &MockUnitOfWork{}
	outbox := new(MockOutboxRelaySupport)
	publisher := new(MockEventPublisher)
	relay := services.NewOutboxRelay(uow, outbox, publisher, services.WithRelayBatchSize(10), services.WithRelayClock(clock))

	msgs := []domain.OutboxMessage{outboxMessage(1, "ev-1"), outboxMessage(2, "ev-2")}
	outbox.On("ClaimPendingTx", mock.Anything, mock.Anything, 10).Return(msgs, nil).Once()
	publisher.On("Publish", mock.Anything, msgs[0].Event).Return(nil).Once()
	publisher.On("Publish", mock.Anything, msgs[1].Event).Return(nil).Once()
	outbox.On("MarkDispatchedTx", mock.Anything, mock.Anything, []int64{1, 2}, testNow).Return(nil).Once()

	n, err := relay.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	outbox.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestOutboxRelay_FailedPublishIsRecordedAndKept(t *testing.T) {
	uow := &MockUnitOfWork{}
	outbox := new(MockOutboxRelaySupport)
	publisher := new(MockEventPublisher)
	relay := services.NewOutboxRelay(uow, outbox, publisher, services.WithRelayClock(clock))

	msgs := []domain.OutboxMessage{outboxMessage(1, "ev-1"), outboxMessage(2, "ev-2")}
	outbox.On("ClaimPendingTx", mock.Anything, mock.Anything, 100).Return(msgs, nil).Once()
	publisher.On("Publish", mock.Anything, msgs[0].Event).Return(errors.New("store unavailable")).Once()
	publisher.On("Publish", mock.Anything, msgs[1].Event).Return(nil).Once()
	outbox.On("RecordFailureTx", mock.Anything, mock.Anything, int64(1), "store unavailable").Return(nil).Once()
	outbox.On("MarkDispatchedTx", mock.Anything, mock.Anything, []int64{2}, testNow).Return(nil).Once()

	n, err := relay.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	outbox.AssertExpectations(t)
}

func TestOutboxRelay_EmptyOutbox(t *testing.T) {
	uow := &MockUnitOfWork{}
	outbox := new(MockOutboxRelaySupport)
	publisher := new(MockEventPublisher)
	relay := services.NewOutboxRelay(uow, outbox, publisher, services.WithRelayClock(clock))

	outbox.On("ClaimPendingTx", mock.Anything, mock.Anything, 100).Return([]domain.OutboxMessage{}, nil).Once()
	outbox.On("MarkDispatchedTx", mock.Anything, mock.Anything, []int64{}, testNow).Return(nil).Once()

	n, err := relay.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestOutboxRelay_RunStopsOnCancel(t *testing.T) {
	uow := &MockUnitOfWork{}
	relay := services.NewOutboxRelay(uow, new(MockOutboxRelaySupport), new(MockEventPublisher))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()
	<-done
	assert.Zero(t, uow.Calls)
}
