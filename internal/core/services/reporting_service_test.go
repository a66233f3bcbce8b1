package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/SscSPs/mfi_ledger/internal/core/services"
)

func TestReportingService_TrialBalance(t *testing.T) {
	repo := new(MockReportingRepository)
	repo.On("AccountTotalsAsOf", mock.Anything, jan(31)).Return([]domain.AccountTotals{
		{AccountID: "acc-cash", AccountCode: "1000", AccountName: "Cash", AccountType: domain.Asset, Debit: dec("150"), Credit: dec("50")},
		{AccountID: "acc-inc", AccountCode: "4000", AccountName: "Fees", AccountType: domain.Income, Debit: dec("0"), Credit: dec("100")},
	}, nil).Once()
	svc := services.NewReportingService(repo)

	tb, err := svc.GetTrialBalance(context.Background(), testNow)
	require.NoError(t, err)
	assert.True(t, tb.IsBalanced)
	assert.True(t, dec("100").Equal(tb.TotalDebit))
	assert.True(t, dec("100").Equal(tb.TotalCredit))
	assert.Len(t, tb.Rows, 2)
}

func TestEventQueryService_FiltersByType(t *testing.T) {
	reader := new(MockEventReader)
	reader.On("QueryEvents", mock.Anything, "acc-1", []domain.EventType{domain.EventChartOfAccountBalanceUpdated}).
		Return([]domain.StoredEvent{{SequenceNumber: 7, EventType: domain.EventChartOfAccountBalanceUpdated}}, nil).Once()
	svc := services.NewEventQueryService(reader)

	events, err := svc.ListEvents(context.Background(), "acc-1", []string{"ChartOfAccountBalanceUpdated"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(7), events[0].SequenceNumber)
}

func TestEventQueryService_UnknownType(t *testing.T) {
	svc := services.NewEventQueryService(new(MockEventReader))

	_, err := svc.ListEvents(context.Background(), "", []string{"SomethingElse"})
	assert.ErrorIs(t, err, domain.ErrInvalidEntry)
}
