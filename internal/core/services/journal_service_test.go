package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/mfi_ledger/internal/apperrors"
	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/mfi_ledger/internal/core/ports/services"
	"github.com/SscSPs/mfi_ledger/internal/core/services"
	"github.com/SscSPs/mfi_ledger/internal/dto"
)

type JournalServiceTestSuite struct {
	suite.Suite
	ctx         context.Context
	uow         *MockUnitOfWork
	journalRepo *MockJournalRepository
	accountRepo *MockAccountRepository
	periodRepo  *MockPeriodRepository
	reporting   *MockReportingRepository
	outbox      *MockOutbox
	settings    *MockSettings
	service     portssvc.JournalSvcFacade
	periods     portssvc.PeriodSvcFacade

	cash     domain.Account
	income   domain.Account
	period   *domain.AccountingPeriod
	balances [][]domain.Account
}

func (suite *JournalServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.uow = &MockUnitOfWork{}
	suite.journalRepo = new(MockJournalRepository)
	suite.accountRepo = new(MockAccountRepository)
	suite.periodRepo = new(MockPeriodRepository)
	suite.reporting = new(MockReportingRepository)
	suite.outbox = &MockOutbox{}
	suite.settings = &MockSettings{Bools: map[string]bool{}}
	suite.balances = nil

	suite.service = services.NewJournalService(suite.uow, suite.journalRepo, suite.accountRepo, suite.periodRepo,
		suite.outbox, suite.settings, &fixedRefs{}, services.WithJournalClock(clock))
	suite.periods = services.NewPeriodService(suite.uow, suite.periodRepo, suite.reporting, suite.outbox,
		services.WithPeriodClock(clock))

	suite.cash = newTestAccount("acc-cash", "1000", domain.Asset)
	suite.income = newTestAccount("acc-inc", "4000", domain.Income)
	period := openJanuary()
	suite.period = &period

	// The period pointer is shared with the repository mock so updates are visible to later reads.
	suite.periodRepo.On("FindPeriodByDateForUpdate", mock.Anything, mock.Anything, mock.MatchedBy(func(d time.Time) bool {
		return suite.period.Contains(d)
	})).Return(suite.period, nil)
	suite.periodRepo.On("FindPeriodByDateForUpdate", mock.Anything, mock.Anything, mock.Anything).Return(nil, apperrors.ErrNotFound)
	suite.periodRepo.On("FindPeriodForUpdate", mock.Anything, mock.Anything, "p-jan").Return(suite.period, nil)
	suite.periodRepo.On("UpdatePeriodTx", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		*suite.period = args.Get(2).(domain.AccountingPeriod)
	}).Return(nil)

	suite.accountRepo.On("FindAccountsByIDsForUpdate", mock.Anything, mock.Anything, []string{"acc-cash", "acc-inc"}).
		Return(map[string]domain.Account{"acc-cash": suite.cash, "acc-inc": suite.income}, nil)
	suite.accountRepo.On("UpdateAccountBalancesTx", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		suite.balances = append(suite.balances, args.Get(2).([]domain.Account))
	}).Return(nil)

	suite.journalRepo.On("UpdateEntryTx", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	suite.journalRepo.On("SaveEntryTx", mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func (suite *JournalServiceTestSuite) expectEntry(e domain.JournalEntry) {
	suite.journalRepo.On("FindEntryForUpdate", mock.Anything, mock.Anything, e.EntryID).Return(&e, nil)
}

func (suite *JournalServiceTestSuite) TestPostEntry_UpdatesBalancesAndPeriod() {
	suite.expectEntry(approvedEntry("e1", jan(15), "acc-cash", "acc-inc", dec("100")))

	posted, err := suite.service.PostEntry(suite.ctx, "e1", nil, "poster")
	suite.Require().NoError(err)

	suite.Equal(domain.JournalPosted, posted.Status)
	suite.Equal("p-jan", posted.PeriodID)
	suite.Equal(jan(15), *posted.PostingDate)
	suite.Equal(int64(1), suite.period.TransactionCount)

	suite.Require().Len(suite.balances, 1)
	byID := map[string]domain.Account{}
	for _, a := range suite.balances[0] {
		byID[a.AccountID] = a
	}
	suite.True(dec("100").Equal(byID["acc-cash"].Balance))
	suite.True(dec("100").Equal(byID["acc-inc"].Balance))
	suite.Contains(suite.outbox.Types(), domain.EventJournalEntryPosted)
	suite.Contains(suite.outbox.Types(), domain.EventChartOfAccountBalanceUpdated)
}

func (suite *JournalServiceTestSuite) TestScenarioC_ClosedPeriodRejectsPosting() {
	suite.expectEntry(approvedEntry("e1", jan(15), "acc-cash", "acc-inc", dec("100")))
	suite.expectEntry(approvedEntry("e2", jan(20), "acc-cash", "acc-inc", dec("40")))
	suite.reporting.On("PeriodTotalsTx", mock.Anything, mock.Anything, "p-jan").Return([]domain.AccountTotals{
		{AccountID: "acc-cash", AccountType: domain.Asset, Debit: dec("100"), Credit: dec("0")},
		{AccountID: "acc-inc", AccountType: domain.Income, Debit: dec("0"), Credit: dec("100")},
	}, nil)

	_, err := suite.service.PostEntry(suite.ctx, "e1", nil, "poster")
	suite.Require().NoError(err)

	closed, err := suite.periods.ClosePeriod(suite.ctx, "p-jan", dto.ClosePeriodRequest{}, "controller")
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodClosed, closed.Status)
	suite.Require().NotNil(closed.ClosingTransactionCount)
	suite.Equal(int64(1), *closed.ClosingTransactionCount)
	suite.Require().NotNil(closed.ClosingBalance)
	suite.True(dec("100").Equal(*closed.ClosingBalance))

	_, err = suite.service.PostEntry(suite.ctx, "e2", nil, "poster")
	suite.ErrorIs(err, domain.ErrPeriodClosed)
	suite.ErrorIs(err, apperrors.ErrPeriodGating)
	suite.Len(suite.balances, 1, "no balance may change after the close")
	suite.Equal(int64(1), suite.period.TransactionCount)
}

func (suite *JournalServiceTestSuite) TestPostEntry_NoPeriodDefined() {
	suite.expectEntry(approvedEntry("e3", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), "acc-cash", "acc-inc", dec("5")))

	_, err := suite.service.PostEntry(suite.ctx, "e3", nil, "poster")
	suite.ErrorIs(err, domain.ErrNoPeriodDefined)
	suite.Empty(suite.balances)
}

func (suite *JournalServiceTestSuite) TestPostEntry_ExplicitPostingDateSelectsPeriod() {
	suite.expectEntry(approvedEntry("e4", time.Date(2023, 12, 30, 0, 0, 0, 0, time.UTC), "acc-cash", "acc-inc", dec("5")))
	date := jan(2)

	posted, err := suite.service.PostEntry(suite.ctx, "e4", &date, "poster")
	suite.Require().NoError(err)
	suite.Equal("p-jan", posted.PeriodID)
	suite.Equal(jan(2), *posted.PostingDate)
}

func (suite *JournalServiceTestSuite) TestPostEntry_NotApproved() {
	suite.expectEntry(draftEntry("e5", jan(15), "acc-cash", "acc-inc", dec("5")))

	_, err := suite.service.PostEntry(suite.ctx, "e5", nil, "poster")
	suite.ErrorIs(err, domain.ErrNotApproved)
	suite.periodRepo.AssertNotCalled(suite.T(), "UpdatePeriodTx", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestPostEntry_InactiveAccount() {
	closedAcc := newTestAccount("acc-old", "1999", domain.Asset)
	closedAcc, _, err := closedAcc.Deactivate("admin", testNow)
	suite.Require().NoError(err)
	suite.accountRepo.On("FindAccountsByIDsForUpdate", mock.Anything, mock.Anything, []string{"acc-inc", "acc-old"}).
		Return(map[string]domain.Account{"acc-old": closedAcc, "acc-inc": suite.income}, nil)
	suite.expectEntry(approvedEntry("e6", jan(15), "acc-old", "acc-inc", dec("5")))

	_, err = suite.service.PostEntry(suite.ctx, "e6", nil, "poster")
	suite.ErrorIs(err, domain.ErrPostingNotAllowed)
	suite.Empty(suite.balances)
}

func (suite *JournalServiceTestSuite) TestReverseEntry_SwapsLinesAndMarksOriginal() {
	orig, _, err := approvedEntry("e7", jan(15), "acc-cash", "acc-inc", dec("100")).Post("poster", "p-jan", jan(15), testNow)
	suite.Require().NoError(err)
	suite.expectEntry(orig)
	date := jan(20)

	rev, err := suite.service.ReverseEntry(suite.ctx, "e7", dto.ReverseJournalEntryRequest{ReversalDate: &date, Reason: "keyed twice"}, "controller")
	suite.Require().NoError(err)

	suite.Equal(domain.JournalPosted, rev.Status)
	suite.Equal(domain.EntryReversal, rev.EntryType)
	suite.Equal("e7", rev.ReversalOfEntryID)
	suite.Require().Len(rev.Lines, 2)
	suite.Equal("acc-cash", rev.Lines[0].AccountID)
	suite.True(dec("100").Equal(rev.Lines[0].CreditAmount))

	suite.journalRepo.AssertCalled(suite.T(), "UpdateEntryTx", mock.Anything, mock.Anything, mock.MatchedBy(func(e domain.JournalEntry) bool {
		return e.EntryID == "e7" && e.Status == domain.JournalReversed && e.ReversedByEntryID == rev.EntryID
	}))
	suite.Contains(suite.outbox.Types(), domain.EventJournalEntryReversed)
}

func (suite *JournalServiceTestSuite) TestReverseEntry_AlreadyReversed() {
	orig, _, err := approvedEntry("e8", jan(15), "acc-cash", "acc-inc", dec("1")).Post("poster", "p-jan", jan(15), testNow)
	suite.Require().NoError(err)
	orig.Status = domain.JournalReversed
	orig.ReversedByEntryID = "e9"
	suite.expectEntry(orig)

	_, err = suite.service.ReverseEntry(suite.ctx, "e8", dto.ReverseJournalEntryRequest{}, "controller")
	suite.ErrorIs(err, domain.ErrAlreadyReversed)
}

func (suite *JournalServiceTestSuite) TestPostSystemEntryTx_AutoPostsByDefault() {
	entry, events, err := suite.service.PostSystemEntryTx(suite.ctx, nil, portssvc.SystemEntry{
		EntryDate:   jan(10),
		Description: "Fee charge",
		EntryType:   domain.EntryFeeCharge,
		Lines: []portssvc.SystemLine{
			{AccountID: "acc-cash", Side: domain.Debit, Amount: dec("50")},
			{AccountID: "acc-inc", Side: domain.Credit, Amount: dec("50")},
		},
	}, "system")
	suite.Require().NoError(err)

	suite.Equal(domain.JournalPosted, entry.Status)
	suite.Equal(services.SourceSystem, entry.Source)
	suite.journalRepo.AssertCalled(suite.T(), "SaveEntryTx", mock.Anything, mock.Anything, mock.MatchedBy(func(e domain.JournalEntry) bool {
		return e.Status == domain.JournalApproved
	}))
	suite.NotEmpty(events)
	suite.Empty(suite.outbox.Events, "events are returned to the caller, not written")
}

func (suite *JournalServiceTestSuite) TestPostSystemEntryTx_ManualReviewLeavesPending() {
	suite.settings.Bools[domain.SettingAutoPostSystemEntries] = false

	entry, _, err := suite.service.PostSystemEntryTx(suite.ctx, nil, portssvc.SystemEntry{
		EntryDate: jan(10),
		EntryType: domain.EntryFeeCharge,
		Lines: []portssvc.SystemLine{
			{AccountID: "acc-cash", Side: domain.Debit, Amount: dec("50")},
			{AccountID: "acc-inc", Side: domain.Credit, Amount: dec("50")},
		},
	}, "system")
	suite.Require().NoError(err)

	suite.Equal(domain.JournalPending, entry.Status)
	suite.Empty(suite.balances)
}

func (suite *JournalServiceTestSuite) TestPostSystemEntryTx_Unbalanced() {
	_, _, err := suite.service.PostSystemEntryTx(suite.ctx, nil, portssvc.SystemEntry{
		EntryDate: jan(10),
		EntryType: domain.EntryFeeCharge,
		Lines: []portssvc.SystemLine{
			{AccountID: "acc-cash", Side: domain.Debit, Amount: dec("50")},
			{AccountID: "acc-inc", Side: domain.Credit, Amount: dec("49.99")},
		},
	}, "system")
	suite.ErrorIs(err, domain.ErrUnbalanced)
	suite.journalRepo.AssertNotCalled(suite.T(), "SaveEntryTx", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestReverseEntryTx_DiscardsUnpostedEntry() {
	pending, _, err := draftEntry("e10", jan(15), "acc-cash", "acc-inc", dec("3")).Submit("system", testNow)
	suite.Require().NoError(err)
	suite.expectEntry(pending)
	suite.journalRepo.On("DeleteEntryTx", mock.Anything, mock.Anything, "e10").Return(nil).Once()

	rev, events, err := suite.service.ReverseEntryTx(suite.ctx, nil, "e10", jan(20), "system")
	suite.Require().NoError(err)
	suite.Nil(rev)
	suite.Empty(events)
	suite.journalRepo.AssertCalled(suite.T(), "DeleteEntryTx", mock.Anything, mock.Anything, "e10")
	suite.journalRepo.AssertNotCalled(suite.T(), "UpdateEntryTx", mock.Anything, mock.Anything, mock.Anything)
	suite.journalRepo.AssertNotCalled(suite.T(), "SaveEntryTx", mock.Anything, mock.Anything, mock.Anything)
	suite.accountRepo.AssertNotCalled(suite.T(), "UpdateAccountBalancesTx", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestAbandonEntry() {
	suite.expectEntry(draftEntry("e11", jan(15), "acc-cash", "acc-inc", dec("3")))
	suite.journalRepo.On("DeleteEntryTx", mock.Anything, mock.Anything, "e11").Return(nil).Once()
	suite.NoError(suite.service.AbandonEntry(suite.ctx, "e11", "clerk"))

	posted, _, err := approvedEntry("e12", jan(15), "acc-cash", "acc-inc", dec("3")).Post("poster", "p-jan", jan(15), testNow)
	suite.Require().NoError(err)
	suite.expectEntry(posted)
	suite.ErrorIs(suite.service.AbandonEntry(suite.ctx, "e12", "clerk"), domain.ErrEntryAlreadyPosted)
}

func (suite *JournalServiceTestSuite) TestCreateDraft_UnknownAccount() {
	suite.accountRepo.On("FindAccountByIDTx", mock.Anything, mock.Anything, "missing").Return(nil, apperrors.ErrNotFound)

	_, err := suite.service.CreateDraft(suite.ctx, dto.CreateJournalEntryRequest{
		EntryDate:   jan(15),
		Description: "bad line",
		Lines:       []dto.JournalLineRequest{{AccountID: "missing", Side: domain.Debit, Amount: dec("1")}},
	}, "clerk")
	suite.ErrorIs(err, domain.ErrInvalidLine)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *JournalServiceTestSuite) TestCreateDraft_ResolvesAccountsInsideTransaction() {
	suite.accountRepo.On("FindAccountByIDTx", mock.Anything, mock.Anything, "acc-cash").Return(&suite.cash, nil).Once()
	suite.accountRepo.On("FindAccountByIDTx", mock.Anything, mock.Anything, "acc-inc").Return(&suite.income, nil).Once()

	draft, err := suite.service.CreateDraft(suite.ctx, dto.CreateJournalEntryRequest{
		EntryDate:   jan(15),
		Description: "cash sale",
		Lines: []dto.JournalLineRequest{
			{AccountID: "acc-cash", Side: domain.Debit, Amount: dec("12")},
			{AccountID: "acc-inc", Side: domain.Credit, Amount: dec("12")},
		},
	}, "clerk")
	suite.Require().NoError(err)
	suite.Len(draft.Lines, 2)
	suite.Equal(1, suite.uow.Calls)
	suite.accountRepo.AssertExpectations(suite.T())
	suite.accountRepo.AssertNotCalled(suite.T(), "FindAccountByID", mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestWorkflow_SubmitRejectResubmit() {
	draft := draftEntry("e13", jan(15), "acc-cash", "acc-inc", dec("9"))
	suite.expectEntry(draft)

	pending, err := suite.service.SubmitEntry(suite.ctx, "e13", "clerk")
	suite.Require().NoError(err)
	suite.Equal(domain.JournalPending, pending.Status)

	// Reload the pending state for the next step.
	suite.journalRepo.ExpectedCalls = removeCall(suite.journalRepo.ExpectedCalls, "FindEntryForUpdate")
	suite.expectEntry(*pending)
	rejected, err := suite.service.RejectEntry(suite.ctx, "e13", "wrong account", "supervisor")
	suite.Require().NoError(err)
	suite.Equal(domain.JournalDraft, rejected.Status)
	suite.Equal("wrong account", rejected.RejectionReason)
}

func (suite *JournalServiceTestSuite) TestUnitOfWorkConflictSurfaces() {
	suite.uow.Err = apperrors.ErrConflict
	_, err := suite.service.PostEntry(suite.ctx, "e1", nil, "poster")
	suite.True(errors.Is(err, apperrors.ErrConflict))
}

func removeCall(calls []*mock.Call, method string) []*mock.Call {
	out := calls[:0]
	for _, c := range calls {
		if c.Method != method {
			out = append(out, c)
		}
	}
	return out
}

func TestJournalService(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}

func TestJournalService_ListEntriesClampsLimit(t *testing.T) {
	repo := new(MockJournalRepository)
	svc := services.NewJournalService(&MockUnitOfWork{}, repo, new(MockAccountRepository), new(MockPeriodRepository),
		&MockOutbox{}, &MockSettings{}, &fixedRefs{})
	next := "tok"
	repo.On("ListEntries", mock.Anything, mock.Anything, 100, (*string)(nil)).Return(nil, &next, nil).Once()

	entries, token, err := svc.ListEntries(context.Background(), dto.ListJournalEntriesParams{Limit: 5000})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
	assert.Equal(t, &next, token)
	repo.AssertExpectations(t)
}
