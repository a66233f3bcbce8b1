package services_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mfi_ledger/internal/core/ports/services"
)

// MockUnitOfWork runs the closure directly. Set Err to fail before it runs.
type MockUnitOfWork struct {
	Calls int
	Err   error
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn portsrepo.TxFunc) error {
	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx, nil)
}

// MockAccountRepository is a mock type for the AccountRepositoryFacade interface
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAllAccounts(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAccountTx(ctx context.Context, tx pgx.Tx, account domain.Account) error {
	return m.Called(ctx, tx, account).Error(0)
}

func (m *MockAccountRepository) UpdateAccountTx(ctx context.Context, tx pgx.Tx, account domain.Account) error {
	return m.Called(ctx, tx, account).Error(0)
}

func (m *MockAccountRepository) FindAccountForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, tx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByIDTx(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, tx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByCodeTx(ctx context.Context, tx pgx.Tx, code string) (*domain.Account, error) {
	args := m.Called(ctx, tx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateAccountBalancesTx(ctx context.Context, tx pgx.Tx, accounts []domain.Account) error {
	return m.Called(ctx, tx, accounts).Error(0)
}

// MockPeriodRepository is a mock type for the PeriodRepositoryFacade interface
type MockPeriodRepository struct {
	mock.Mock
}

func (m *MockPeriodRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodRepository) FindPeriodByDate(ctx context.Context, date time.Time) (*domain.AccountingPeriod, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodRepository) ListPeriods(ctx context.Context, fiscalYear *int) ([]domain.AccountingPeriod, error) {
	args := m.Called(ctx, fiscalYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodRepository) SavePeriodTx(ctx context.Context, tx pgx.Tx, period domain.AccountingPeriod) error {
	return m.Called(ctx, tx, period).Error(0)
}

func (m *MockPeriodRepository) UpdatePeriodTx(ctx context.Context, tx pgx.Tx, period domain.AccountingPeriod) error {
	return m.Called(ctx, tx, period).Error(0)
}

func (m *MockPeriodRepository) LockCalendarTx(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockPeriodRepository) FindOverlappingPeriodsTx(ctx context.Context, tx pgx.Tx, start, end time.Time) ([]domain.AccountingPeriod, error) {
	args := m.Called(ctx, tx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodRepository) FindPeriodForUpdate(ctx context.Context, tx pgx.Tx, periodID string) (*domain.AccountingPeriod, error) {
	args := m.Called(ctx, tx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodRepository) FindPeriodByDateForUpdate(ctx context.Context, tx pgx.Tx, date time.Time) (*domain.AccountingPeriod, error) {
	args := m.Called(ctx, tx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountingPeriod), args.Error(1)
}

// MockJournalRepository is a mock type for the JournalRepositoryFacade interface
type MockJournalRepository struct {
	mock.Mock
}

func (m *MockJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) ListEntries(ctx context.Context, filter portsrepo.JournalListFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	args := m.Called(ctx, filter, limit, nextToken)
	var next *string
	if args.Get(1) != nil {
		next = args.Get(1).(*string)
	}
	if args.Get(0) == nil {
		return nil, next, args.Error(2)
	}
	return args.Get(0).([]domain.JournalEntry), next, args.Error(2)
}

func (m *MockJournalRepository) SaveEntryTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error {
	return m.Called(ctx, tx, entry).Error(0)
}

func (m *MockJournalRepository) UpdateEntryTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error {
	return m.Called(ctx, tx, entry).Error(0)
}

func (m *MockJournalRepository) InsertLineTx(ctx context.Context, tx pgx.Tx, line domain.JournalEntryLine) error {
	return m.Called(ctx, tx, line).Error(0)
}

func (m *MockJournalRepository) DeleteEntryTx(ctx context.Context, tx pgx.Tx, entryID string) error {
	return m.Called(ctx, tx, entryID).Error(0)
}

func (m *MockJournalRepository) FindEntryForUpdate(ctx context.Context, tx pgx.Tx, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

// MockFeeRepository is a mock type for the FeeRepositoryFacade interface
type MockFeeRepository struct {
	mock.Mock
}

func (m *MockFeeRepository) FindChargeByID(ctx context.Context, chargeID string) (*domain.FeeCharge, error) {
	args := m.Called(ctx, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeCharge), args.Error(1)
}

func (m *MockFeeRepository) ListChargesByMember(ctx context.Context, memberID string, limit int, offset int) ([]domain.FeeCharge, error) {
	args := m.Called(ctx, memberID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FeeCharge), args.Error(1)
}

func (m *MockFeeRepository) SaveChargeTx(ctx context.Context, tx pgx.Tx, charge domain.FeeCharge) error {
	return m.Called(ctx, tx, charge).Error(0)
}

func (m *MockFeeRepository) UpdateChargeTx(ctx context.Context, tx pgx.Tx, charge domain.FeeCharge) error {
	return m.Called(ctx, tx, charge).Error(0)
}

func (m *MockFeeRepository) FindChargeForUpdate(ctx context.Context, tx pgx.Tx, chargeID string) (*domain.FeeCharge, error) {
	args := m.Called(ctx, tx, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeCharge), args.Error(1)
}

func (m *MockFeeRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.FeePayment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeePayment), args.Error(1)
}

func (m *MockFeeRepository) ListPaymentsByCharge(ctx context.Context, chargeID string) ([]domain.FeePayment, error) {
	args := m.Called(ctx, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FeePayment), args.Error(1)
}

func (m *MockFeeRepository) SavePaymentTx(ctx context.Context, tx pgx.Tx, payment domain.FeePayment) error {
	return m.Called(ctx, tx, payment).Error(0)
}

func (m *MockFeeRepository) UpdatePaymentTx(ctx context.Context, tx pgx.Tx, payment domain.FeePayment) error {
	return m.Called(ctx, tx, payment).Error(0)
}

func (m *MockFeeRepository) FindPaymentForUpdate(ctx context.Context, tx pgx.Tx, paymentID string) (*domain.FeePayment, error) {
	args := m.Called(ctx, tx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeePayment), args.Error(1)
}

func (m *MockFeeRepository) FindWaiverByID(ctx context.Context, waiverID string) (*domain.FeeWaiver, error) {
	args := m.Called(ctx, waiverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeWaiver), args.Error(1)
}

func (m *MockFeeRepository) ListWaiversByCharge(ctx context.Context, chargeID string) ([]domain.FeeWaiver, error) {
	args := m.Called(ctx, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FeeWaiver), args.Error(1)
}

func (m *MockFeeRepository) SaveWaiverTx(ctx context.Context, tx pgx.Tx, waiver domain.FeeWaiver) error {
	return m.Called(ctx, tx, waiver).Error(0)
}

func (m *MockFeeRepository) UpdateWaiverTx(ctx context.Context, tx pgx.Tx, waiver domain.FeeWaiver) error {
	return m.Called(ctx, tx, waiver).Error(0)
}

func (m *MockFeeRepository) FindWaiverForUpdate(ctx context.Context, tx pgx.Tx, waiverID string) (*domain.FeeWaiver, error) {
	args := m.Called(ctx, tx, waiverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeWaiver), args.Error(1)
}

func (m *MockFeeRepository) ListApprovedWaiversTx(ctx context.Context, tx pgx.Tx, chargeID string) ([]domain.FeeWaiver, error) {
	args := m.Called(ctx, tx, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FeeWaiver), args.Error(1)
}

// MockLoanRepository is a mock type for the LoanRepositoryFacade interface
type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) FindDisbursement(ctx context.Context, loanID string) (*domain.LoanDisbursement, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanDisbursement), args.Error(1)
}

func (m *MockLoanRepository) ListScheduleByLoan(ctx context.Context, loanID string) ([]domain.LoanSchedule, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LoanSchedule), args.Error(1)
}

func (m *MockLoanRepository) ListRepaymentsByLoan(ctx context.Context, loanID string) ([]domain.LoanRepayment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LoanRepayment), args.Error(1)
}

func (m *MockLoanRepository) SaveDisbursementTx(ctx context.Context, tx pgx.Tx, d domain.LoanDisbursement) error {
	return m.Called(ctx, tx, d).Error(0)
}

func (m *MockLoanRepository) SaveScheduleTx(ctx context.Context, tx pgx.Tx, schedule []domain.LoanSchedule) error {
	return m.Called(ctx, tx, schedule).Error(0)
}

func (m *MockLoanRepository) UpdateInstallmentTx(ctx context.Context, tx pgx.Tx, installment domain.LoanSchedule) error {
	return m.Called(ctx, tx, installment).Error(0)
}

func (m *MockLoanRepository) SaveRepaymentTx(ctx context.Context, tx pgx.Tx, repayment domain.LoanRepayment) error {
	return m.Called(ctx, tx, repayment).Error(0)
}

func (m *MockLoanRepository) FindDisbursementTx(ctx context.Context, tx pgx.Tx, loanID string) (*domain.LoanDisbursement, error) {
	args := m.Called(ctx, tx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanDisbursement), args.Error(1)
}

func (m *MockLoanRepository) FindScheduleForUpdate(ctx context.Context, tx pgx.Tx, loanID string) ([]domain.LoanSchedule, error) {
	args := m.Called(ctx, tx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LoanSchedule), args.Error(1)
}

// MockOutbox records every event appended to it.
type MockOutbox struct {
	Events []domain.Event
	Err    error
}

func (m *MockOutbox) AppendEventsTx(_ context.Context, _ pgx.Tx, events []domain.Event) error {
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, events...)
	return nil
}

// Types returns the recorded event types in order.
func (m *MockOutbox) Types() []domain.EventType {
	out := make([]domain.EventType, 0, len(m.Events))
	for _, e := range m.Events {
		out = append(out, e.EventType)
	}
	return out
}

// MockSettingRepository is a mock type for the SettingRepositoryFacade interface
type MockSettingRepository struct {
	mock.Mock
}

func (m *MockSettingRepository) FindSetting(ctx context.Context, key string) (*domain.Setting, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Setting), args.Error(1)
}

func (m *MockSettingRepository) ListSettings(ctx context.Context) ([]domain.Setting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Setting), args.Error(1)
}

func (m *MockSettingRepository) FindSettingForUpdate(ctx context.Context, tx pgx.Tx, key string) (*domain.Setting, error) {
	args := m.Called(ctx, tx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Setting), args.Error(1)
}

func (m *MockSettingRepository) UpsertSettingTx(ctx context.Context, tx pgx.Tx, setting domain.Setting) error {
	return m.Called(ctx, tx, setting).Error(0)
}

// MockReportingRepository is a mock type for the ReportingRepository interface
type MockReportingRepository struct {
	mock.Mock
}

func (m *MockReportingRepository) AccountTotalsAsOf(ctx context.Context, asOf time.Time) ([]domain.AccountTotals, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountTotals), args.Error(1)
}

func (m *MockReportingRepository) PeriodTotalsTx(ctx context.Context, tx pgx.Tx, periodID string) ([]domain.AccountTotals, error) {
	args := m.Called(ctx, tx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountTotals), args.Error(1)
}

// MockEventReader is a mock type for the EventReader interface
type MockEventReader struct {
	mock.Mock
}

func (m *MockEventReader) QueryEvents(ctx context.Context, aggregateID string, types []domain.EventType) ([]domain.StoredEvent, error) {
	args := m.Called(ctx, aggregateID, types)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoredEvent), args.Error(1)
}

// MockSettings is a map-backed SettingReaderSvc.
type MockSettings struct {
	Strings map[string]string
	Bools   map[string]bool
}

func (m *MockSettings) GetSetting(context.Context, string) (*domain.Setting, error) { return nil, nil }
func (m *MockSettings) ListSettings(context.Context) ([]domain.Setting, error)       { return nil, nil }

func (m *MockSettings) StringSetting(_ context.Context, key, def string) (string, error) {
	if v, ok := m.Strings[key]; ok {
		return v, nil
	}
	return def, nil
}

func (m *MockSettings) BoolSetting(_ context.Context, key string, def bool) (bool, error) {
	if v, ok := m.Bools[key]; ok {
		return v, nil
	}
	return def, nil
}

// fixedRefs hands out sequential references.
type fixedRefs struct{ n int }

func (f *fixedRefs) Next(prefix string) string {
	f.n++
	return fmt.Sprintf("%s-%04d", prefix, f.n)
}

var (
	_ portsrepo.UnitOfWork              = (*MockUnitOfWork)(nil)
	_ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)
	_ portsrepo.PeriodRepositoryFacade  = (*MockPeriodRepository)(nil)
	_ portsrepo.JournalRepositoryFacade = (*MockJournalRepository)(nil)
	_ portsrepo.FeeRepositoryFacade     = (*MockFeeRepository)(nil)
	_ portsrepo.LoanRepositoryFacade    = (*MockLoanRepository)(nil)
	_ portsrepo.OutboxWriter            = (*MockOutbox)(nil)
	_ portsrepo.SettingRepositoryFacade = (*MockSettingRepository)(nil)
	_ portsrepo.ReportingRepository     = (*MockReportingRepository)(nil)
	_ portsrepo.EventReader             = (*MockEventReader)(nil)
	_ portssvc.SettingReaderSvc         = (*MockSettings)(nil)
)

// MockPostingEngine records the system entries it is asked to post.
type MockPostingEngine struct {
	mock.Mock
	Posted []portssvc.SystemEntry
}

func (m *MockPostingEngine) PostSystemEntryTx(ctx context.Context, tx pgx.Tx, entry portssvc.SystemEntry, userID string) (*domain.JournalEntry, []domain.Event, error) {
	m.Posted = append(m.Posted, entry)
	args := m.Called(ctx, tx, entry, userID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var events []domain.Event
	if args.Get(1) != nil {
		events = args.Get(1).([]domain.Event)
	}
	return args.Get(0).(*domain.JournalEntry), events, args.Error(2)
}

func (m *MockPostingEngine) ReverseEntryTx(ctx context.Context, tx pgx.Tx, entryID string, reversalDate time.Time, userID string) (*domain.JournalEntry, []domain.Event, error) {
	args := m.Called(ctx, tx, entryID, reversalDate, userID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var events []domain.Event
	if args.Get(1) != nil {
		events = args.Get(1).([]domain.Event)
	}
	return args.Get(0).(*domain.JournalEntry), events, args.Error(2)
}

var _ portssvc.PostingEngine = (*MockPostingEngine)(nil)

// MockOutboxRelaySupport is a mock type for the OutboxRelaySupport interface
type MockOutboxRelaySupport struct {
	mock.Mock
}

func (m *MockOutboxRelaySupport) ClaimPendingTx(ctx context.Context, tx pgx.Tx, limit int) ([]domain.OutboxMessage, error) {
	args := m.Called(ctx, tx, limit)
	var msgs []domain.OutboxMessage
	if v := args.Get(0); v != nil {
		msgs = v.([]domain.OutboxMessage)
	}
	return msgs, args.Error(1)
}

func (m *MockOutboxRelaySupport) MarkDispatchedTx(ctx context.Context, tx pgx.Tx, ids []int64, at time.Time) error {
	return m.Called(ctx, tx, ids, at).Error(0)
}

func (m *MockOutboxRelaySupport) RecordFailureTx(ctx context.Context, tx pgx.Tx, id int64, lastError string) error {
	return m.Called(ctx, tx, id, lastError).Error(0)
}

var _ portsrepo.OutboxRelaySupport = (*MockOutboxRelaySupport)(nil)

// MockEventPublisher is a mock type for the EventPublisher interface
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.Event) error {
	return m.Called(ctx, event).Error(0)
}

var _ portsrepo.EventPublisher = (*MockEventPublisher)(nil)
