package handlers_test

import (
	"context"
	"time"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/mfi_ledger/internal/core/ports/services"
	"github.com/SscSPs/mfi_ledger/internal/dto"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

// ret0 returns the first mock result as *T, tolerating nil.
func ret0[T any](args mock.Arguments) *T {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*T)
}

func slice0[T any](args mock.Arguments) []T {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]T)
}

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

func (m *MockAccountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	return ret0[domain.Account](args), args.Error(1)
}
func (m *MockAccountService) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	args := m.Called(ctx, code)
	return ret0[domain.Account](args), args.Error(1)
}
func (m *MockAccountService) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, limit, offset)
	return slice0[domain.Account](args), args.Error(1)
}
func (m *MockAccountService) GetAccountTree(ctx context.Context) (*domain.AccountTree, error) {
	args := m.Called(ctx)
	return ret0[domain.AccountTree](args), args.Error(1)
}
func (m *MockAccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, req, userID)
	return ret0[domain.Account](args), args.Error(1)
}
func (m *MockAccountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID, req, userID)
	return ret0[domain.Account](args), args.Error(1)
}
func (m *MockAccountService) ActivateAccount(ctx context.Context, accountID string, userID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID, userID)
	return ret0[domain.Account](args), args.Error(1)
}
func (m *MockAccountService) DeactivateAccount(ctx context.Context, accountID string, userID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID, userID)
	return ret0[domain.Account](args), args.Error(1)
}
func (m *MockAccountService) CloseAccount(ctx context.Context, accountID string, userID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID, userID)
	return ret0[domain.Account](args), args.Error(1)
}

// --- Mock PeriodService ---
type MockPeriodService struct {
	mock.Mock
}

var _ portssvc.PeriodSvcFacade = (*MockPeriodService)(nil)

func (m *MockPeriodService) GetPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error) {
	args := m.Called(ctx, periodID)
	return ret0[domain.AccountingPeriod](args), args.Error(1)
}
func (m *MockPeriodService) ListPeriods(ctx context.Context, fiscalYear *int) ([]domain.AccountingPeriod, error) {
	args := m.Called(ctx, fiscalYear)
	return slice0[domain.AccountingPeriod](args), args.Error(1)
}
func (m *MockPeriodService) ResolvePeriod(ctx context.Context, date time.Time) (*domain.AccountingPeriod, error) {
	args := m.Called(ctx, date)
	return ret0[domain.AccountingPeriod](args), args.Error(1)
}
func (m *MockPeriodService) CreatePeriod(ctx context.Context, req dto.CreatePeriodRequest, userID string) (*domain.AccountingPeriod, error) {
	args := m.Called(ctx, req, userID)
	return ret0[domain.AccountingPeriod](args), args.Error(1)
}
func (m *MockPeriodService) UpdatePeriod(ctx context.Context, periodID string, req dto.UpdatePeriodRequest, userID string) (*domain.AccountingPeriod, error) {
	args := m.Called(ctx, periodID, req, userID)
	return ret0[domain.AccountingPeriod](args), args.Error(1)
}
func (m *MockPeriodService) ClosePeriod(ctx context.Context, periodID string, req dto.ClosePeriodRequest, userID string) (*domain.AccountingPeriod, error) {
	args := m.Called(ctx, periodID, req, userID)
	return ret0[domain.AccountingPeriod](args), args.Error(1)
}
func (m *MockPeriodService) ReopenPeriod(ctx context.Context, periodID string, reason string, userID string) (*domain.AccountingPeriod, error) {
	args := m.Called(ctx, periodID, reason, userID)
	return ret0[domain.AccountingPeriod](args), args.Error(1)
}
func (m *MockPeriodService) LockPeriod(ctx context.Context, periodID string, userID string) (*domain.AccountingPeriod, error) {
	args := m.Called(ctx, periodID, userID)
	return ret0[domain.AccountingPeriod](args), args.Error(1)
}

// --- Mock JournalService ---
type MockJournalService struct {
	mock.Mock
}

var _ portssvc.JournalSvcFacade = (*MockJournalService)(nil)

func (m *MockJournalService) GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID)
	return ret0[domain.JournalEntry](args), args.Error(1)
}
func (m *MockJournalService) ListEntries(ctx context.Context, params dto.ListJournalEntriesParams) ([]domain.JournalEntry, *string, error) {
	args := m.Called(ctx, params)
	var next *string
	if args.Get(1) != nil {
		next = args.Get(1).(*string)
	}
	return slice0[domain.JournalEntry](args), next, args.Error(2)
}
func (m *MockJournalService) CreateDraft(ctx context.Context, req dto.CreateJournalEntryRequest, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, req, userID)
	return ret0[domain.JournalEntry](args), args.Error(1)
}
func (m *MockJournalService) AddLines(ctx context.Context, entryID string, lines []dto.JournalLineRequest, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, lines, userID)
	return ret0[domain.JournalEntry](args), args.Error(1)
}
func (m *MockJournalService) SubmitEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, userID)
	return ret0[domain.JournalEntry](args), args.Error(1)
}
func (m *MockJournalService) ApproveEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, userID)
	return ret0[domain.JournalEntry](args), args.Error(1)
}
func (m *MockJournalService) RejectEntry(ctx context.Context, entryID string, reason string, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, reason, userID)
	return ret0[domain.JournalEntry](args), args.Error(1)
}
func (m *MockJournalService) PostEntry(ctx context.Context, entryID string, postingDate *time.Time, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, postingDate, userID)
	return ret0[domain.JournalEntry](args), args.Error(1)
}
func (m *MockJournalService) ReverseEntry(ctx context.Context, entryID string, req dto.ReverseJournalEntryRequest, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, req, userID)
	return ret0[domain.JournalEntry](args), args.Error(1)
}
func (m *MockJournalService) AbandonEntry(ctx context.Context, entryID string, userID string) error {
	return m.Called(ctx, entryID, userID).Error(0)
}
func (m *MockJournalService) PostSystemEntryTx(ctx context.Context, tx pgx.Tx, entry portssvc.SystemEntry, userID string) (*domain.JournalEntry, []domain.Event, error) {
	args := m.Called(ctx, tx, entry, userID)
	return ret0[domain.JournalEntry](args), nil, args.Error(2)
}
func (m *MockJournalService) ReverseEntryTx(ctx context.Context, tx pgx.Tx, entryID string, reversalDate time.Time, userID string) (*domain.JournalEntry, []domain.Event, error) {
	args := m.Called(ctx, tx, entryID, reversalDate, userID)
	return ret0[domain.JournalEntry](args), nil, args.Error(2)
}

// --- Mock FeeService ---
type MockFeeService struct {
	mock.Mock
}

var _ portssvc.FeeSvcFacade = (*MockFeeService)(nil)

func (m *MockFeeService) CreateCharge(ctx context.Context, req dto.CreateFeeChargeRequest, userID string) (*domain.FeeCharge, error) {
	args := m.Called(ctx, req, userID)
	return ret0[domain.FeeCharge](args), args.Error(1)
}
func (m *MockFeeService) GetCharge(ctx context.Context, chargeID string) (*domain.FeeCharge, error) {
	args := m.Called(ctx, chargeID)
	return ret0[domain.FeeCharge](args), args.Error(1)
}
func (m *MockFeeService) ListChargesByMember(ctx context.Context, memberID string, limit int, offset int) ([]domain.FeeCharge, error) {
	args := m.Called(ctx, memberID, limit, offset)
	return slice0[domain.FeeCharge](args), args.Error(1)
}
func (m *MockFeeService) RecordPayment(ctx context.Context, chargeID string, req dto.RecordFeePaymentRequest, userID string) (*domain.FeePayment, error) {
	args := m.Called(ctx, chargeID, req, userID)
	return ret0[domain.FeePayment](args), args.Error(1)
}
func (m *MockFeeService) ListPayments(ctx context.Context, chargeID string) ([]domain.FeePayment, error) {
	args := m.Called(ctx, chargeID)
	return slice0[domain.FeePayment](args), args.Error(1)
}
func (m *MockFeeService) ReversePayment(ctx context.Context, paymentID string, reason string, userID string) (*domain.FeePayment, error) {
	args := m.Called(ctx, paymentID, reason, userID)
	return ret0[domain.FeePayment](args), args.Error(1)
}
func (m *MockFeeService) WaiveCharge(ctx context.Context, chargeID string, reason string, userID string) (*domain.FeeCharge, error) {
	args := m.Called(ctx, chargeID, reason, userID)
	return ret0[domain.FeeCharge](args), args.Error(1)
}
func (m *MockFeeService) ReverseCharge(ctx context.Context, chargeID string, reason string, userID string) (*domain.FeeCharge, error) {
	args := m.Called(ctx, chargeID, reason, userID)
	return ret0[domain.FeeCharge](args), args.Error(1)
}
func (m *MockFeeService) RequestWaiver(ctx context.Context, req dto.CreateFeeWaiverRequest, userID string) (*domain.FeeWaiver, error) {
	args := m.Called(ctx, req, userID)
	return ret0[domain.FeeWaiver](args), args.Error(1)
}
func (m *MockFeeService) GetWaiver(ctx context.Context, waiverID string) (*domain.FeeWaiver, error) {
	args := m.Called(ctx, waiverID)
	return ret0[domain.FeeWaiver](args), args.Error(1)
}
func (m *MockFeeService) ListWaivers(ctx context.Context, chargeID string) ([]domain.FeeWaiver, error) {
	args := m.Called(ctx, chargeID)
	return slice0[domain.FeeWaiver](args), args.Error(1)
}
func (m *MockFeeService) UpdateWaiver(ctx context.Context, waiverID string, req dto.UpdateFeeWaiverRequest, userID string) (*domain.FeeWaiver, error) {
	args := m.Called(ctx, waiverID, req, userID)
	return ret0[domain.FeeWaiver](args), args.Error(1)
}
func (m *MockFeeService) ApproveWaiver(ctx context.Context, waiverID string, userID string) (*domain.FeeWaiver, error) {
	args := m.Called(ctx, waiverID, userID)
	return ret0[domain.FeeWaiver](args), args.Error(1)
}
func (m *MockFeeService) RejectWaiver(ctx context.Context, waiverID string, reason string, userID string) (*domain.FeeWaiver, error) {
	args := m.Called(ctx, waiverID, reason, userID)
	return ret0[domain.FeeWaiver](args), args.Error(1)
}
func (m *MockFeeService) CancelWaiver(ctx context.Context, waiverID string, userID string) (*domain.FeeWaiver, error) {
	args := m.Called(ctx, waiverID, userID)
	return ret0[domain.FeeWaiver](args), args.Error(1)
}

// --- Mock LoanService ---
type MockLoanService struct {
	mock.Mock
}

var _ portssvc.LoanSvcFacade = (*MockLoanService)(nil)

func (m *MockLoanService) DisburseLoan(ctx context.Context, loanID string, req dto.DisburseLoanRequest, userID string) (*domain.LoanDisbursement, []domain.LoanSchedule, error) {
	args := m.Called(ctx, loanID, req, userID)
	var schedule []domain.LoanSchedule
	if args.Get(1) != nil {
		schedule = args.Get(1).([]domain.LoanSchedule)
	}
	return ret0[domain.LoanDisbursement](args), schedule, args.Error(2)
}
func (m *MockLoanService) GetSchedule(ctx context.Context, loanID string) ([]domain.LoanSchedule, error) {
	args := m.Called(ctx, loanID)
	return slice0[domain.LoanSchedule](args), args.Error(1)
}
func (m *MockLoanService) RecordRepayment(ctx context.Context, loanID string, req dto.RecordRepaymentRequest, userID string) (*domain.LoanRepayment, error) {
	args := m.Called(ctx, loanID, req, userID)
	return ret0[domain.LoanRepayment](args), args.Error(1)
}
func (m *MockLoanService) ListRepayments(ctx context.Context, loanID string) ([]domain.LoanRepayment, error) {
	args := m.Called(ctx, loanID)
	return slice0[domain.LoanRepayment](args), args.Error(1)
}

// --- Mock SettingService ---
type MockSettingService struct {
	mock.Mock
}

var _ portssvc.SettingSvcFacade = (*MockSettingService)(nil)

func (m *MockSettingService) GetSetting(ctx context.Context, key string) (*domain.Setting, error) {
	args := m.Called(ctx, key)
	return ret0[domain.Setting](args), args.Error(1)
}
func (m *MockSettingService) ListSettings(ctx context.Context) ([]domain.Setting, error) {
	args := m.Called(ctx)
	return slice0[domain.Setting](args), args.Error(1)
}
func (m *MockSettingService) StringSetting(ctx context.Context, key, def string) (string, error) {
	args := m.Called(ctx, key, def)
	return args.String(0), args.Error(1)
}
func (m *MockSettingService) BoolSetting(ctx context.Context, key string, def bool) (bool, error) {
	args := m.Called(ctx, key, def)
	return args.Bool(0), args.Error(1)
}
func (m *MockSettingService) PutSetting(ctx context.Context, key string, req dto.PutSettingRequest, userID string) (*domain.Setting, error) {
	args := m.Called(ctx, key, req, userID)
	return ret0[domain.Setting](args), args.Error(1)
}

// --- Mock ReportingService ---
type MockReportingService struct {
	mock.Mock
}

var _ portssvc.ReportingService = (*MockReportingService)(nil)

func (m *MockReportingService) GetTrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalance, error) {
	args := m.Called(ctx, asOf)
	return ret0[domain.TrialBalance](args), args.Error(1)
}

// --- Mock EventQueryService ---
type MockEventQueryService struct {
	mock.Mock
}

var _ portssvc.EventQuerySvc = (*MockEventQueryService)(nil)

func (m *MockEventQueryService) ListEvents(ctx context.Context, aggregateID string, types []string) ([]domain.StoredEvent, error) {
	args := m.Called(ctx, aggregateID, types)
	return slice0[domain.StoredEvent](args), args.Error(1)
}
