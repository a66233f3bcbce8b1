package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/mfi_ledger/internal/apperrors"
	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/mfi_ledger/internal/core/ports/services"
	"github.com/SscSPs/mfi_ledger/internal/dto"
	"github.com/SscSPs/mfi_ledger/internal/handlers"
	"github.com/SscSPs/mfi_ledger/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const testUserID = "user-1"

type HandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	cfg       *config.Config
	accounts  *MockAccountService
	periods   *MockPeriodService
	journal   *MockJournalService
	fees      *MockFeeService
	loans     *MockLoanService
	settings  *MockSettingService
	reporting *MockReportingService
	events    *MockEventQueryService
}

func (s *HandlerTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.Require().NoError(handlers.RegisterValidators())
}

func (s *HandlerTestSuite) SetupTest() {
	s.cfg = &config.Config{
		IsProduction: true,
		JWTSecret:    "test-secret-key-that-is-long-enough",
		JWTIssuer:    "mfi-ledger-test",
	}
	s.accounts = new(MockAccountService)
	s.periods = new(MockPeriodService)
	s.journal = new(MockJournalService)
	s.fees = new(MockFeeService)
	s.loans = new(MockLoanService)
	s.settings = new(MockSettingService)
	s.reporting = new(MockReportingService)
	s.events = new(MockEventQueryService)

	s.router = gin.New()
	handlers.RegisterRoutes(s.router, s.cfg, &portssvc.ServiceContainer{
		Account:   s.accounts,
		Period:    s.periods,
		Journal:   s.journal,
		Fee:       s.fees,
		Loan:      s.loans,
		Setting:   s.settings,
		Reporting: s.reporting,
		Events:    s.events,
	}, nil, nil)
}

func (s *HandlerTestSuite) TearDownTest() {
	s.accounts.AssertExpectations(s.T())
	s.periods.AssertExpectations(s.T())
	s.journal.AssertExpectations(s.T())
	s.fees.AssertExpectations(s.T())
	s.loans.AssertExpectations(s.T())
	s.reporting.AssertExpectations(s.T())
	s.events.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) token() string {
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.JWTIssuer,
		Subject:   testUserID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	s.Require().NoError(err)
	return signed
}

func (s *HandlerTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) decodeError(w *httptest.ResponseRecorder) handlers.ErrorResponse {
	var res handlers.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func (s *HandlerTestSuite) TestHealthIsPublic() {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestMissingTokenIsUnauthorized() {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil))
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerTestSuite) TestCreateAccount_Success() {
	req := dto.CreateAccountRequest{Code: "1100", Name: "Cash", AccountType: domain.Asset}
	s.accounts.On("CreateAccount", mock.Anything, req, testUserID).
		Return(&domain.Account{AccountID: "acc-1", Code: "1100", Name: "Cash", AccountType: domain.Asset, Status: domain.AccountActive}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/accounts", req)

	s.Equal(http.StatusCreated, w.Code)
	var res dto.AccountResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	s.Equal("acc-1", res.AccountID)
	s.Equal("1100", res.Code)
}

func (s *HandlerTestSuite) TestCreateAccount_DuplicateCode() {
	req := dto.CreateAccountRequest{Code: "1100", Name: "Cash", AccountType: domain.Asset}
	s.accounts.On("CreateAccount", mock.Anything, req, testUserID).
		Return(nil, fmt.Errorf("save account: %w", domain.ErrDuplicateCode)).Once()

	w := s.do(http.MethodPost, "/api/v1/accounts", req)

	s.Equal(http.StatusConflict, w.Code)
	s.Equal("DUPLICATE_CODE", s.decodeError(w).Code)
}

func (s *HandlerTestSuite) TestCreateAccount_InvalidType() {
	w := s.do(http.MethodPost, "/api/v1/accounts", map[string]any{"code": "1", "name": "x", "accountType": "CASH"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.accounts.AssertNotCalled(s.T(), "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestGetAccount_NotFound() {
	s.accounts.On("GetAccountByID", mock.Anything, "missing").
		Return(nil, fmt.Errorf("find account missing: %w", apperrors.ErrNotFound)).Once()

	w := s.do(http.MethodGet, "/api/v1/accounts/missing", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestCloseAccount_NonZeroBalance() {
	s.accounts.On("CloseAccount", mock.Anything, "acc-1", testUserID).Return(nil, domain.ErrNonZeroBalance).Once()

	w := s.do(http.MethodPost, "/api/v1/accounts/acc-1/close", nil)
	s.Equal(http.StatusConflict, w.Code)
	res := s.decodeError(w)
	s.Equal("NON_ZERO_BALANCE", res.Code)
	s.False(res.Retryable)
}

func (s *HandlerTestSuite) TestInternalErrorsAreNotLeaked() {
	s.accounts.On("ListAccounts", mock.Anything, 50, 0).Return(nil, fmt.Errorf("dial tcp 10.0.0.1:5432: connection refused")).Once()

	w := s.do(http.MethodGet, "/api/v1/accounts", nil)
	s.Equal(http.StatusInternalServerError, w.Code)
	s.NotContains(w.Body.String(), "10.0.0.1")
}

func (s *HandlerTestSuite) TestCreateEntry_RejectsZeroAmountLine() {
	body := map[string]any{
		"entryDate":   "2025-01-15T00:00:00Z",
		"description": "opening",
		"lines": []map[string]any{
			{"accountID": "acc-1", "side": "DEBIT", "amount": "0"},
		},
	}
	w := s.do(http.MethodPost, "/api/v1/journal-entries", body)
	s.Equal(http.StatusBadRequest, w.Code)
	s.journal.AssertNotCalled(s.T(), "CreateDraft", mock.Anything, mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestCreateEntry_Success() {
	s.journal.On("CreateDraft", mock.Anything, mock.MatchedBy(func(r dto.CreateJournalEntryRequest) bool {
		return len(r.Lines) == 2 && r.Lines[0].Amount.Equal(decimal.NewFromInt(100))
	}), testUserID).Return(&domain.JournalEntry{EntryID: "je-1", Status: domain.JournalDraft}, nil).Once()

	body := map[string]any{
		"entryDate":   "2025-01-15T00:00:00Z",
		"description": "opening",
		"lines": []map[string]any{
			{"accountID": "acc-1", "side": "DEBIT", "amount": "100"},
			{"accountID": "acc-2", "side": "CREDIT", "amount": "100"},
		},
	}
	w := s.do(http.MethodPost, "/api/v1/journal-entries", body)
	s.Equal(http.StatusCreated, w.Code)
}

func (s *HandlerTestSuite) TestPostEntry_ClosedPeriodIsUnprocessable() {
	s.journal.On("PostEntry", mock.Anything, "je-1", (*time.Time)(nil), testUserID).
		Return(nil, domain.ErrPeriodClosed).Once()

	w := s.do(http.MethodPost, "/api/v1/journal-entries/je-1/post", nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("PERIOD_CLOSED", s.decodeError(w).Code)
}

func (s *HandlerTestSuite) TestPostEntry_ConflictIsRetryable() {
	s.journal.On("PostEntry", mock.Anything, "je-1", mock.Anything, testUserID).
		Return(nil, fmt.Errorf("%w: gave up after 3 attempts", apperrors.ErrConflict)).Once()

	w := s.do(http.MethodPost, "/api/v1/journal-entries/je-1/post", map[string]any{"postingDate": "2025-01-31T00:00:00Z"})
	s.Equal(http.StatusConflict, w.Code)
	s.True(s.decodeError(w).Retryable)
}

func (s *HandlerTestSuite) TestListEntries_PassesToken() {
	next := "token-2"
	s.journal.On("ListEntries", mock.Anything, mock.MatchedBy(func(p dto.ListJournalEntriesParams) bool {
		return p.Limit == 10 && p.NextToken != nil && *p.NextToken == "token-1"
	})).Return([]domain.JournalEntry{{EntryID: "je-1"}}, &next, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/journal-entries?limit=10&nextToken=token-1", nil)
	s.Equal(http.StatusOK, w.Code)
	var res dto.ListJournalEntriesResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	s.Len(res.Entries, 1)
	s.Require().NotNil(res.NextToken)
	s.Equal("token-2", *res.NextToken)
}

func (s *HandlerTestSuite) TestRejectEntry_RequiresReason() {
	w := s.do(http.MethodPost, "/api/v1/journal-entries/je-1/reject", map[string]any{})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestRecordFeePayment() {
	s.fees.On("RecordPayment", mock.Anything, "fc-1", mock.MatchedBy(func(r dto.RecordFeePaymentRequest) bool {
		return r.Amount.Equal(decimal.RequireFromString("40.50")) && r.PaymentMethod == domain.PaymentMethod("CASH")
	}), testUserID).Return(&domain.FeePayment{PaymentID: "fp-1", ChargeID: "fc-1"}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/fee-charges/fc-1/payments", map[string]any{"amount": "40.50", "paymentMethod": "CASH"})
	s.Equal(http.StatusCreated, w.Code)
}

func (s *HandlerTestSuite) TestRecordFeePayment_Overpayment() {
	s.fees.On("RecordPayment", mock.Anything, "fc-1", mock.Anything, testUserID).Return(nil, domain.ErrInvalidAmount).Once()

	w := s.do(http.MethodPost, "/api/v1/fee-charges/fc-1/payments", map[string]any{"amount": "1000"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("INVALID_AMOUNT", s.decodeError(w).Code)
}

func (s *HandlerTestSuite) TestListCharges_RequiresMember() {
	w := s.do(http.MethodGet, "/api/v1/fee-charges", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestRecordRepayment_RejectsNegativeComponent() {
	w := s.do(http.MethodPost, "/api/v1/loans/loan-1/repayments", map[string]any{"principalAmount": "-5"})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestResolvePeriod_RequiresDate() {
	w := s.do(http.MethodGet, "/api/v1/periods/resolve", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestResolvePeriod_NoPeriod() {
	s.periods.On("ResolvePeriod", mock.Anything, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)).
		Return(nil, domain.ErrNoPeriodDefined).Once()

	w := s.do(http.MethodGet, "/api/v1/periods/resolve?date=2030-01-01", nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlerTestSuite) TestClosePeriod_WithoutBody() {
	s.periods.On("ClosePeriod", mock.Anything, "p-1", dto.ClosePeriodRequest{}, testUserID).
		Return(&domain.AccountingPeriod{PeriodID: "p-1", Status: domain.PeriodClosed}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/periods/p-1/close", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestTrialBalance() {
	s.reporting.On("GetTrialBalance", mock.Anything, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)).
		Return(&domain.TrialBalance{AsOf: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), IsBalanced: true}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/reports/trial-balance?asOf=2025-03-31", nil)
	s.Equal(http.StatusOK, w.Code)
	var res dto.TrialBalanceResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	s.Equal("2025-03-31", res.AsOf)
	s.True(res.IsBalanced)
}

func (s *HandlerTestSuite) TestListEvents() {
	s.events.On("ListEvents", mock.Anything, "fc-1", []string{"FeeChargeCreated", "FeePaymentRecorded"}).
		Return([]domain.StoredEvent{{SequenceNumber: 1, EventType: "FeeChargeCreated"}}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/events?aggregateId=fc-1&type=FeeChargeCreated&type=FeePaymentRecorded", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestPutSetting_KindMismatch() {
	req := dto.PutSettingRequest{Kind: domain.SettingKind("INT"), Value: "5"}
	s.settings.On("PutSetting", mock.Anything, "journal.auto_post_system_entries", req, testUserID).
		Return(nil, domain.ErrSettingTypeMismatch).Once()

	w := s.do(http.MethodPut, "/api/v1/settings/journal.auto_post_system_entries", req)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("SETTING_TYPE_MISMATCH", s.decodeError(w).Code)
}

func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
