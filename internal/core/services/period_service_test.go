package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/mfi_ledger/internal/apperrors"
	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/mfi_ledger/internal/core/ports/services"
	"github.com/SscSPs/mfi_ledger/internal/core/services"
	"github.com/SscSPs/mfi_ledger/internal/dto"
)

type PeriodServiceTestSuite struct {
	suite.Suite
	ctx        context.Context
	periodRepo *MockPeriodRepository
	reporting  *MockReportingRepository
	outbox     *MockOutbox
	service    portssvc.PeriodSvcFacade
}

func (suite *PeriodServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.periodRepo = new(MockPeriodRepository)
	suite.reporting = new(MockReportingRepository)
	suite.outbox = &MockOutbox{}
	suite.service = services.NewPeriodService(&MockUnitOfWork{}, suite.periodRepo, suite.reporting, suite.outbox, services.WithPeriodClock(clock))
}

func february() dto.CreatePeriodRequest {
	return dto.CreatePeriodRequest{
		Name:         "February 2024",
		StartDate:    time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		PeriodType:   domain.PeriodMonth,
		FiscalYear:   2024,
		PeriodNumber: 2,
	}
}

func (suite *PeriodServiceTestSuite) TestCreatePeriod_Success() {
	req := february()
	suite.periodRepo.On("LockCalendarTx", mock.Anything, mock.Anything).Return(nil).Once()
	suite.periodRepo.On("FindOverlappingPeriodsTx", mock.Anything, mock.Anything, req.StartDate, req.EndDate).Return(nil, nil).Once()
	suite.periodRepo.On("SavePeriodTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	period, err := suite.service.CreatePeriod(suite.ctx, req, "admin")
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodOpen, period.Status)
	suite.NotEmpty(period.PeriodID)
	suite.Equal([]domain.EventType{domain.EventAccountingPeriodCreated}, suite.outbox.Types())
	suite.periodRepo.AssertExpectations(suite.T())
}

func (suite *PeriodServiceTestSuite) TestCreatePeriod_Overlap() {
	req := february()
	req.StartDate = jan(20)
	suite.periodRepo.On("LockCalendarTx", mock.Anything, mock.Anything).Return(nil).Once()
	suite.periodRepo.On("FindOverlappingPeriodsTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.AccountingPeriod{openJanuary()}, nil).Once()

	_, err := suite.service.CreatePeriod(suite.ctx, req, "admin")
	suite.ErrorIs(err, domain.ErrPeriodOverlap)
	suite.periodRepo.AssertNotCalled(suite.T(), "SavePeriodTx", mock.Anything, mock.Anything, mock.Anything)
	suite.Empty(suite.outbox.Events)
}

func (suite *PeriodServiceTestSuite) TestCreatePeriod_InvalidRange() {
	req := february()
	req.EndDate = req.StartDate

	_, err := suite.service.CreatePeriod(suite.ctx, req, "admin")
	suite.ErrorIs(err, domain.ErrInvalidPeriod)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *PeriodServiceTestSuite) TestResolvePeriod_NoneDefined() {
	suite.periodRepo.On("FindPeriodByDate", mock.Anything, mock.Anything).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ResolvePeriod(suite.ctx, time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC))
	suite.ErrorIs(err, domain.ErrNoPeriodDefined)
	suite.Contains(err.Error(), "2030-06-01")
}

func (suite *PeriodServiceTestSuite) TestClosePeriod_ExplicitBalanceSkipsSnapshot() {
	period := openJanuary()
	suite.periodRepo.On("FindPeriodForUpdate", mock.Anything, mock.Anything, "p-jan").Return(&period, nil).Once()
	suite.periodRepo.On("UpdatePeriodTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	balance := dec("1250.50")
	closed, err := suite.service.ClosePeriod(suite.ctx, "p-jan", dto.ClosePeriodRequest{ClosingBalance: &balance}, "controller")
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodClosed, closed.Status)
	suite.True(balance.Equal(*closed.ClosingBalance))
	suite.reporting.AssertNotCalled(suite.T(), "PeriodTotalsTx", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PeriodServiceTestSuite) TestReopenPeriod_RequiresReason() {
	period := openJanuary()
	period, _, err := period.Close("controller", nil, testNow)
	suite.Require().NoError(err)
	suite.periodRepo.On("FindPeriodForUpdate", mock.Anything, mock.Anything, "p-jan").Return(&period, nil)

	_, err = suite.service.ReopenPeriod(suite.ctx, "p-jan", "  ", "controller")
	suite.ErrorIs(err, domain.ErrReasonRequired)

	suite.periodRepo.On("UpdatePeriodTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	reopened, err := suite.service.ReopenPeriod(suite.ctx, "p-jan", "late invoice", "controller")
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodOpen, reopened.Status)
	suite.Require().NotNil(reopened.ClosingTransactionCount)
	suite.Equal(*period.ClosingTransactionCount, *reopened.ClosingTransactionCount)
	suite.Nil(reopened.ClosingBalance)
	suite.Equal("late invoice", reopened.ReopenReason)
}

func (suite *PeriodServiceTestSuite) TestLockPeriod_LockedCannotReopen() {
	period := openJanuary()
	period, _, err := period.Close("controller", nil, testNow)
	suite.Require().NoError(err)
	stored := &period
	suite.periodRepo.On("FindPeriodForUpdate", mock.Anything, mock.Anything, "p-jan").Return(stored, nil)
	suite.periodRepo.On("UpdatePeriodTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		*stored = args.Get(2).(domain.AccountingPeriod)
	}).Once()

	locked, err := suite.service.LockPeriod(suite.ctx, "p-jan", "auditor")
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodLocked, locked.Status)
	suite.Equal("auditor", locked.LockedBy)

	_, err = suite.service.ReopenPeriod(suite.ctx, "p-jan", "needs fix", "controller")
	suite.ErrorIs(err, domain.ErrPeriodLocked)
}

func (suite *PeriodServiceTestSuite) TestUpdatePeriod_ClosedRejected() {
	period := openJanuary()
	period, _, err := period.Close("controller", nil, testNow)
	suite.Require().NoError(err)
	suite.periodRepo.On("FindPeriodForUpdate", mock.Anything, mock.Anything, "p-jan").Return(&period, nil).Once()

	name := "Jan"
	_, err = suite.service.UpdatePeriod(suite.ctx, "p-jan", dto.UpdatePeriodRequest{Name: &name}, "controller")
	suite.ErrorIs(err, domain.ErrPeriodNotOpen)
}

func TestPeriodService(t *testing.T) {
	suite.Run(t, new(PeriodServiceTestSuite))
}
