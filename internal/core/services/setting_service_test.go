package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/mfi_ledger/internal/apperrors"
	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/SscSPs/mfi_ledger/internal/core/services"
	"github.com/SscSPs/mfi_ledger/internal/dto"
)

func TestSettingService_DefaultsWhenMissing(t *testing.T) {
	repo := new(MockSettingRepository)
	repo.On("FindSetting", mock.Anything, mock.Anything).Return(nil, apperrors.ErrNotFound)
	svc := services.NewSettingService(&MockUnitOfWork{}, repo)

	s, err := svc.StringSetting(context.Background(), domain.SettingCashDefaultAccount, "1000")
	require.NoError(t, err)
	assert.Equal(t, "1000", s)

	b, err := svc.BoolSetting(context.Background(), domain.SettingAutoPostSystemEntries, true)
	require.NoError(t, err)
	assert.True(t, b)
}

func TestSettingService_ReadingWrongKindFails(t *testing.T) {
	repo := new(MockSettingRepository)
	stored, err := domain.NewSetting("journal.auto_post_system_entries", domain.StringValue("yes"), "", "admin", testNow)
	require.NoError(t, err)
	repo.On("FindSetting", mock.Anything, "journal.auto_post_system_entries").Return(&stored, nil)
	svc := services.NewSettingService(&MockUnitOfWork{}, repo)

	_, err = svc.BoolSetting(context.Background(), "journal.auto_post_system_entries", true)
	assert.ErrorIs(t, err, domain.ErrSettingTypeMismatch)
}

func TestSettingService_PutSettingDeclaresNewKey(t *testing.T) {
	repo := new(MockSettingRepository)
	repo.On("FindSettingForUpdate", mock.Anything, mock.Anything, "loans.grace_days").Return(nil, apperrors.ErrNotFound).Once()
	repo.On("UpsertSettingTx", mock.Anything, mock.Anything, mock.MatchedBy(func(s domain.Setting) bool {
		n, err := s.Value.AsInt()
		return err == nil && n == 5
	})).Return(nil).Once()
	svc := services.NewSettingService(&MockUnitOfWork{}, repo)

	s, err := svc.PutSetting(context.Background(), "loans.grace_days", dto.PutSettingRequest{Kind: domain.KindInt, Value: "5", Description: "grace"}, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.KindInt, s.Value.Kind())
	assert.Equal(t, "grace", s.Description)
	repo.AssertExpectations(t)
}

func TestSettingService_PutSettingKeepsDeclaredKind(t *testing.T) {
	repo := new(MockSettingRepository)
	current, err := domain.NewSetting("loans.grace_days", domain.IntValue(5), "", "admin", testNow)
	require.NoError(t, err)
	repo.On("FindSettingForUpdate", mock.Anything, mock.Anything, "loans.grace_days").Return(&current, nil).Once()
	svc := services.NewSettingService(&MockUnitOfWork{}, repo)

	_, err = svc.PutSetting(context.Background(), "loans.grace_days", dto.PutSettingRequest{Kind: domain.KindBool, Value: "true"}, "admin")
	assert.ErrorIs(t, err, domain.ErrSettingTypeMismatch)
	repo.AssertNotCalled(t, "UpsertSettingTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettingService_PutSettingRejectsUnparsableValue(t *testing.T) {
	repo := new(MockSettingRepository)
	uow := &MockUnitOfWork{}
	svc := services.NewSettingService(uow, repo)

	_, err := svc.PutSetting(context.Background(), "loans.grace_days", dto.PutSettingRequest{Kind: domain.KindInt, Value: "five"}, "admin")
	assert.ErrorIs(t, err, domain.ErrInvalidSetting)
	assert.Zero(t, uow.Calls)
}
