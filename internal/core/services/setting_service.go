package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/mfi_ledger/internal/apperrors"
	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mfi_ledger/internal/core/ports/services"
	"github.com/SscSPs/mfi_ledger/internal/dto"
)

type settingService struct {
	BaseService
	uow  portsrepo.UnitOfWork
	repo portsrepo.SettingRepositoryFacade
}

// NewSettingService creates the typed settings service.
func NewSettingService(uow portsrepo.UnitOfWork, repo portsrepo.SettingRepositoryFacade) portssvc.SettingSvcFacade {
	return &settingService{uow: uow, repo: repo}
}

var _ portssvc.SettingSvcFacade = (*settingService)(nil)

func (s *settingService) GetSetting(ctx context.Context, key string) (*domain.Setting, error) {
	setting, err := s.repo.FindSetting(ctx, key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to read setting", slog.String("key", key))
		}
		return nil, err
	}
	return setting, nil
}

func (s *settingService) ListSettings(ctx context.Context) ([]domain.Setting, error) {
	settings, err := s.repo.ListSettings(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list settings")
		return nil, err
	}
	if settings == nil {
		return []domain.Setting{}, nil
	}
	return settings, nil
}

func (s *settingService) StringSetting(ctx context.Context, key, def string) (string, error) {
	setting, err := s.repo.FindSetting(ctx, key)
	if errors.Is(err, apperrors.ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value.AsString()
}

func (s *settingService) BoolSetting(ctx context.Context, key string, def bool) (bool, error) {
	setting, err := s.repo.FindSetting(ctx, key)
	if errors.Is(err, apperrors.ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return false, err
	}
	return setting.Value.AsBool()
}

// PutSetting declares a new key or replaces the value of an existing one.
// An existing key keeps its declared kind.
func (s *settingService) PutSetting(ctx context.Context, key string, req dto.PutSettingRequest, userID string) (*domain.Setting, error) {
	value, err := domain.DecodeSettingValue(req.Kind, req.Value)
	if err != nil {
		return nil, err
	}
	var stored domain.Setting
	err = s.uow.Do(ctx, func(ctx context.Context, tx pgx.Tx) error {
		now := s.Now()
		current, err := s.repo.FindSettingForUpdate(ctx, tx, key)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			stored, err = domain.NewSetting(key, value, req.Description, userID, now)
		case err != nil:
			return err
		default:
			stored, err = current.Replace(value, userID, now)
			if err == nil && req.Description != "" {
				stored.Description = req.Description
			}
		}
		if err != nil {
			return err
		}
		return s.repo.UpsertSettingTx(ctx, tx, stored)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to store setting", slog.String("key", key))
		return nil, err
	}
	s.LogInfo(ctx, "Setting stored", slog.String("key", key), slog.String("kind", string(value.Kind())))
	return &stored, nil
}
