package services

import (
	"context"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/SscSPs/mfi_ledger/internal/dto"
)

// SettingReaderSvc is the typed view other services use.
type SettingReaderSvc interface {
	GetSetting(ctx context.Context, key string) (*domain.Setting, error)
	ListSettings(ctx context.Context) ([]domain.Setting, error)

	// StringSetting returns a STRING setting, or def when the key is not set.
	StringSetting(ctx context.Context, key, def string) (string, error)

	// BoolSetting returns a BOOL setting, or def when the key is not set.
	BoolSetting(ctx context.Context, key string, def bool) (bool, error)
}

// SettingSvcFacade adds writes to the typed view
type SettingSvcFacade interface {
	SettingReaderSvc
	PutSetting(ctx context.Context, key string, req dto.PutSettingRequest, userID string) (*domain.Setting, error)
}
