package repositories

import (
	"context"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// SettingRepositoryFacade persists typed ledger settings
type SettingRepositoryFacade interface {
	FindSetting(ctx context.Context, key string) (*domain.Setting, error)
	ListSettings(ctx context.Context) ([]domain.Setting, error)

	FindSettingForUpdate(ctx context.Context, tx pgx.Tx, key string) (*domain.Setting, error)

	// UpsertSettingTx inserts a new key or replaces the value of an existing one.
	UpsertSettingTx(ctx context.Context, tx pgx.Tx, setting domain.Setting) error
}
