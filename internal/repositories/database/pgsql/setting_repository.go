package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mfi_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxSettingRepository struct {
	BaseRepository
}

func newPgxSettingRepository(pool *pgxpool.Pool) portsrepo.SettingRepositoryFacade {
	return &PgxSettingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SettingRepositoryFacade = (*PgxSettingRepository)(nil)

const settingColumns = `key, kind, raw_value, description, created_at, created_by, last_updated_at, last_updated_by, version`

// scanSetting decodes the stored raw text by its stored kind.
func scanSetting(row pgx.Row) (domain.Setting, error) {
	var s domain.Setting
	var kind domain.SettingKind
	var raw string
	if err := row.Scan(&s.Key, &kind, &raw, &s.Description, &s.CreatedAt, &s.CreatedBy, &s.LastUpdatedAt, &s.LastUpdatedBy, &s.Version); err != nil {
		return s, err
	}
	value, err := domain.DecodeSettingValue(kind, raw)
	if err != nil {
		return s, fmt.Errorf("stored setting %s: %w", s.Key, err)
	}
	s.Value = value
	return s, nil
}

func (r *PgxSettingRepository) FindSetting(ctx context.Context, key string) (*domain.Setting, error) {
	s, err := scanSetting(r.Pool.QueryRow(ctx, `SELECT `+settingColumns+` FROM ledger_settings WHERE key = $1;`, key))
	if err != nil {
		return nil, mapError(err, "find setting "+key)
	}
	return &s, nil
}

func (r *PgxSettingRepository) FindSettingForUpdate(ctx context.Context, tx pgx.Tx, key string) (*domain.Setting, error) {
	s, err := scanSetting(tx.QueryRow(ctx, `SELECT `+settingColumns+` FROM ledger_settings WHERE key = $1 FOR UPDATE;`, key))
	if err != nil {
		return nil, mapError(err, "lock setting "+key)
	}
	return &s, nil
}

func (r *PgxSettingRepository) ListSettings(ctx context.Context) ([]domain.Setting, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+settingColumns+` FROM ledger_settings ORDER BY key;`)
	if err != nil {
		return nil, mapError(err, "list settings")
	}
	defer rows.Close()
	settings := []domain.Setting{}
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, mapError(err, "scan setting row")
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list settings")
	}
	return settings, nil
}

// UpsertSettingTx inserts a new key or replaces the value of an existing one.
// An existing row is only replaced while its version still matches.
func (r *PgxSettingRepository) UpsertSettingTx(ctx context.Context, tx pgx.Tx, s domain.Setting) error {
	query := `
		INSERT INTO ledger_settings (` + settingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (key) DO UPDATE
		SET raw_value = EXCLUDED.raw_value, description = EXCLUDED.description,
		    last_updated_at = EXCLUDED.last_updated_at, last_updated_by = EXCLUDED.last_updated_by,
		    version = ledger_settings.version + 1
		WHERE ledger_settings.version = $9 AND ledger_settings.kind = EXCLUDED.kind;
	`
	tag, err := tx.Exec(ctx, query,
		s.Key, s.Value.Kind(), s.Value.Raw(), s.Description,
		s.CreatedAt, s.CreatedBy, s.LastUpdatedAt, s.LastUpdatedBy, s.Version,
	)
	if err != nil {
		return mapError(err, "upsert setting "+s.Key)
	}
	return expectOneRow(tag, "setting", s.Key, s.Version)
}
