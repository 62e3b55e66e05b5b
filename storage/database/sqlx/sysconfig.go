package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/matibabu/core/sysconfig"
)

type settingRow struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedBy string    `db:"updated_by"`
	UpdatedAt time.Time `db:"updated_at"`
}

type sysconfigRepository struct {
	db *sqlx.DB
}

var _ sysconfig.Repository = (*sysconfigRepository)(nil) // interface compliance check

func NewSysconfigRepository(db *sqlx.DB) *sysconfigRepository {
	return &sysconfigRepository{db: db}
}

func (repo sysconfigRepository) QueryAllSettings(ctx context.Context) ([]sysconfig.Setting, error) {
	var rows []settingRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM setting ORDER BY key`); err != nil {
		return nil, errors.Wrap(err, "querying settings")
	}
	settings := make([]sysconfig.Setting, 0, len(rows))
	for _, row := range rows {
		settings = append(settings, sysconfig.Setting(row))
	}
	return settings, nil
}

func (repo sysconfigRepository) GetSettingByKey(ctx context.Context, key string) (sysconfig.Setting, error) {
	var row settingRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM setting WHERE key = $1`, key); err != nil {
		if err == sql.ErrNoRows {
			return sysconfig.Setting{}, sysconfig.ErrNotFound
		}
		return sysconfig.Setting{}, errors.Wrap(err, "getting setting")
	}
	return sysconfig.Setting(row), nil
}

func (repo sysconfigRepository) UpsertSetting(ctx context.Context, s sysconfig.Setting) (sysconfig.Setting, error) {
	q := `
INSERT INTO setting (key, value, updated_by, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at
RETURNING *`
	var row settingRow
	if err := repo.db.GetContext(ctx, &row, q, s.Key, s.Value, s.UpdatedBy, s.UpdatedAt); err != nil {
		return sysconfig.Setting{}, errors.Wrap(err, "upserting setting")
	}
	return sysconfig.Setting(row), nil
}

func (repo sysconfigRepository) DeleteSettingsByKey(ctx context.Context, keys ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM setting WHERE key = ANY($1)`, pq.Array(keys))
	return errors.Wrap(err, "deleting settings")
}
