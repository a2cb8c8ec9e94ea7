package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/ip-manager/internal/model"
)

// settingsRowID is the id of the only settings row.
const settingsRowID = 1

// SettingsRepo reads and writes the single settings row.
type SettingsRepo struct{ DB sqlx.ExtContext }

func NewSettingsRepo(db sqlx.ExtContext) *SettingsRepo { return &SettingsRepo{DB: db} }

// GetSettings returns the stored settings, or the defaults when the row
// has not been written yet.
func (r *SettingsRepo) GetSettings(ctx context.Context) (model.Settings, error) {
	var s model.Settings
	err := sqlx.GetContext(ctx, r.DB, &s,
		"SELECT id, app_name, currency, date_format, logo_url, language, theme, updated_at FROM settings WHERE id=?",
		settingsRowID)
	if errors.Is(notFound(err), ErrNotFound) {
		d := model.DefaultSettings()
		d.ID = settingsRowID
		return d, nil
	}
	return s, err
}

// SaveSettings upserts the settings row.
func (r *SettingsRepo) SaveSettings(ctx context.Context, s model.Settings) error {
	s.ID = settingsRowID
	_, err := sqlx.NamedExecContext(ctx, r.DB,
		`INSERT INTO settings (id, app_name, currency, date_format, logo_url, language, theme, updated_at)
		 VALUES (:id, :app_name, :currency, :date_format, :logo_url, :language, :theme, :updated_at)
		 ON DUPLICATE KEY UPDATE app_name=VALUES(app_name), currency=VALUES(currency),
		 date_format=VALUES(date_format), logo_url=VALUES(logo_url), language=VALUES(language),
		 theme=VALUES(theme), updated_at=VALUES(updated_at)`, s)
	return err
}
