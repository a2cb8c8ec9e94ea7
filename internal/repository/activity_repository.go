package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/ip-manager/internal/model"
)

// DefaultActivityLimit is how many entries the back office keeps in view.
const DefaultActivityLimit = 100

// ActivityRepo appends to and reads the activity_logs table. Rows are
// never updated or deleted.
type ActivityRepo struct{ DB sqlx.ExtContext }

func NewActivityRepo(db sqlx.ExtContext) *ActivityRepo { return &ActivityRepo{DB: db} }

func (r *ActivityRepo) AppendActivity(ctx context.Context, e model.ActivityLogEntry) error {
	_, err := sqlx.NamedExecContext(ctx, r.DB,
		`INSERT INTO activity_logs (id, action, details, user_name, timestamp)
		 VALUES (:id, :action, :details, :user_name, :timestamp)`, e)
	return err
}

// ListActivity returns the newest entries first. A limit <= 0 means
// DefaultActivityLimit.
func (r *ActivityRepo) ListActivity(ctx context.Context, limit int) ([]model.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	out := []model.ActivityLogEntry{}
	err := sqlx.SelectContext(ctx, r.DB, &out,
		"SELECT id, action, details, user_name, timestamp FROM activity_logs ORDER BY timestamp DESC, id DESC LIMIT ?",
		limit)
	return out, err
}
