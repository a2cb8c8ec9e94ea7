package backoffice

import (
	"context"

	"github.com/iliyamo/ip-manager/internal/model"
	"github.com/iliyamo/ip-manager/internal/notify"
	"github.com/iliyamo/ip-manager/internal/report"
)

// Notifications derives the notification list from the snapshot.
func (c *Coordinator) Notifications() notify.Summary {
	s := c.Snapshot()
	return notify.Summarize(s.Transactions, s.Inventory, c.now())
}

// Dashboard computes the dashboard figures from the snapshot.
func (c *Coordinator) Dashboard() report.Dashboard {
	s := c.Snapshot()
	return report.BuildDashboard(s.Transactions, s.Inventory, c.now())
}

// Report computes the report figures from the snapshot.
func (c *Coordinator) Report() report.Summary {
	return report.BuildSummary(c.Snapshot().Transactions)
}

// Search matches q against the mirrored items and transactions.
func (c *Coordinator) Search(q string) report.SearchResult {
	s := c.Snapshot()
	return report.Search(q, s.Inventory, s.Transactions)
}

// Activity returns up to limit entries, newest first. Limits above what
// the snapshot holds are served from the store.
func (c *Coordinator) Activity(ctx context.Context, limit int) ([]model.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = ActivityLimit
	}
	if limit > ActivityLimit {
		return c.d.Activity.ListActivity(ctx, limit)
	}
	logs := c.Snapshot().Activity
	return logs[:min(limit, len(logs))], nil
}
