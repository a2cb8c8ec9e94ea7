package backoffice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/ip-manager/internal/model"
)

// Export is the backup document. Users carry no credential digests.
type Export struct {
	Inventory    []model.InventoryItem `json:"inventory"`
	Transactions []model.Transaction   `json:"transactions"`
	Users        []model.Profile       `json:"users"`
	Suppliers    []model.Supplier      `json:"suppliers"`
	Settings     model.Settings        `json:"settings"`
	ExportDate   time.Time             `json:"export_date"`
}

// Export returns the snapshot as a backup document.
func (c *Coordinator) Export() Export {
	s := c.Snapshot()
	return Export{
		Inventory:    s.Inventory,
		Transactions: s.Transactions,
		Users:        s.Users,
		Suppliers:    s.Suppliers,
		Settings:     s.Settings,
		ExportDate:   c.now().UTC(),
	}
}

// Import upserts the inventory and transactions of doc by id and reloads
// the snapshot. Imported sales do not change stock. Other sections are
// ignored.
func (c *Coordinator) Import(ctx context.Context, actor string, doc Export) error {
	var errs []error
	for _, it := range doc.Inventory {
		if it.ID == "" {
			errs = append(errs, fmt.Errorf("%w: inventory item without id", ErrInvalid))
			continue
		}
		if err := c.d.Inventory.UpsertItem(ctx, it); err != nil {
			errs = append(errs, fmt.Errorf("inventory %s: %w", it.ID, err))
		}
	}
	for _, tx := range doc.Transactions {
		if tx.ID == "" {
			errs = append(errs, fmt.Errorf("%w: transaction without id", ErrInvalid))
			continue
		}
		if err := c.d.Transactions.UpsertTransaction(ctx, tx); err != nil {
			errs = append(errs, fmt.Errorf("transaction %s: %w", tx.ID, err))
		}
	}
	if err := c.Load(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	c.record(ctx, "Import Data", "Data imported successfully", actor)
	return nil
}
