package backoffice

import (
	"context"
	"errors"

	"github.com/iliyamo/ip-manager/internal/ledger"
	"github.com/iliyamo/ip-manager/internal/model"
)

// RecordSale records a sale through the ledger and mirrors the stored
// transaction and the decremented item. A partial write is mirrored too,
// since the transaction exists.
func (c *Coordinator) RecordSale(ctx context.Context, req ledger.SaleRequest) (ledger.Sale, error) {
	sale, err := c.d.Ledger.RecordSale(ctx, req)
	if err != nil && !errors.Is(err, ledger.ErrPartialWrite) {
		return sale, err
	}
	c.mu.Lock()
	c.snap.Transactions = append([]model.Transaction{sale.Transaction}, c.snap.Transactions...)
	if sale.Item != nil {
		c.snap.Inventory = replace(c.snap.Inventory, *sale.Item, itemID)
	}
	c.mu.Unlock()
	return sale, err
}

// UpdateTransaction applies patch and re-derives the total and expiry
// from the resulting fields. Stock is never adjusted.
func (c *Coordinator) UpdateTransaction(ctx context.Context, actor, id string, patch model.TransactionPatch) (model.Transaction, error) {
	tx, err := c.d.Transactions.GetTransaction(ctx, id)
	if err != nil {
		return model.Transaction{}, err
	}
	patch.TotalAmount, patch.ExpiryDate = nil, nil
	patch.Apply(&tx)
	if tx.Quantity <= 0 {
		tx.Quantity = 1
	}
	tx.TotalAmount = model.TotalFor(tx.Quantity, tx.SellingPrice)
	tx.ExpiryDate = model.ExpiryFor(tx.StartDate, tx.Duration)

	if err := c.d.Transactions.SaveTransaction(ctx, tx); err != nil {
		return model.Transaction{}, err
	}
	c.mu.Lock()
	c.snap.Transactions = replace(c.snap.Transactions, tx, txID)
	c.mu.Unlock()
	c.record(ctx, "Update Sale", "Updated transaction "+id, actor)
	return tx, nil
}

// DeleteTransaction removes a transaction. The sold stock is not given
// back.
func (c *Coordinator) DeleteTransaction(ctx context.Context, actor, id string) error {
	if err := c.d.Transactions.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	c.snap.Transactions = remove(c.snap.Transactions, id, txID)
	c.mu.Unlock()
	c.record(ctx, "Delete Sale", "Deleted transaction "+id, actor)
	return nil
}
