package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/ip-manager/internal/ledger"
)

// TxRunner runs ledger writes inside one MySQL transaction.
type TxRunner struct{ DB *sqlx.DB }

func NewTxRunner(db *sqlx.DB) *TxRunner { return &TxRunner{DB: db} }

// RunInTx commits when fn returns nil and rolls back otherwise.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(ledger.Stores) error) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ledger.Stores{
		Inventory:    NewInventoryRepo(tx),
		Transactions: NewTransactionRepo(tx),
	}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
