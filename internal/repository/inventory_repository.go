package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/ip-manager/internal/model"
)

const inventoryColumns = "id, name, category, type, supplier, barcode, price, cost_price, stock, initial_stock, low_stock_threshold, status, date_added, created_at, updated_at"

// InventoryRepo reads and writes the inventory table.
type InventoryRepo struct {
	DB  sqlx.ExtContext
	Now func() time.Time
}

func NewInventoryRepo(db sqlx.ExtContext) *InventoryRepo {
	return &InventoryRepo{DB: db, Now: time.Now}
}

// ListInventory returns all items, newest first.
func (r *InventoryRepo) ListInventory(ctx context.Context) ([]model.InventoryItem, error) {
	items := []model.InventoryItem{}
	err := sqlx.SelectContext(ctx, r.DB, &items,
		"SELECT "+inventoryColumns+" FROM inventory ORDER BY created_at DESC, id")
	return items, err
}

// GetItem fetches one item.
func (r *InventoryRepo) GetItem(ctx context.Context, id string) (model.InventoryItem, error) {
	var it model.InventoryItem
	err := sqlx.GetContext(ctx, r.DB, &it,
		"SELECT "+inventoryColumns+" FROM inventory WHERE id=? LIMIT 1", id)
	return it, notFound(err)
}

// CreateItem inserts it as given; defaults are filled in by the caller.
func (r *InventoryRepo) CreateItem(ctx context.Context, it model.InventoryItem) error {
	_, err := sqlx.NamedExecContext(ctx, r.DB,
		`INSERT INTO inventory (`+inventoryColumns+`)
		 VALUES (:id, :name, :category, :type, :supplier, :barcode, :price, :cost_price, :stock,
		         :initial_stock, :low_stock_threshold, :status, :date_added, :created_at, :updated_at)`, it)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// SaveItem overwrites every editable column of it. initial_stock is never
// written after creation.
func (r *InventoryRepo) SaveItem(ctx context.Context, it model.InventoryItem) error {
	return mustAffect(sqlx.NamedExecContext(ctx, r.DB,
		`UPDATE inventory SET name=:name, category=:category, type=:type, supplier=:supplier,
		 barcode=:barcode, price=:price, cost_price=:cost_price, stock=:stock,
		 low_stock_threshold=:low_stock_threshold, status=:status, updated_at=:updated_at
		 WHERE id=:id`, it))
}

// DeleteItem removes an item. Transactions referring to it are kept.
func (r *InventoryRepo) DeleteItem(ctx context.Context, id string) error {
	return mustAffect(r.DB.ExecContext(ctx, "DELETE FROM inventory WHERE id=?", id))
}

// AdjustStock adds delta to the stock in one statement, so concurrent
// sales never overwrite each other. An Active item that reaches its
// threshold is flagged Low Stock in the same statement; MySQL applies the
// SET list left to right, so the CASE sees the new stock.
func (r *InventoryRepo) AdjustStock(ctx context.Context, id string, delta int) (model.InventoryItem, error) {
	const q = `UPDATE inventory
		SET stock = stock + ?,
		    status = CASE WHEN status = ? AND stock <= COALESCE(low_stock_threshold, ?) THEN ? ELSE status END,
		    updated_at = ?
		WHERE id = ?`
	err := mustAffect(r.DB.ExecContext(ctx, q,
		delta, model.StockActive, model.DefaultLowStockThreshold, model.StockLow, r.Now().UTC(), id))
	if err != nil {
		return model.InventoryItem{}, err
	}
	return r.GetItem(ctx, id)
}

// UpsertItem inserts it or overwrites the row with the same id, including
// initial_stock. Used by data import only.
func (r *InventoryRepo) UpsertItem(ctx context.Context, it model.InventoryItem) error {
	_, err := sqlx.NamedExecContext(ctx, r.DB,
		`INSERT INTO inventory (`+inventoryColumns+`)
		 VALUES (:id, :name, :category, :type, :supplier, :barcode, :price, :cost_price, :stock,
		         :initial_stock, :low_stock_threshold, :status, :date_added, :created_at, :updated_at)
		 ON DUPLICATE KEY UPDATE name=VALUES(name), category=VALUES(category), type=VALUES(type),
		 supplier=VALUES(supplier), barcode=VALUES(barcode), price=VALUES(price), cost_price=VALUES(cost_price),
		 stock=VALUES(stock), initial_stock=VALUES(initial_stock), low_stock_threshold=VALUES(low_stock_threshold),
		 status=VALUES(status), updated_at=VALUES(updated_at)`, it)
	return err
}
