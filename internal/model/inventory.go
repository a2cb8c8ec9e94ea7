package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Inventory item types and statuses.
const (
	TypeDigital  = "Digital"
	TypePhysical = "Physical"

	StockActive   = "Active"
	StockLow      = "Low Stock"
	StockInactive = "Inactive"
)

// DefaultLowStockThreshold applies when an item has no threshold set.
const DefaultLowStockThreshold = 10

// InventoryItem is a sellable product or SKU stored in the `inventory`
// table. InitialStock is written once at creation and never updated;
// Stock is decremented by recorded sales and may be edited manually.
// Stock may go negative when a product is oversold.
type InventoryItem struct {
	ID                string          `db:"id" json:"id"`
	Name              string          `db:"name" json:"name"`
	Category          string          `db:"category" json:"category"`
	Type              string          `db:"type" json:"type"`
	Supplier          string          `db:"supplier" json:"supplier"`
	Barcode           string          `db:"barcode" json:"barcode"`
	Price             decimal.Decimal `db:"price" json:"price"`
	CostPrice         decimal.Decimal `db:"cost_price" json:"cost_price"`
	Stock             int             `db:"stock" json:"stock"`
	InitialStock      int             `db:"initial_stock" json:"initial_stock"`
	LowStockThreshold *int            `db:"low_stock_threshold" json:"low_stock_threshold"`
	Status            string          `db:"status" json:"status"`
	DateAdded         time.Time       `db:"date_added" json:"date_added"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         *time.Time      `db:"updated_at" json:"updated_at,omitempty"`
}

// Threshold returns the low-stock threshold, falling back to the default
// when none is stored.
func (i InventoryItem) Threshold() int {
	if i.LowStockThreshold == nil {
		return DefaultLowStockThreshold
	}
	return *i.LowStockThreshold
}

// StockStatus derives the stored status hint after a stock change. An
// Inactive item stays Inactive; an Active item whose stock fell to or
// under its threshold becomes Low Stock. Any other status is kept, so a
// manual Low Stock marking survives.
func StockStatus(status string, stock, threshold int) string {
	if status == "" {
		status = StockActive
	}
	if status == StockActive && stock <= threshold {
		return StockLow
	}
	return status
}

// InventoryPatch lists the columns an update may touch. InitialStock is
// deliberately absent.
type InventoryPatch struct {
	Name              *string          `json:"name"`
	Category          *string          `json:"category"`
	Type              *string          `json:"type"`
	Supplier          *string          `json:"supplier"`
	Barcode           *string          `json:"barcode"`
	Price             *decimal.Decimal `json:"price"`
	CostPrice         *decimal.Decimal `json:"cost_price"`
	Stock             *int             `json:"stock"`
	LowStockThreshold *int             `json:"low_stock_threshold"`
	Status            *string          `json:"status"`
}

// Apply copies the non-nil fields of p onto item.
func (p InventoryPatch) Apply(item *InventoryItem) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Type != nil {
		item.Type = *p.Type
	}
	if p.Supplier != nil {
		item.Supplier = *p.Supplier
	}
	if p.Barcode != nil {
		item.Barcode = *p.Barcode
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.CostPrice != nil {
		item.CostPrice = *p.CostPrice
	}
	if p.Stock != nil {
		item.Stock = *p.Stock
	}
	if p.LowStockThreshold != nil {
		v := *p.LowStockThreshold
		item.LowStockThreshold = &v
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
}
