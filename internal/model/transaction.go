package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction statuses.
const (
	TxCompleted = "Completed"
	TxPending   = "Pending"
)

// Transaction is a sale event stored in the `transactions` table.
//
// ProductID is a lookup reference to an InventoryItem, not ownership:
// deleting the item leaves the reference untouched. TotalAmount equals
// Quantity * SellingPrice at creation time and ExpiryDate, when set,
// equals StartDate + Duration months. Neither is re-derived when the
// inventory side changes later.
type Transaction struct {
	ID             string              `db:"id" json:"id"`
	CustomerName   string              `db:"customer_name" json:"customer_name"`
	PhoneNumber    string              `db:"phone_number" json:"phone_number"`
	ProductID      string              `db:"product_id" json:"product_id"`
	ProductName    string              `db:"product_name" json:"product_name"`
	SubName        string              `db:"sub_name" json:"sub_name"`
	SubType        string              `db:"sub_type" json:"sub_type"`
	Quantity       int                 `db:"quantity" json:"quantity"`
	SellingPrice   decimal.Decimal     `db:"selling_price" json:"selling_price"`
	TotalAmount    decimal.Decimal     `db:"total_amount" json:"total_amount"`
	Profit         decimal.NullDecimal `db:"profit" json:"profit"`
	Status         string              `db:"status" json:"status"`
	Date           time.Time           `db:"date" json:"date"`
	StartDate      *Date               `db:"start_date" json:"start_date,omitempty"`
	Duration       int                 `db:"duration" json:"duration"`
	ExpiryDate     *Date               `db:"expiry_date" json:"expiry_date,omitempty"`
	ActivationCode string              `db:"activation_code" json:"activation_code"`
	M3UURL         string              `db:"m3u_url" json:"m3u_url"`
	Notes          string              `db:"notes" json:"notes"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
}

// TotalFor returns quantity * price.
func TotalFor(quantity int, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// ExpiryFor returns start + months, or nil when either part is missing.
func ExpiryFor(start *Date, months int) *Date {
	if start == nil || months <= 0 {
		return nil
	}
	exp := start.AddMonths(months)
	return &exp
}

// TransactionPatch lists the columns an update may touch.
type TransactionPatch struct {
	CustomerName   *string              `json:"customer_name"`
	PhoneNumber    *string              `json:"phone_number"`
	ProductID      *string              `json:"product_id"`
	ProductName    *string              `json:"product_name"`
	SubName        *string              `json:"sub_name"`
	SubType        *string              `json:"sub_type"`
	Quantity       *int                 `json:"quantity"`
	SellingPrice   *decimal.Decimal     `json:"selling_price"`
	Profit         *decimal.NullDecimal `json:"profit"`
	Status         *string              `json:"status"`
	StartDate      *Date                `json:"start_date"`
	Duration       *int                 `json:"duration"`
	ActivationCode *string              `json:"activation_code"`
	M3UURL         *string              `json:"m3u_url"`
	Notes          *string              `json:"notes"`

	// Derived by the caller from the fields above; never bound from input.
	TotalAmount *decimal.Decimal `json:"-"`
	ExpiryDate  *Date            `json:"-"`
}

// Apply copies the non-nil fields of p onto tx.
func (p TransactionPatch) Apply(tx *Transaction) {
	if p.CustomerName != nil {
		tx.CustomerName = *p.CustomerName
	}
	if p.PhoneNumber != nil {
		tx.PhoneNumber = *p.PhoneNumber
	}
	if p.ProductID != nil {
		tx.ProductID = *p.ProductID
	}
	if p.ProductName != nil {
		tx.ProductName = *p.ProductName
	}
	if p.SubName != nil {
		tx.SubName = *p.SubName
	}
	if p.SubType != nil {
		tx.SubType = *p.SubType
	}
	if p.Quantity != nil {
		tx.Quantity = *p.Quantity
	}
	if p.SellingPrice != nil {
		tx.SellingPrice = *p.SellingPrice
	}
	if p.Profit != nil {
		tx.Profit = *p.Profit
	}
	if p.Status != nil {
		tx.Status = *p.Status
	}
	if p.StartDate != nil {
		d := *p.StartDate
		tx.StartDate = &d
	}
	if p.Duration != nil {
		tx.Duration = *p.Duration
	}
	if p.ActivationCode != nil {
		tx.ActivationCode = *p.ActivationCode
	}
	if p.M3UURL != nil {
		tx.M3UURL = *p.M3UURL
	}
	if p.Notes != nil {
		tx.Notes = *p.Notes
	}
	if p.TotalAmount != nil {
		tx.TotalAmount = *p.TotalAmount
	}
	if p.ExpiryDate != nil {
		d := *p.ExpiryDate
		tx.ExpiryDate = &d
	}
}
