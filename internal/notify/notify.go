// Package notify derives the notification list from a snapshot of
// transactions and inventory. Everything here is a pure function of its
// inputs; sequences can be ranged over any number of times.
package notify

import (
	"iter"
	"time"

	"github.com/iliyamo/ip-manager/internal/model"
)

// Window is how far ahead an expiring subscription is reported.
const Window = 7

const dayMillis = int64(24 * time.Hour / time.Millisecond)

// DaysLeft returns ceil((expiry - now) / 1 day), where expiry is midnight
// UTC of the expiry date. It is negative once the day has passed.
func DaysLeft(expiry model.Date, now time.Time) int {
	diff := expiry.Time.UnixMilli() - now.UnixMilli()
	q := diff / dayMillis
	if diff%dayMillis != 0 && diff > 0 {
		q++
	}
	return int(q)
}

// ExpiringSoon yields the Completed transactions whose expiry date is 0 to
// Window days away, in input order.
func ExpiringSoon(txs []model.Transaction, now time.Time) iter.Seq[model.Transaction] {
	return func(yield func(model.Transaction) bool) {
		for _, tx := range txs {
			if !expiringSoon(tx, now) {
				continue
			}
			if !yield(tx) {
				return
			}
		}
	}
}

func expiringSoon(tx model.Transaction, now time.Time) bool {
	if tx.Status != model.TxCompleted || tx.ExpiryDate == nil {
		return false
	}
	d := DaysLeft(*tx.ExpiryDate, now)
	return d >= 0 && d <= Window
}

// LowStockItems yields items marked Low Stock or whose stock is at or
// under their threshold, in input order.
func LowStockItems(items []model.InventoryItem) iter.Seq[model.InventoryItem] {
	return func(yield func(model.InventoryItem) bool) {
		for _, it := range items {
			if !IsLowStock(it) {
				continue
			}
			if !yield(it) {
				return
			}
		}
	}
}

// IsLowStock reports whether it belongs in the low-stock list.
func IsLowStock(it model.InventoryItem) bool {
	return it.Status == model.StockLow || it.Stock <= it.Threshold()
}

// TotalCount is the badge number: expiring transactions plus low-stock
// items. An item and a transaction about the same product count twice.
func TotalCount(txs []model.Transaction, items []model.InventoryItem, now time.Time) int {
	n := 0
	for range ExpiringSoon(txs, now) {
		n++
	}
	for range LowStockItems(items) {
		n++
	}
	return n
}

// Expiring pairs a transaction with its days left.
type Expiring struct {
	model.Transaction
	DaysLeft int `json:"days_left"`
}

// Summary is the notification payload served to clients.
type Summary struct {
	Expiring []Expiring            `json:"expiring"`
	LowStock []model.InventoryItem `json:"low_stock"`
	Total    int                   `json:"total"`
}

// Summarize materializes both sequences.
func Summarize(txs []model.Transaction, items []model.InventoryItem, now time.Time) Summary {
	s := Summary{Expiring: []Expiring{}, LowStock: []model.InventoryItem{}}
	for tx := range ExpiringSoon(txs, now) {
		s.Expiring = append(s.Expiring, Expiring{Transaction: tx, DaysLeft: DaysLeft(*tx.ExpiryDate, now)})
	}
	for it := range LowStockItems(items) {
		s.LowStock = append(s.LowStock, it)
	}
	s.Total = len(s.Expiring) + len(s.LowStock)
	return s
}
