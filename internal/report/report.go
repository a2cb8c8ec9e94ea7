// Package report computes the dashboard and report figures from a
// snapshot of transactions and inventory.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/ip-manager/internal/model"
	"github.com/iliyamo/ip-manager/internal/notify"
)

// RecentLimit is the number of transactions shown on the dashboard.
const RecentLimit = 5

// Dashboard holds the headline figures of the back office.
type Dashboard struct {
	TotalTransactions int                 `json:"total_transactions"`
	TotalIncome       decimal.Decimal     `json:"total_income"`
	TotalExpenses     decimal.Decimal     `json:"total_expenses"`
	TotalProfit       decimal.Decimal     `json:"total_profit"`
	StockItems        int                 `json:"stock_items"`
	LowStockCount     int                 `json:"low_stock_count"`
	Recent            []model.Transaction `json:"recent"`
	ExpiringSoon      []notify.Expiring   `json:"expiring_soon"`
}

// BuildDashboard expects txs newest first, the order the store lists them.
//
// Income counts Completed sales only. Expenses are the cost of the units
// that left stock: cost price times max(0, initial stock - stock).
func BuildDashboard(txs []model.Transaction, items []model.InventoryItem, now time.Time) Dashboard {
	d := Dashboard{
		TotalTransactions: len(txs),
		TotalIncome:       decimal.Zero,
		TotalExpenses:     decimal.Zero,
		StockItems:        len(items),
		Recent:            []model.Transaction{},
		ExpiringSoon:      []notify.Expiring{},
	}
	for _, tx := range txs {
		if tx.Status == model.TxCompleted {
			d.TotalIncome = d.TotalIncome.Add(tx.TotalAmount)
		}
	}
	for _, it := range items {
		if sold := it.InitialStock - it.Stock; sold > 0 {
			d.TotalExpenses = d.TotalExpenses.Add(it.CostPrice.Mul(decimal.NewFromInt(int64(sold))))
		}
	}
	d.TotalProfit = d.TotalIncome.Sub(d.TotalExpenses)

	for range notify.LowStockItems(items) {
		d.LowStockCount++
	}
	d.Recent = append(d.Recent, txs[:min(RecentLimit, len(txs))]...)
	d.ExpiringSoon = notify.Summarize(txs, nil, now).Expiring
	return d
}

// DaySales is the revenue of one calendar day.
type DaySales struct {
	Day     model.Date      `json:"day"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Summary backs the reports page.
type Summary struct {
	TotalSales   int             `json:"total_sales"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalProfit  decimal.Decimal `json:"total_profit"`
	SalesByDay   []DaySales      `json:"sales_by_day"`
}

// BuildSummary sums every transaction regardless of status. Profit counts
// only the transactions that carry one. Days are UTC and sorted oldest
// first.
func BuildSummary(txs []model.Transaction) Summary {
	s := Summary{TotalSales: len(txs), TotalRevenue: decimal.Zero, TotalProfit: decimal.Zero, SalesByDay: []DaySales{}}
	idx := map[string]int{}
	for _, tx := range txs {
		s.TotalRevenue = s.TotalRevenue.Add(tx.TotalAmount)
		if tx.Profit.Valid {
			s.TotalProfit = s.TotalProfit.Add(tx.Profit.Decimal)
		}
		day := model.DateOf(tx.Date.UTC())
		i, ok := idx[day.String()]
		if !ok {
			i = len(s.SalesByDay)
			idx[day.String()] = i
			s.SalesByDay = append(s.SalesByDay, DaySales{Day: day, Revenue: decimal.Zero})
		}
		s.SalesByDay[i].Revenue = s.SalesByDay[i].Revenue.Add(tx.TotalAmount)
	}
	sort.Slice(s.SalesByDay, func(i, j int) bool {
		return s.SalesByDay[i].Day.Before(s.SalesByDay[j].Day.Time)
	})
	return s
}

// SearchResult lists the items and transactions matching a query.
type SearchResult struct {
	Inventory    []model.InventoryItem `json:"inventory"`
	Transactions []model.Transaction   `json:"transactions"`
}

// Search does a case-insensitive substring match over the fields shown in
// the dashboard search. A blank query matches nothing.
func Search(query string, items []model.InventoryItem, txs []model.Transaction) SearchResult {
	res := SearchResult{Inventory: []model.InventoryItem{}, Transactions: []model.Transaction{}}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return res
	}
	for _, it := range items {
		if matches(q, it.Name, it.ID, it.Category, it.Supplier) {
			res.Inventory = append(res.Inventory, it)
		}
	}
	for _, tx := range txs {
		if matches(q, tx.CustomerName, tx.PhoneNumber, tx.ProductName, tx.SubName, tx.ID, tx.M3UURL, tx.ActivationCode) {
			res.Transactions = append(res.Transactions, tx)
		}
	}
	return res
}

func matches(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
