// Package ledger records sales. Recording a sale derives its total and
// expiry, persists the transaction and then takes the sold quantity off
// the linked inventory item.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/ip-manager/internal/model"
)

var (
	// ErrStoreUnavailable means nothing was recorded.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrPartialWrite means the transaction was stored but the stock
	// adjustment was not. It is returned together with the transaction.
	ErrPartialWrite = errors.New("sale recorded but stock not adjusted")
)

// InventoryStore is the part of the inventory storage the ledger writes to.
type InventoryStore interface {
	// AdjustStock adds delta to the item's stock in a single statement and
	// returns the item as stored afterwards. Unknown ids yield
	// model.ErrNotFound.
	AdjustStock(ctx context.Context, id string, delta int) (model.InventoryItem, error)
}

// TransactionStore appends transactions.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, tx model.Transaction) error
}

// Stores groups the stores a sale touches.
type Stores struct {
	Inventory    InventoryStore
	Transactions TransactionStore
}

// TxRunner runs fn against stores bound to one database transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(Stores) error) error
}

// Publisher announces recorded sales to other processes.
type Publisher interface {
	PublishSaleRecorded(ctx context.Context, tx model.Transaction) error
}

// Recorder appends activity log entries without blocking on storage.
type Recorder interface {
	Record(ctx context.Context, action, details, actor string)
}

// SaleRequest is the input of RecordSale. TotalAmount, ExpiryDate, ID and
// the timestamps are derived and cannot be supplied.
type SaleRequest struct {
	CustomerName   string              `json:"customer_name"`
	PhoneNumber    string              `json:"phone_number"`
	ProductID      string              `json:"product_id"`
	ProductName    string              `json:"product_name"`
	SubName        string              `json:"sub_name"`
	SubType        string              `json:"sub_type"`
	Quantity       int                 `json:"quantity"`
	SellingPrice   decimal.Decimal     `json:"selling_price"`
	Profit         decimal.NullDecimal `json:"profit"`
	Status         string              `json:"status"`
	StartDate      *model.Date         `json:"start_date"`
	Duration       int                 `json:"duration"`
	ActivationCode string              `json:"activation_code"`
	M3UURL         string              `json:"m3u_url"`
	Notes          string              `json:"notes"`

	// Actor is the user name written to the activity log.
	Actor string `json:"-"`
}

// Sale is the outcome of RecordSale. Item is the inventory item after the
// decrement, nil when the sale is not linked to a known item.
type Sale struct {
	Transaction model.Transaction
	Item        *model.InventoryItem
}

// Ledger records sales against a pair of stores.
type Ledger struct {
	stores    Stores
	tx        TxRunner
	publisher Publisher
	recorder  Recorder
	log       *zap.Logger
	now       func() time.Time
	newID     func() string

	bg sync.WaitGroup
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithTxRunner makes the insert and the stock decrement atomic.
func WithTxRunner(r TxRunner) Option { return func(l *Ledger) { l.tx = r } }

// WithPublisher publishes a sale.recorded event after every sale.
func WithPublisher(p Publisher) Option { return func(l *Ledger) { l.publisher = p } }

// WithRecorder appends a "New Sale" activity entry after every sale.
func WithRecorder(r Recorder) Option { return func(l *Ledger) { l.recorder = r } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(l *Ledger) { l.now = now } }

// New returns a Ledger writing to stores.
func New(stores Stores, log *zap.Logger, opts ...Option) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Ledger{
		stores: stores,
		log:    log,
		now:    time.Now,
		newID:  func() string { return "TXN-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Prepare derives the transaction RecordSale would store, without touching
// any store.
func (l *Ledger) Prepare(req SaleRequest) model.Transaction {
	qty := req.Quantity
	if qty <= 0 {
		qty = 1
	}
	status := req.Status
	if status == "" {
		status = model.TxCompleted
	}
	now := l.now().UTC()
	return model.Transaction{
		ID:             l.newID(),
		CustomerName:   req.CustomerName,
		PhoneNumber:    req.PhoneNumber,
		ProductID:      req.ProductID,
		ProductName:    req.ProductName,
		SubName:        req.SubName,
		SubType:        req.SubType,
		Quantity:       qty,
		SellingPrice:   req.SellingPrice,
		TotalAmount:    model.TotalFor(qty, req.SellingPrice),
		Profit:         req.Profit,
		Status:         status,
		Date:           now,
		StartDate:      req.StartDate,
		Duration:       req.Duration,
		ExpiryDate:     model.ExpiryFor(req.StartDate, req.Duration),
		ActivationCode: req.ActivationCode,
		M3UURL:         req.M3UURL,
		Notes:          req.Notes,
		CreatedAt:      now,
	}
}

// RecordSale stores the sale and decrements the linked item's stock by the
// sold quantity. An unknown product id leaves inventory alone and is not an
// error.
//
// With a TxRunner both writes share one database transaction and any
// failure returns ErrStoreUnavailable. Without one, a failed decrement
// after a successful insert returns the sale together with an error
// wrapping ErrPartialWrite.
func (l *Ledger) RecordSale(ctx context.Context, req SaleRequest) (Sale, error) {
	tx := l.Prepare(req)

	var (
		sale Sale
		err  error
	)
	if l.tx != nil {
		err = l.tx.RunInTx(ctx, func(s Stores) error {
			var werr error
			sale, werr = l.write(ctx, s, tx)
			return werr
		})
		if err != nil {
			l.log.Error("record sale", zap.String("transaction_id", tx.ID), zap.Error(err))
			return Sale{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	} else {
		sale, err = l.write(ctx, l.stores, tx)
		if err != nil {
			if errors.Is(err, ErrPartialWrite) {
				l.log.Warn("stock not adjusted", zap.String("transaction_id", tx.ID),
					zap.String("product_id", tx.ProductID), zap.Error(err))
				l.after(ctx, sale.Transaction, req.Actor)
				return sale, err
			}
			l.log.Error("record sale", zap.String("transaction_id", tx.ID), zap.Error(err))
			return Sale{}, err
		}
	}

	l.after(ctx, sale.Transaction, req.Actor)
	return sale, nil
}

func (l *Ledger) write(ctx context.Context, s Stores, tx model.Transaction) (Sale, error) {
	if err := s.Transactions.InsertTransaction(ctx, tx); err != nil {
		return Sale{}, fmt.Errorf("%w: insert transaction: %v", ErrStoreUnavailable, err)
	}
	sale := Sale{Transaction: tx}
	if tx.ProductID == "" {
		return sale, nil
	}
	item, err := s.Inventory.AdjustStock(ctx, tx.ProductID, -tx.Quantity)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return sale, nil
	case err != nil:
		return sale, fmt.Errorf("%w: %v", ErrPartialWrite, err)
	}
	sale.Item = &item
	return sale, nil
}

// after runs the best-effort follow-ups of a stored sale.
func (l *Ledger) after(ctx context.Context, tx model.Transaction, actor string) {
	if l.recorder != nil {
		details := "New Sale"
		if tx.CustomerName != "" {
			details = "Sale to " + tx.CustomerName
		}
		l.recorder.Record(ctx, "New Sale", details, actor)
	}
	if l.publisher == nil {
		return
	}
	l.bg.Add(1)
	go func() {
		defer l.bg.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := l.publisher.PublishSaleRecorded(pctx, tx); err != nil {
			l.log.Warn("publish sale.recorded", zap.String("transaction_id", tx.ID), zap.Error(err))
		}
	}()
}

// Wait blocks until pending event publishes have finished.
func (l *Ledger) Wait() { l.bg.Wait() }
