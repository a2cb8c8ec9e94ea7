// Package backoffice coordinates every write of the back office and keeps
// an in-memory snapshot of the data the dashboard, notifications and
// reports are computed from.
package backoffice

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/ip-manager/internal/ledger"
	"github.com/iliyamo/ip-manager/internal/model"
)

// ActivityLimit is the number of activity entries kept in the snapshot.
const ActivityLimit = 100

// ErrInvalid marks input that fails validation.
var ErrInvalid = errors.New("invalid input")

type InventoryStore interface {
	ListInventory(ctx context.Context) ([]model.InventoryItem, error)
	GetItem(ctx context.Context, id string) (model.InventoryItem, error)
	CreateItem(ctx context.Context, it model.InventoryItem) error
	SaveItem(ctx context.Context, it model.InventoryItem) error
	DeleteItem(ctx context.Context, id string) error
	UpsertItem(ctx context.Context, it model.InventoryItem) error
}

type TransactionStore interface {
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	GetTransaction(ctx context.Context, id string) (model.Transaction, error)
	SaveTransaction(ctx context.Context, tx model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	UpsertTransaction(ctx context.Context, tx model.Transaction) error
}

type UserStore interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id string) (model.User, error)
	CreateUser(ctx context.Context, u model.User) error
	UpdateUser(ctx context.Context, id string, patch model.UserPatch) (model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type SupplierStore interface {
	ListSuppliers(ctx context.Context) ([]model.Supplier, error)
	GetSupplier(ctx context.Context, id string) (model.Supplier, error)
	CreateSupplier(ctx context.Context, s model.Supplier) error
	SaveSupplier(ctx context.Context, s model.Supplier) error
	DeleteSupplier(ctx context.Context, id string) error
}

type SettingsStore interface {
	GetSettings(ctx context.Context) (model.Settings, error)
	SaveSettings(ctx context.Context, s model.Settings) error
}

type ActivityStore interface {
	ListActivity(ctx context.Context, limit int) ([]model.ActivityLogEntry, error)
}

// Recorder appends activity entries in the background.
type Recorder interface {
	Record(ctx context.Context, action, details, actor string)
}

// Deps are the collaborators of a Coordinator. All fields are required.
type Deps struct {
	Inventory    InventoryStore
	Transactions TransactionStore
	Users        UserStore
	Suppliers    SupplierStore
	Settings     SettingsStore
	Activity     ActivityStore
	Ledger       *ledger.Ledger
	Recorder     Recorder
}

// Snapshot is a copy of the mirrored data. Transactions and activity are
// newest first.
type Snapshot struct {
	Inventory    []model.InventoryItem    `json:"inventory"`
	Transactions []model.Transaction      `json:"transactions"`
	Users        []model.Profile          `json:"users"`
	Suppliers    []model.Supplier         `json:"suppliers"`
	Settings     model.Settings           `json:"settings"`
	Activity     []model.ActivityLogEntry `json:"activity"`
	LoadedAt     time.Time                `json:"loaded_at"`
}

// Coordinator is the single write path of the back office.
type Coordinator struct {
	d     Deps
	log   *zap.Logger
	now   func() time.Time
	newID func(prefix string) string

	mu   sync.RWMutex
	snap Snapshot
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

// New returns a Coordinator with an empty snapshot and default settings.
func New(d Deps, log *zap.Logger, opts ...Option) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Coordinator{
		d:     d,
		log:   log,
		now:   time.Now,
		newID: func(prefix string) string { return prefix + uuid.NewString() },
	}
	c.snap.Settings = model.DefaultSettings()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load refreshes every collection of the snapshot from the stores. A
// collection whose store fails keeps its previous content; the failures
// are returned joined.
func (c *Coordinator) Load(ctx context.Context) error {
	var errs []error
	note := func(what string, err error) bool {
		if err != nil {
			c.log.Warn("load snapshot", zap.String("collection", what), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", what, err))
			return false
		}
		return true
	}

	items, err := c.d.Inventory.ListInventory(ctx)
	okItems := note("inventory", err)
	txs, err := c.d.Transactions.ListTransactions(ctx)
	okTxs := note("transactions", err)
	users, err := c.d.Users.ListUsers(ctx)
	okUsers := note("users", err)
	sups, err := c.d.Suppliers.ListSuppliers(ctx)
	okSups := note("suppliers", err)
	settings, err := c.d.Settings.GetSettings(ctx)
	okSettings := note("settings", err)
	logs, err := c.d.Activity.ListActivity(ctx, ActivityLimit)
	okLogs := note("activity", err)

	c.mu.Lock()
	defer c.mu.Unlock()
	if okItems {
		c.snap.Inventory = items
	}
	if okTxs {
		c.snap.Transactions = txs
	}
	if okUsers {
		c.snap.Users = profiles(users)
	}
	if okSups {
		c.snap.Suppliers = sups
	}
	if okSettings {
		c.snap.Settings = settings
	}
	if okLogs {
		c.snap.Activity = logs
	}
	c.snap.LoadedAt = c.now().UTC()
	return errors.Join(errs...)
}

// Run reloads the snapshot every interval until ctx is done.
func (c *Coordinator) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = c.Load(ctx)
		}
	}
}

// Snapshot returns a copy of the mirrored data.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.snap
	s.Inventory = clone(s.Inventory)
	s.Transactions = clone(s.Transactions)
	s.Users = clone(s.Users)
	s.Suppliers = clone(s.Suppliers)
	s.Activity = clone(s.Activity)
	return s
}

// clone copies list; nil becomes an empty slice so it encodes as [].
func clone[T any](list []T) []T {
	return append(make([]T, 0, len(list)), list...)
}

// AppendActivity puts a stored entry at the head of the mirrored log. It
// is the recorder's onAppend hook.
func (c *Coordinator) AppendActivity(e model.ActivityLogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Activity = append([]model.ActivityLogEntry{e}, c.snap.Activity...)
	if len(c.snap.Activity) > ActivityLimit {
		c.snap.Activity = c.snap.Activity[:ActivityLimit]
	}
}

func (c *Coordinator) record(ctx context.Context, action, details, actor string) {
	if c.d.Recorder != nil {
		c.d.Recorder.Record(ctx, action, details, actor)
	}
}

func profiles(users []model.User) []model.Profile {
	out := make([]model.Profile, len(users))
	for i, u := range users {
		out[i] = u.Profile()
	}
	return out
}

// replace swaps the element with the same id, or prepends v when absent.
func replace[T any](list []T, v T, id func(T) string) []T {
	for i := range list {
		if id(list[i]) == id(v) {
			list[i] = v
			return list
		}
	}
	return append([]T{v}, list...)
}

func remove[T any](list []T, key string, id func(T) string) []T {
	return slices.DeleteFunc(list, func(v T) bool { return id(v) == key })
}

func itemID(it model.InventoryItem) string { return it.ID }
func txID(tx model.Transaction) string     { return tx.ID }
func profileID(p model.Profile) string     { return p.ID }
func supplierID(s model.Supplier) string   { return s.ID }
