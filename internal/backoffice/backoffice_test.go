package backoffice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/ip-manager/internal/ledger"
	"github.com/iliyamo/ip-manager/internal/model"
	"github.com/iliyamo/ip-manager/internal/repository"
	"github.com/iliyamo/ip-manager/internal/utils"
)

// memDB implements every store the coordinator and the ledger use.
type memDB struct {
	mu        sync.Mutex
	items     []model.InventoryItem
	txs       []model.Transaction
	users     []model.User
	suppliers []model.Supplier
	settings  *model.Settings
	logs      []model.ActivityLogEntry
	failList  error
}

func (m *memDB) ListInventory(ctx context.Context) ([]model.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList != nil {
		return nil, m.failList
	}
	return append([]model.InventoryItem(nil), m.items...), nil
}

func (m *memDB) GetItem(ctx context.Context, id string) (model.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ID == id {
			return it, nil
		}
	}
	return model.InventoryItem{}, model.ErrNotFound
}

func (m *memDB) CreateItem(ctx context.Context, it model.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]model.InventoryItem{it}, m.items...)
	return nil
}

func (m *memDB) SaveItem(ctx context.Context, it model.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == it.ID {
			it.InitialStock = m.items[i].InitialStock
			m.items[i] = it
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *memDB) UpsertItem(ctx context.Context, it model.InventoryItem) error {
	if err := m.SaveItem(ctx, it); errors.Is(err, model.ErrNotFound) {
		return m.CreateItem(ctx, it)
	}
	return nil
}

func (m *memDB) DeleteItem(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *memDB) AdjustStock(ctx context.Context, id string, delta int) (model.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Stock += delta
			m.items[i].Status = model.StockStatus(m.items[i].Status, m.items[i].Stock, m.items[i].Threshold())
			return m.items[i], nil
		}
	}
	return model.InventoryItem{}, model.ErrNotFound
}

func (m *memDB) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Transaction(nil), m.txs...), nil
}

func (m *memDB) GetTransaction(ctx context.Context, id string) (model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range m.txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return model.Transaction{}, model.ErrNotFound
}

func (m *memDB) InsertTransaction(ctx context.Context, tx model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs = append([]model.Transaction{tx}, m.txs...)
	return nil
}

func (m *memDB) SaveTransaction(ctx context.Context, tx model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.txs {
		if m.txs[i].ID == tx.ID {
			m.txs[i] = tx
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *memDB) UpsertTransaction(ctx context.Context, tx model.Transaction) error {
	if err := m.SaveTransaction(ctx, tx); errors.Is(err, model.ErrNotFound) {
		return m.InsertTransaction(ctx, tx)
	}
	return nil
}

func (m *memDB) DeleteTransaction(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.txs {
		if m.txs[i].ID == id {
			m.txs = append(m.txs[:i], m.txs[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *memDB) ListUsers(ctx context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.User(nil), m.users...), nil
}

func (m *memDB) GetUser(ctx context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (m *memDB) CreateUser(ctx context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Username == u.Username {
			return repository.ErrConflict
		}
	}
	m.users = append(m.users, u)
	return nil
}

func (m *memDB) UpdateUser(ctx context.Context, id string, p model.UserPatch) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			p.Apply(&m.users[i])
			return m.users[i], nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (m *memDB) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			m.users = append(m.users[:i], m.users[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *memDB) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Supplier(nil), m.suppliers...), nil
}

func (m *memDB) GetSupplier(ctx context.Context, id string) (model.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.suppliers {
		if s.ID == id {
			return s, nil
		}
	}
	return model.Supplier{}, model.ErrNotFound
}

func (m *memDB) CreateSupplier(ctx context.Context, s model.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suppliers = append(m.suppliers, s)
	return nil
}

func (m *memDB) SaveSupplier(ctx context.Context, s model.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.suppliers {
		if m.suppliers[i].ID == s.ID {
			m.suppliers[i] = s
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *memDB) DeleteSupplier(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.suppliers {
		if m.suppliers[i].ID == id {
			m.suppliers = append(m.suppliers[:i], m.suppliers[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *memDB) GetSettings(ctx context.Context) (model.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return model.DefaultSettings(), nil
	}
	return *m.settings, nil
}

func (m *memDB) SaveSettings(ctx context.Context, s model.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &s
	return nil
}

func (m *memDB) ListActivity(ctx context.Context, limit int) ([]model.ActivityLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ActivityLogEntry(nil), m.logs[:min(limit, len(m.logs))]...), nil
}

type syncRecorder struct {
	mu      sync.Mutex
	actions []string
	details []string
}

func (r *syncRecorder) Record(ctx context.Context, action, details, actor string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
	r.details = append(r.details, details)
}

func (r *syncRecorder) last() (string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.actions) == 0 {
		return "", ""
	}
	return r.actions[len(r.actions)-1], r.details[len(r.details)-1]
}

var clock = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func newCoordinator(t *testing.T) (*Coordinator, *memDB, *syncRecorder) {
	t.Helper()
	db := &memDB{}
	rec := &syncRecorder{}
	l := ledger.New(ledger.Stores{Inventory: db, Transactions: db}, nil,
		ledger.WithClock(func() time.Time { return clock }), ledger.WithRecorder(rec))
	c := New(Deps{
		Inventory:    db,
		Transactions: db,
		Users:        db,
		Suppliers:    db,
		Settings:     db,
		Activity:     db,
		Ledger:       l,
		Recorder:     rec,
	}, nil, WithClock(func() time.Time { return clock }))
	return c, db, rec
}

func TestCreateItemDefaults(t *testing.T) {
	c, db, rec := newCoordinator(t)
	ctx := context.Background()

	it, err := c.CreateItem(ctx, "amal", model.InventoryItem{Name: "IPTV 12 months", Stock: 25, Price: decimal.NewFromInt(300)})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if it.InitialStock != 25 || it.Status != model.StockActive || it.Threshold() != 10 || it.Type != model.TypeDigital {
		t.Errorf("unexpected defaults %+v", it)
	}
	if len(it.ID) < 4 || it.ID[:3] != "IP-" {
		t.Errorf("id %q", it.ID)
	}
	if len(db.items) != 1 || len(c.Snapshot().Inventory) != 1 {
		t.Error("item not stored or mirrored")
	}
	if a, d := rec.last(); a != "Add Product" || d != "Added IPTV 12 months" {
		t.Errorf("activity %q %q", a, d)
	}

	low, err := c.CreateItem(ctx, "amal", model.InventoryItem{Name: "Receiver", Stock: 2})
	if err != nil {
		t.Fatal(err)
	}
	if low.Status != model.StockLow {
		t.Errorf("status %q, want Low Stock", low.Status)
	}

	if _, err := c.CreateItem(ctx, "amal", model.InventoryItem{Name: "  "}); !errors.Is(err, ErrInvalid) {
		t.Errorf("blank name: %v", err)
	}
}

func TestUpdateItemKeepsInitialStock(t *testing.T) {
	c, db, _ := newCoordinator(t)
	ctx := context.Background()
	it, _ := c.CreateItem(ctx, "amal", model.InventoryItem{Name: "Box", Stock: 20})

	stock := 4
	upd, err := c.UpdateItem(ctx, "amal", it.ID, model.InventoryPatch{Stock: &stock})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if upd.InitialStock != 20 || upd.Stock != 4 || upd.Status != model.StockLow || upd.UpdatedAt == nil {
		t.Errorf("unexpected item %+v", upd)
	}
	if db.items[0].InitialStock != 20 {
		t.Error("stored initial stock changed")
	}
	if _, err := c.UpdateItem(ctx, "amal", "missing", model.InventoryPatch{}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("missing item: %v", err)
	}
}

func TestRecordSaleMirrors(t *testing.T) {
	c, _, rec := newCoordinator(t)
	ctx := context.Background()
	it, _ := c.CreateItem(ctx, "amal", model.InventoryItem{Name: "Box", Stock: 5})

	sale, err := c.RecordSale(ctx, ledger.SaleRequest{CustomerName: "Omar", ProductID: it.ID, Quantity: 2, SellingPrice: decimal.NewFromInt(10), Actor: "amal"})
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}
	snap := c.Snapshot()
	if len(snap.Transactions) != 1 || snap.Transactions[0].ID != sale.Transaction.ID {
		t.Errorf("transaction not mirrored")
	}
	if snap.Inventory[0].Stock != 3 {
		t.Errorf("mirrored stock %d, want 3", snap.Inventory[0].Stock)
	}
	if a, d := rec.last(); a != "New Sale" || d != "Sale to Omar" {
		t.Errorf("activity %q %q", a, d)
	}
}

func TestDeleteItemKeepsTransactionReference(t *testing.T) {
	c, db, _ := newCoordinator(t)
	ctx := context.Background()
	it, _ := c.CreateItem(ctx, "amal", model.InventoryItem{Name: "Box", Stock: 5})
	sale, _ := c.RecordSale(ctx, ledger.SaleRequest{ProductID: it.ID, SellingPrice: decimal.NewFromInt(10)})

	if err := c.DeleteItem(ctx, "amal", it.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	tx, err := db.GetTransaction(ctx, sale.Transaction.ID)
	if err != nil || tx.ProductID != it.ID {
		t.Errorf("transaction lost its product id: %+v %v", tx, err)
	}
	if len(c.Snapshot().Inventory) != 0 {
		t.Error("item still mirrored")
	}
}

func TestUpdateTransactionRederives(t *testing.T) {
	c, db, _ := newCoordinator(t)
	ctx := context.Background()
	it, _ := c.CreateItem(ctx, "amal", model.InventoryItem{Name: "Box", Stock: 5})
	sale, _ := c.RecordSale(ctx, ledger.SaleRequest{ProductID: it.ID, Quantity: 1, SellingPrice: decimal.NewFromInt(10)})

	qty, months := 3, 1
	start := model.NewDate(2023, time.January, 31)
	tx, err := c.UpdateTransaction(ctx, "amal", sale.Transaction.ID, model.TransactionPatch{Quantity: &qty, StartDate: &start, Duration: &months})
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if !tx.TotalAmount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("total %s, want 30", tx.TotalAmount)
	}
	if tx.ExpiryDate == nil || tx.ExpiryDate.String() != "2023-03-03" {
		t.Errorf("expiry %v, want 2023-03-03", tx.ExpiryDate)
	}
	if got, _ := db.GetItem(ctx, it.ID); got.Stock != 4 {
		t.Errorf("updating a sale changed stock to %d", got.Stock)
	}

	if err := c.DeleteTransaction(ctx, "amal", tx.ID); err != nil {
		t.Fatal(err)
	}
	if got, _ := db.GetItem(ctx, it.ID); got.Stock != 4 {
		t.Errorf("deleting a sale changed stock to %d", got.Stock)
	}
}

func TestUsers(t *testing.T) {
	c, db, rec := newCoordinator(t)
	ctx := context.Background()

	p, err := c.CreateUser(ctx, "admin", NewUser{Username: "sara", Password: "pw", Pin: "4321"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if p.Role != model.RoleStaff || p.Status != model.UserActive {
		t.Errorf("defaults %+v", p)
	}
	if db.users[0].PasswordHash != utils.HashSecret("pw") || db.users[0].PinHash != utils.HashSecret("4321") {
		t.Error("digests not stored")
	}
	if a, d := rec.last(); a != "Add User" || d != "Added user sara" {
		t.Errorf("activity %q %q", a, d)
	}

	if _, err := c.CreateUser(ctx, "admin", NewUser{Username: "omar", Password: "x", Pin: "4321"}); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("duplicate pin: %v", err)
	}
	if _, err := c.CreateUser(ctx, "admin", NewUser{Username: "omar"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("missing password: %v", err)
	}
	if _, err := c.CreateUser(ctx, "admin", NewUser{Username: "omar", Password: "x", Role: "Root"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("bad role: %v", err)
	}

	// Keeping one's own PIN is not a conflict.
	same := "4321"
	if _, err := c.UpdateUser(ctx, "admin", p.ID, UserUpdate{Pin: &same}); err != nil {
		t.Errorf("re-setting own pin: %v", err)
	}
	empty, inactive := "", model.UserInactive
	upd, err := c.UpdateUser(ctx, "admin", p.ID, UserUpdate{Pin: &empty, Password: &empty, Status: &inactive})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if upd.Status != model.UserInactive || db.users[0].PinHash != "" || db.users[0].PasswordHash != utils.HashSecret("pw") {
		t.Errorf("update result %+v / %+v", upd, db.users[0])
	}

	if err := c.DeleteUser(ctx, "admin", p.ID); err != nil {
		t.Fatal(err)
	}
	if len(c.Snapshot().Users) != 0 {
		t.Error("user still mirrored")
	}
}

func TestSuppliersAndSettings(t *testing.T) {
	c, _, rec := newCoordinator(t)
	ctx := context.Background()

	s, err := c.CreateSupplier(ctx, "amal", model.Supplier{Name: "Acme", Phone: "0600"})
	if err != nil {
		t.Fatal(err)
	}
	name := "Acme Ltd"
	if s, err = c.UpdateSupplier(ctx, "amal", s.ID, model.SupplierPatch{Name: &name}); err != nil || s.Name != name {
		t.Fatalf("UpdateSupplier: %+v %v", s, err)
	}
	if err := c.DeleteSupplier(ctx, "amal", s.ID); err != nil {
		t.Fatal(err)
	}
	if a, _ := rec.last(); a != "Delete Supplier" {
		t.Errorf("activity %q", a)
	}

	cur := "EUR"
	set, err := c.UpdateSettings(ctx, "amal", SettingsPatch{Currency: &cur})
	if err != nil {
		t.Fatal(err)
	}
	if set.Currency != "EUR" || set.AppName != "IP Manager" || set.UpdatedAt == nil {
		t.Errorf("settings %+v", set)
	}
	if c.Snapshot().Settings.Currency != "EUR" {
		t.Error("settings not mirrored")
	}
}

func TestLoadKeepsFailedCollections(t *testing.T) {
	c, db, _ := newCoordinator(t)
	ctx := context.Background()
	db.items = []model.InventoryItem{{ID: "a", Name: "A", Stock: 50}}
	db.txs = []model.Transaction{{ID: "t"}}
	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	db.failList = errors.New("timeout")
	db.txs = nil
	err := c.Load(ctx)
	if err == nil {
		t.Fatal("expected load error")
	}
	snap := c.Snapshot()
	if len(snap.Inventory) != 1 {
		t.Error("failed collection was cleared")
	}
	if len(snap.Transactions) != 0 {
		t.Error("healthy collection not refreshed")
	}
}

func TestNotificationsFromSnapshot(t *testing.T) {
	c, db, _ := newCoordinator(t)
	exp := model.NewDate(2024, 1, 18)
	db.items = []model.InventoryItem{{ID: "a", Stock: 1}, {ID: "b", Stock: 100}}
	db.txs = []model.Transaction{{ID: "t", Status: model.TxCompleted, ExpiryDate: &exp}}
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	n := c.Notifications()
	if n.Total != 2 || len(n.LowStock) != 1 || len(n.Expiring) != 1 || n.Expiring[0].DaysLeft != 3 {
		t.Errorf("notifications %+v", n)
	}
	if d := c.Dashboard(); d.LowStockCount != 1 || d.StockItems != 2 {
		t.Errorf("dashboard %+v", d)
	}
}

func TestActivityMirror(t *testing.T) {
	c, _, _ := newCoordinator(t)
	for i := 0; i < ActivityLimit+5; i++ {
		c.AppendActivity(model.ActivityLogEntry{ID: string(rune('a' + i%26))})
	}
	logs, err := c.Activity(context.Background(), 0)
	if err != nil || len(logs) != ActivityLimit {
		t.Fatalf("activity %d %v", len(logs), err)
	}
	logs, _ = c.Activity(context.Background(), 3)
	if len(logs) != 3 {
		t.Errorf("limit ignored: %d", len(logs))
	}
}

func TestImportDoesNotTouchStock(t *testing.T) {
	c, db, rec := newCoordinator(t)
	ctx := context.Background()
	doc := Export{
		Inventory:    []model.InventoryItem{{ID: "IP-1", Name: "Box", Stock: 7, InitialStock: 10}},
		Transactions: []model.Transaction{{ID: "TXN-1", ProductID: "IP-1", Quantity: 3}},
	}
	if err := c.Import(ctx, "amal", doc); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got, _ := db.GetItem(ctx, "IP-1"); got.Stock != 7 {
		t.Errorf("stock %d, want 7", got.Stock)
	}
	if len(c.Snapshot().Transactions) != 1 {
		t.Error("snapshot not reloaded")
	}
	if a, _ := rec.last(); a != "Import Data" {
		t.Errorf("activity %q", a)
	}
	if err := c.Import(ctx, "amal", Export{Inventory: []model.InventoryItem{{Name: "no id"}}}); !errors.Is(err, ErrInvalid) {
		t.Errorf("import without id: %v", err)
	}
	if exp := c.Export(); len(exp.Inventory) != 1 || !exp.ExportDate.Equal(clock) {
		t.Errorf("export %+v", exp)
	}
}
