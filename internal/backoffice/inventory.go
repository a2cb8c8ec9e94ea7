package backoffice

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/ip-manager/internal/model"
)

// CreateItem stores a new inventory item. The initial stock is the stock
// given here and is never changed afterwards.
func (c *Coordinator) CreateItem(ctx context.Context, actor string, in model.InventoryItem) (model.InventoryItem, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return model.InventoryItem{}, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if in.Type == "" {
		in.Type = model.TypeDigital
	}
	if in.LowStockThreshold == nil {
		t := model.DefaultLowStockThreshold
		in.LowStockThreshold = &t
	}
	now := c.now().UTC()
	in.ID = c.newID("IP-")
	in.InitialStock = in.Stock
	in.Status = model.StockStatus(in.Status, in.Stock, in.Threshold())
	in.DateAdded = now
	in.CreatedAt = now
	in.UpdatedAt = nil

	if err := c.d.Inventory.CreateItem(ctx, in); err != nil {
		return model.InventoryItem{}, err
	}
	c.mu.Lock()
	c.snap.Inventory = append([]model.InventoryItem{in}, c.snap.Inventory...)
	c.mu.Unlock()
	c.record(ctx, "Add Product", "Added "+in.Name, actor)
	return in, nil
}

// UpdateItem applies patch. Editing stock here does not touch any
// transaction.
func (c *Coordinator) UpdateItem(ctx context.Context, actor, id string, patch model.InventoryPatch) (model.InventoryItem, error) {
	it, err := c.d.Inventory.GetItem(ctx, id)
	if err != nil {
		return model.InventoryItem{}, err
	}
	patch.Apply(&it)
	if strings.TrimSpace(it.Name) == "" {
		return model.InventoryItem{}, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	it.Status = model.StockStatus(it.Status, it.Stock, it.Threshold())
	now := c.now().UTC()
	it.UpdatedAt = &now

	if err := c.d.Inventory.SaveItem(ctx, it); err != nil {
		return model.InventoryItem{}, err
	}
	c.mu.Lock()
	c.snap.Inventory = replace(c.snap.Inventory, it, itemID)
	c.mu.Unlock()
	c.record(ctx, "Update Product", "Updated product "+id, actor)
	return it, nil
}

// DeleteItem removes an item. Transactions keep their product id.
func (c *Coordinator) DeleteItem(ctx context.Context, actor, id string) error {
	if err := c.d.Inventory.DeleteItem(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	c.snap.Inventory = remove(c.snap.Inventory, id, itemID)
	c.mu.Unlock()
	c.record(ctx, "Delete Product", "Deleted product "+id, actor)
	return nil
}
