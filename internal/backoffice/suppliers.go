package backoffice

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/ip-manager/internal/model"
)

func (c *Coordinator) CreateSupplier(ctx context.Context, actor string, in model.Supplier) (model.Supplier, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return model.Supplier{}, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	in.ID = c.newID("SUP-")
	in.CreatedAt = c.now().UTC()
	if err := c.d.Suppliers.CreateSupplier(ctx, in); err != nil {
		return model.Supplier{}, err
	}
	c.mu.Lock()
	c.snap.Suppliers = append(c.snap.Suppliers, in)
	c.mu.Unlock()
	c.record(ctx, "Add Supplier", "Added supplier "+in.Name, actor)
	return in, nil
}

func (c *Coordinator) UpdateSupplier(ctx context.Context, actor, id string, patch model.SupplierPatch) (model.Supplier, error) {
	s, err := c.d.Suppliers.GetSupplier(ctx, id)
	if err != nil {
		return model.Supplier{}, err
	}
	patch.Apply(&s)
	if strings.TrimSpace(s.Name) == "" {
		return model.Supplier{}, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if err := c.d.Suppliers.SaveSupplier(ctx, s); err != nil {
		return model.Supplier{}, err
	}
	c.mu.Lock()
	c.snap.Suppliers = replace(c.snap.Suppliers, s, supplierID)
	c.mu.Unlock()
	c.record(ctx, "Update Supplier", "Updated supplier "+id, actor)
	return s, nil
}

func (c *Coordinator) DeleteSupplier(ctx context.Context, actor, id string) error {
	if err := c.d.Suppliers.DeleteSupplier(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	c.snap.Suppliers = remove(c.snap.Suppliers, id, supplierID)
	c.mu.Unlock()
	c.record(ctx, "Delete Supplier", "Deleted supplier "+id, actor)
	return nil
}
