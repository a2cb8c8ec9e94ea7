package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/ip-manager/internal/model"
)

const supplierColumns = "id, name, contact, phone, email, notes, created_at"

// SupplierRepo reads and writes the suppliers table.
type SupplierRepo struct{ DB sqlx.ExtContext }

func NewSupplierRepo(db sqlx.ExtContext) *SupplierRepo { return &SupplierRepo{DB: db} }

func (r *SupplierRepo) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	out := []model.Supplier{}
	err := sqlx.SelectContext(ctx, r.DB, &out,
		"SELECT "+supplierColumns+" FROM suppliers ORDER BY name, id")
	return out, err
}

func (r *SupplierRepo) GetSupplier(ctx context.Context, id string) (model.Supplier, error) {
	var s model.Supplier
	err := sqlx.GetContext(ctx, r.DB, &s,
		"SELECT "+supplierColumns+" FROM suppliers WHERE id=? LIMIT 1", id)
	return s, notFound(err)
}

func (r *SupplierRepo) CreateSupplier(ctx context.Context, s model.Supplier) error {
	_, err := sqlx.NamedExecContext(ctx, r.DB,
		`INSERT INTO suppliers (`+supplierColumns+`)
		 VALUES (:id, :name, :contact, :phone, :email, :notes, :created_at)`, s)
	return err
}

func (r *SupplierRepo) SaveSupplier(ctx context.Context, s model.Supplier) error {
	return mustAffect(sqlx.NamedExecContext(ctx, r.DB,
		`UPDATE suppliers SET name=:name, contact=:contact, phone=:phone, email=:email, notes=:notes
		 WHERE id=:id`, s))
}

func (r *SupplierRepo) DeleteSupplier(ctx context.Context, id string) error {
	return mustAffect(r.DB.ExecContext(ctx, "DELETE FROM suppliers WHERE id=?", id))
}
