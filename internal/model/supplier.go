package model

import "time"

// Supplier is a vendor the shop buys stock from. Inventory items refer
// to suppliers by name only.
type Supplier struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Contact   string    `db:"contact" json:"contact"`
	Phone     string    `db:"phone" json:"phone"`
	Email     string    `db:"email" json:"email"`
	Notes     string    `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SupplierPatch lists the columns an update may touch.
type SupplierPatch struct {
	Name    *string `json:"name"`
	Contact *string `json:"contact"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Notes   *string `json:"notes"`
}

// Apply copies the non-nil fields of p onto s.
func (p SupplierPatch) Apply(s *Supplier) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Contact != nil {
		s.Contact = *p.Contact
	}
	if p.Phone != nil {
		s.Phone = *p.Phone
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
}
