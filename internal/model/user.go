package model

import "time"

// Roles and account states stored in users.role / users.status.
const (
	RoleAdmin = "Admin"
	RoleStaff = "Staff"

	UserActive   = "Active"
	UserInactive = "Inactive"
)

// User represents an account record as stored in the `users` table.
// PasswordHash and PinHash hold credential digests and carry `json:"-"`
// so they never leave the process through an encoder; code that hands a
// user to a session or a client converts it to a Profile first.
//
// Fields:
//
//	ID           – primary key identifier (user-<uuid>).
//	Username     – unique, case-sensitive login name.
//	Name         – display name.
//	Email        – contact address.
//	Role         – Admin or Staff.
//	Status       – Active or Inactive.
//	PasswordHash – digest of the password (SHA-256 hex, or legacy bcrypt).
//	PinHash      – digest of the PIN; empty when the user has no PIN.
//	LastActive   – last successful login (nullable).
//	CreatedAt    – timestamp of creation.
type User struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	Role         string     `db:"role" json:"role"`
	Status       string     `db:"status" json:"status"`
	PasswordHash string     `db:"password_hash" json:"-"`
	PinHash      string     `db:"pin_hash" json:"-"`
	LastActive   *time.Time `db:"last_active" json:"last_active,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Profile is a user record with both credential digests stripped. It is
// the only user shape stored in a session.
type Profile struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	LastActive *time.Time `json:"last_active,omitempty"`
}

// Profile returns the sanitized view of u.
func (u User) Profile() Profile {
	return Profile{
		ID:         u.ID,
		Username:   u.Username,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Status:     u.Status,
		LastActive: u.LastActive,
	}
}

// IsAdmin reports whether the profile carries the Admin role.
func (p Profile) IsAdmin() bool { return p.Role == RoleAdmin }

// UserPatch lists the columns an update may touch. Nil fields are left
// unchanged.
type UserPatch struct {
	Username     *string
	Name         *string
	Email        *string
	Role         *string
	Status       *string
	PasswordHash *string
	PinHash      *string
	LastActive   *time.Time
}

// Apply copies the non-nil fields of p onto u.
func (p UserPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.PinHash != nil {
		u.PinHash = *p.PinHash
	}
	if p.LastActive != nil {
		t := *p.LastActive
		u.LastActive = &t
	}
}
