package backoffice

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/ip-manager/internal/model"
	"github.com/iliyamo/ip-manager/internal/repository"
	"github.com/iliyamo/ip-manager/internal/utils"
)

// NewUser is the input of CreateUser. Password and Pin are plaintext and
// only their digests are stored.
type NewUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
	Pin      string `json:"pin"`
}

// UserUpdate changes the given fields. A non-nil empty Pin removes the
// user's PIN; a nil or empty Password keeps the current one.
type UserUpdate struct {
	Username *string `json:"username"`
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	Status   *string `json:"status"`
	Password *string `json:"password"`
	Pin      *string `json:"pin"`
}

func validRole(r string) bool   { return r == model.RoleAdmin || r == model.RoleStaff }
func validStatus(s string) bool { return s == model.UserActive || s == model.UserInactive }

// CreateUser adds an account. Usernames and PINs must be unique.
func (c *Coordinator) CreateUser(ctx context.Context, actor string, in NewUser) (model.Profile, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return model.Profile{}, fmt.Errorf("%w: username and password are required", ErrInvalid)
	}
	if in.Role == "" {
		in.Role = model.RoleStaff
	}
	if !validRole(in.Role) {
		return model.Profile{}, fmt.Errorf("%w: unknown role %q", ErrInvalid, in.Role)
	}
	u := model.User{
		ID:           c.newID("user-"),
		Username:     in.Username,
		Name:         in.Name,
		Email:        in.Email,
		Role:         in.Role,
		Status:       model.UserActive,
		PasswordHash: utils.HashSecret(in.Password),
		CreatedAt:    c.now().UTC(),
	}
	if in.Pin != "" {
		u.PinHash = utils.HashSecret(in.Pin)
		if err := c.checkPin(ctx, u.ID, u.PinHash); err != nil {
			return model.Profile{}, err
		}
	}
	if err := c.d.Users.CreateUser(ctx, u); err != nil {
		return model.Profile{}, err
	}
	p := u.Profile()
	c.mu.Lock()
	c.snap.Users = append(c.snap.Users, p)
	c.mu.Unlock()
	c.record(ctx, "Add User", "Added user "+u.Username, actor)
	return p, nil
}

// UpdateUser changes an account. Status changes do not end sessions that
// are already open.
func (c *Coordinator) UpdateUser(ctx context.Context, actor, id string, in UserUpdate) (model.Profile, error) {
	var patch model.UserPatch
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" {
			return model.Profile{}, fmt.Errorf("%w: username cannot be empty", ErrInvalid)
		}
		patch.Username = &name
	}
	if in.Role != nil && !validRole(*in.Role) {
		return model.Profile{}, fmt.Errorf("%w: unknown role %q", ErrInvalid, *in.Role)
	}
	if in.Status != nil && !validStatus(*in.Status) {
		return model.Profile{}, fmt.Errorf("%w: unknown status %q", ErrInvalid, *in.Status)
	}
	patch.Name, patch.Email, patch.Role, patch.Status = in.Name, in.Email, in.Role, in.Status
	if in.Password != nil && *in.Password != "" {
		d := utils.HashSecret(*in.Password)
		patch.PasswordHash = &d
	}
	if in.Pin != nil {
		d := ""
		if *in.Pin != "" {
			d = utils.HashSecret(*in.Pin)
			if err := c.checkPin(ctx, id, d); err != nil {
				return model.Profile{}, err
			}
		}
		patch.PinHash = &d
	}

	u, err := c.d.Users.UpdateUser(ctx, id, patch)
	if err != nil {
		return model.Profile{}, err
	}
	p := u.Profile()
	c.mu.Lock()
	c.snap.Users = replace(c.snap.Users, p, profileID)
	c.mu.Unlock()
	c.record(ctx, "Update User", "Updated user "+id, actor)
	return p, nil
}

// DeleteUser removes an account.
func (c *Coordinator) DeleteUser(ctx context.Context, actor, id string) error {
	if err := c.d.Users.DeleteUser(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	c.snap.Users = remove(c.snap.Users, id, profileID)
	c.mu.Unlock()
	c.record(ctx, "Delete User", "Deleted user "+id, actor)
	return nil
}

// checkPin rejects a PIN digest already used by another user, since PIN
// login picks the first match.
func (c *Coordinator) checkPin(ctx context.Context, selfID, digest string) error {
	users, err := c.d.Users.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.ID != selfID && u.PinHash == digest {
			return fmt.Errorf("%w: PIN already in use", repository.ErrConflict)
		}
	}
	return nil
}
