package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/ip-manager/internal/model"
)

const userColumns = "id, username, name, email, role, status, password_hash, pin_hash, last_active, created_at"

// UserRepo reads and writes the users table. It is the Directory the
// session manager authenticates against.
type UserRepo struct{ DB sqlx.ExtContext }

func NewUserRepo(db sqlx.ExtContext) *UserRepo { return &UserRepo{DB: db} }

// ListUsers returns every user, oldest first.
func (r *UserRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	err := sqlx.SelectContext(ctx, r.DB, &users,
		"SELECT "+userColumns+" FROM users ORDER BY created_at, id")
	return users, err
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := sqlx.GetContext(ctx, r.DB, &u,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return u, notFound(err)
}

// CreateUser inserts u. A taken username yields ErrConflict.
func (r *UserRepo) CreateUser(ctx context.Context, u model.User) error {
	_, err := sqlx.NamedExecContext(ctx, r.DB,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (:id, :username, :name, :email, :role, :status, :password_hash, :pin_hash, :last_active, :created_at)`, u)
	if isDuplicate(err) {
		return fmt.Errorf("%w: username %q is taken", ErrConflict, u.Username)
	}
	return err
}

// UpdateUser applies patch to the stored user and returns the result.
func (r *UserRepo) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (model.User, error) {
	u, err := r.GetUser(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	patch.Apply(&u)
	err = mustAffect(sqlx.NamedExecContext(ctx, r.DB,
		`UPDATE users SET username=:username, name=:name, email=:email, role=:role, status=:status,
		 password_hash=:password_hash, pin_hash=:pin_hash, last_active=:last_active WHERE id=:id`, u))
	if isDuplicate(err) {
		return model.User{}, fmt.Errorf("%w: username %q is taken", ErrConflict, u.Username)
	}
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// DeleteUser removes a user.
func (r *UserRepo) DeleteUser(ctx context.Context, id string) error {
	return mustAffect(r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id))
}

// CountUsers is used at boot to decide whether to seed an admin.
func (r *UserRepo) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.DB, &n, "SELECT COUNT(*) FROM users")
	return n, err
}
