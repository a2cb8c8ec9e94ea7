// Package repository holds the MySQL data access code. The sentinel
// values below let handlers tell failure cases apart: ErrNotFound maps to
// 404 and ErrConflict to 409.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/ip-manager/internal/model"
)

// ErrNotFound is returned when a row with the requested id does not
// exist. It is the same value as model.ErrNotFound so that packages which
// cannot import repository can still test for it.
var ErrNotFound = model.ErrNotFound

// ErrConflict is returned when a write would break a uniqueness rule,
// such as a second user with the same username or PIN. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// isDuplicate reports whether err is MySQL error 1062 (duplicate key).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// mustAffect returns ErrNotFound when an UPDATE or DELETE matched no row.
func mustAffect(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
