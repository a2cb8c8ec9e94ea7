// Package session implements password and PIN login, the persisted login
// session and its absolute one-hour lifetime.
package session

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/iliyamo/ip-manager/internal/model"
)

// TTL is the lifetime of a session measured from its creation. Activity
// does not extend it.
const TTL = time.Hour

// DefaultKey is the slot under which the active session is persisted.
const DefaultKey = "ipManagerSession"

// Auth errors. They are returned as values so that a failed login leaves
// the caller in the logged-out state with a message to show.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrNotAuthenticated  = errors.New("not authenticated")
)

// Session is proof of a successful login: the sanitized user and the
// moment the session was created.
type Session struct {
	ID        string
	User      model.Profile
	CreatedAt time.Time
}

// persisted is the stored JSON form. The timestamp is in milliseconds
// since the epoch.
type persisted struct {
	ID        string        `json:"id"`
	User      model.Profile `json:"user"`
	Timestamp int64         `json:"timestamp"`
}

// MarshalJSON writes the persisted form.
func (s Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(persisted{ID: s.ID, User: s.User, Timestamp: s.CreatedAt.UnixMilli()})
}

// UnmarshalJSON reads the persisted form.
func (s *Session) UnmarshalJSON(b []byte) error {
	var p persisted
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if p.Timestamp <= 0 {
		return errors.New("session without timestamp")
	}
	s.ID = p.ID
	s.User = p.User
	s.CreatedAt = time.UnixMilli(p.Timestamp).UTC()
	return nil
}

// ExpiresAt returns the instant from which the session is invalid.
func (s Session) ExpiresAt() time.Time { return s.CreatedAt.Add(TTL) }

// Expired reports whether at least TTL has elapsed between creation and
// now, at millisecond resolution.
func (s Session) Expired(now time.Time) bool {
	return now.UnixMilli()-s.CreatedAt.UnixMilli() >= TTL.Milliseconds()
}
