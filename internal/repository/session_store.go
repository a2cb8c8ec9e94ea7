package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/ip-manager/internal/session"
)

// SessionSlot keeps one serialized session in the session_slots table,
// for deployments without Redis.
type SessionSlot struct {
	DB  sqlx.ExtContext
	Key string
}

func NewSessionSlot(db sqlx.ExtContext, key string) *SessionSlot {
	if key == "" {
		key = session.DefaultKey
	}
	return &SessionSlot{DB: db, Key: key}
}

// Load returns session.ErrNoSession when the slot is empty.
func (s *SessionSlot) Load(ctx context.Context) ([]byte, error) {
	var data string
	err := sqlx.GetContext(ctx, s.DB, &data, "SELECT data FROM session_slots WHERE slot_key=? LIMIT 1", s.Key)
	if errors.Is(notFound(err), ErrNotFound) {
		return nil, session.ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

// Save replaces the slot content.
func (s *SessionSlot) Save(ctx context.Context, data []byte) error {
	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO session_slots (slot_key, data, updated_at) VALUES (?,?,?) ON DUPLICATE KEY UPDATE data=VALUES(data), updated_at=VALUES(updated_at)",
		s.Key, string(data), time.Now().UTC())
	return err
}

// Delete empties the slot. An empty slot is not an error.
func (s *SessionSlot) Delete(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, "DELETE FROM session_slots WHERE slot_key=?", s.Key)
	return err
}
