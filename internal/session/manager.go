package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/ip-manager/internal/model"
	"github.com/iliyamo/ip-manager/internal/utils"
)

// Directory is the read side of the user accounts plus the one write the
// session layer needs (last-active and credential changes).
type Directory interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, id string, patch model.UserPatch) (model.User, error)
}

// Recorder appends activity log entries. Implementations must not block
// the caller on storage.
type Recorder interface {
	Record(ctx context.Context, action, details, actor string)
}

// Manager creates, persists, restores and expires the login session.
// Last-active updates run in the background; Wait blocks until they are
// done.
type Manager struct {
	dir      Directory
	store    Store
	slots    func(userID string) Store
	log      *zap.Logger
	recorder Recorder
	now      func() time.Time
	newID    func() string

	bg sync.WaitGroup
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRecorder makes successful logins append a "Login" activity entry.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithSlots gives every user a slot of their own, chosen after the
// credential check. Without it all logins share the default store.
func WithSlots(slotFor func(userID string) Store) Option {
	return func(m *Manager) { m.slots = slotFor }
}

// NewManager wires a Manager. A nil logger is replaced with a no-op one.
func NewManager(dir Directory, store Store, log *zap.Logger, opts ...Option) *Manager {
	if dir == nil || store == nil {
		panic("nil dependency passed to session.NewManager")
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		dir:   dir,
		store: store,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoginWithPassword authenticates the user whose username matches exactly.
func (m *Manager) LoginWithPassword(ctx context.Context, username, password string) (Session, error) {
	users, err := m.dir.ListUsers(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("list users: %w", err)
	}
	var found *model.User
	for i := range users {
		if users[i].Username == username {
			found = &users[i]
			break
		}
	}
	if found == nil {
		return Session{}, ErrUserNotFound
	}
	if !utils.VerifyPassword(found.PasswordHash, password) {
		return Session{}, ErrInvalidCredential
	}
	return m.establish(ctx, *found)
}

// LoginWithPin authenticates the first user whose PIN digest matches.
// Users without a PIN never match.
func (m *Manager) LoginWithPin(ctx context.Context, pin string) (Session, error) {
	users, err := m.dir.ListUsers(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("list users: %w", err)
	}
	digest := utils.HashSecret(pin)
	for _, u := range users {
		if u.PinHash != "" && u.PinHash == digest {
			return m.establish(ctx, u)
		}
	}
	return Session{}, ErrInvalidCredential
}

func (m *Manager) establish(ctx context.Context, u model.User) (Session, error) {
	now := m.now().UTC()
	s := Session{
		ID:        m.newID(),
		User:      u.Profile(),
		CreatedAt: time.UnixMilli(now.UnixMilli()).UTC(),
	}
	data, err := json.Marshal(s)
	if err != nil {
		return Session{}, err
	}
	if err := m.slot(u.ID).Save(ctx, data); err != nil {
		return Session{}, fmt.Errorf("persist session: %w", err)
	}

	m.touch(ctx, u.ID, now)
	if m.recorder != nil {
		m.recorder.Record(ctx, "Login", fmt.Sprintf("User %s logged in", u.Username), u.Username)
	}
	m.log.Info("login", zap.String("user_id", u.ID), zap.String("username", u.Username))
	return s, nil
}

// touch schedules the last-active write. Its failure never reaches the
// login caller.
func (m *Manager) touch(ctx context.Context, userID string, at time.Time) {
	m.bg.Add(1)
	go func() {
		defer m.bg.Done()
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if _, err := m.dir.UpdateUser(bctx, userID, model.UserPatch{LastActive: &at}); err != nil {
			m.log.Warn("update last_active failed", zap.String("user_id", userID), zap.Error(err))
		}
	}()
}

func (m *Manager) slot(userID string) Store {
	if m.slots != nil && userID != "" {
		return m.slots(userID)
	}
	return m.store
}

// RestoreSession returns the persisted session, or nil when there is none
// or it has expired. An expired or unreadable slot is cleared.
func (m *Manager) RestoreSession(ctx context.Context) (*Session, error) {
	return m.restore(ctx, m.store)
}

// RestoreUser is RestoreSession for the slot of one user.
func (m *Manager) RestoreUser(ctx context.Context, userID string) (*Session, error) {
	return m.restore(ctx, m.slot(userID))
}

func (m *Manager) restore(ctx context.Context, store Store) (*Session, error) {
	data, err := store.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		m.log.Warn("discarding unreadable session", zap.Error(err))
		return nil, clearSlot(ctx, store)
	}
	if s.Expired(m.now()) {
		m.log.Info("session expired", zap.String("user_id", s.User.ID))
		return nil, clearSlot(ctx, store)
	}
	return &s, nil
}

// Logout removes the persisted session. There is no server-side token to
// revoke.
func (m *Manager) Logout(ctx context.Context) error {
	return clearSlot(ctx, m.store)
}

// LogoutUser clears the slot of one user.
func (m *Manager) LogoutUser(ctx context.Context, userID string) error {
	return clearSlot(ctx, m.slot(userID))
}

func clearSlot(ctx context.Context, store Store) error {
	if err := store.Delete(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ChangeCredentials sets a new username and, when newPassword is not
// empty, a new password digest for the session's user. The PIN is left
// as is.
func (m *Manager) ChangeCredentials(ctx context.Context, s *Session, newUsername, newPassword string) error {
	if s == nil || s.Expired(m.now()) {
		return ErrNotAuthenticated
	}
	patch := model.UserPatch{Username: &newUsername}
	if newPassword != "" {
		digest := utils.HashSecret(newPassword)
		patch.PasswordHash = &digest
	}
	if _, err := m.dir.UpdateUser(ctx, s.User.ID, patch); err != nil {
		return fmt.Errorf("update credentials: %w", err)
	}
	return nil
}

// Wait blocks until background last-active updates have finished.
func (m *Manager) Wait() { m.bg.Wait() }
