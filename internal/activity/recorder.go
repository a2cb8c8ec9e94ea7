// Package activity appends entries to the audit log without making the
// caller wait for storage.
package activity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/ip-manager/internal/model"
)

// Store persists log entries.
type Store interface {
	AppendActivity(ctx context.Context, e model.ActivityLogEntry) error
}

// Recorder writes entries in the background. Failed writes are logged and
// dropped.
type Recorder struct {
	store    Store
	log      *zap.Logger
	now      func() time.Time
	onAppend func(model.ActivityLogEntry)

	wg sync.WaitGroup
}

// NewRecorder returns a Recorder writing to store. onAppend, when not nil,
// is called with every entry that was stored.
func NewRecorder(store Store, log *zap.Logger, onAppend func(model.ActivityLogEntry)) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{store: store, log: log, now: time.Now, onAppend: onAppend}
}

// Record queues one entry. An empty actor is logged as System.
func (r *Recorder) Record(ctx context.Context, action, details, actor string) {
	if actor == "" {
		actor = model.SystemActor
	}
	e := model.ActivityLogEntry{
		ID:        uuid.NewString(),
		Action:    action,
		Details:   details,
		UserName:  actor,
		Timestamp: r.now().UTC(),
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := r.store.AppendActivity(wctx, e); err != nil {
			r.log.Warn("append activity", zap.String("action", action), zap.Error(err))
			return
		}
		if r.onAppend != nil {
			r.onAppend(e)
		}
	}()
}

// Wait blocks until queued entries are written.
func (r *Recorder) Wait() { r.wg.Wait() }
