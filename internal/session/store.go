package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned by Store.Load when the slot is empty.
var ErrNoSession = errors.New("no persisted session")

// Store is a single durable key-value slot holding the serialized active
// session.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Delete(ctx context.Context) error
}

// RedisStore keeps the slot in a Redis string key.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore returns a Store backed by key on rdb.
func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

func (s *RedisStore) Load(ctx context.Context) ([]byte, error) {
	b, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	return b, err
}

func (s *RedisStore) Save(ctx context.Context, data []byte) error {
	return s.rdb.Set(ctx, s.key, data, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}

// FileStore keeps the slot in a file, for terminal use where no server
// side storage is reachable.
type FileStore struct {
	path string
}

// NewFileStore returns a Store writing to path. Parent directories are
// created on first save.
func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	return b, err
}

func (s *FileStore) Save(ctx context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Delete(ctx context.Context) error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
