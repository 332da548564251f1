package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/naveenspark/backoffice/internal/config"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Store is a string key-value store. Get reports ok=false for absent keys.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Open creates the backend selected by cfg.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case config.BackendFile, "":
		s, err = NewFileStore(cfg.Path)
	case config.BackendMemory:
		s = NewMemoryStore()
	case config.BackendRedis:
		s, err = OpenRedis(ctx, cfg.Redis)
	case config.BackendSQLite:
		s, err = OpenSQLite(ctx, cfg.SQLite)
	default:
		return nil, fmt.Errorf("storage.Open %q: %w", cfg.Backend, ErrUnknownBackend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
