package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenspark/backoffice/internal/config"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() }) //nolint:errcheck
	return mr, client
}

// backends returns a fresh instance of every backend.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	file, err := NewFileStore(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)

	_, rdb := newTestRedis(t)

	sqlite, err := OpenSQLite(ctx, config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "kv.db"), BusyTimeout: 1})
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() }) //nolint:errcheck

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   file,
		"redis":  NewRedisStore(rdb, "test:"),
		"sqlite": sqlite,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(ctx, "auth")
			require.NoError(t, err)
			assert.False(t, ok, "absent key reported present")

			require.NoError(t, s.Set(ctx, "auth", `{"token":"T1"}`))
			v, ok, err := s.Get(ctx, "auth")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"token":"T1"}`, v)

			require.NoError(t, s.Set(ctx, "auth", `{"token":"T2"}`))
			v, _, err = s.Get(ctx, "auth")
			require.NoError(t, err)
			assert.Equal(t, `{"token":"T2"}`, v, "Set must overwrite")

			require.NoError(t, s.Remove(ctx, "auth"))
			_, ok, err = s.Get(ctx, "auth")
			require.NoError(t, err)
			assert.False(t, ok, "removed key still present")

			// removing an absent key is not an error
			require.NoError(t, s.Remove(ctx, "auth"))
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "storage.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "company", `{"id":9}`))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get(ctx, "company")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":9}`, v)
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileStore(path)
	assert.ErrorContains(t, err, "decode")
}

func TestRedisStoreUsesPrefix(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)

	s := NewRedisStore(rdb, "bo:")
	require.NoError(t, s.Set(ctx, "auth", "x"))

	got, err := mr.Get("bo:auth")
	require.NoError(t, err)
	assert.Equal(t, "x", got)
	assert.NoError(t, s.Close(), "Close on a borrowed client must be a no-op")
}

func TestOpenRedis(t *testing.T) {
	mr, _ := newTestRedis(t)

	s, err := OpenRedis(context.Background(), config.RedisConfig{Addr: mr.Addr(), Prefix: "p:"})
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	require.NoError(t, s.Set(context.Background(), "k", "v"))
	assert.True(t, mr.Exists("p:k"))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StorageConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, config.StorageConfig{Backend: config.BackendFile, Path: filepath.Join(t.TempDir(), "s.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(ctx, config.StorageConfig{Backend: "etcd"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
