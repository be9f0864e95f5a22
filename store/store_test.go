package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/vidopen/config"
)

// backends returns one fresh instance of every KV implementation.
func backends(t *testing.T) map[string]KV {
	t.Helper()

	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "selector.db"))
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rds, err := OpenRedis(RedisConfig{Address: mr.Addr(), Prefix: "test:"})
	require.NoError(t, err)

	kvs := map[string]KV{
		"memory": NewMemory(),
		"sqlite": sqlite,
		"redis":  rds,
	}
	t.Cleanup(func() {
		for _, kv := range kvs {
			_ = kv.Close()
		}
	})
	return kvs
}

func TestSelectorStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := NewSelectorStore(kv)

			_, ok, err := s.Get(ctx)
			require.NoError(t, err)
			assert.False(t, ok, "fresh store must be unset")

			require.NoError(t, s.Set(ctx, "//video[1]"))
			got, ok, err := s.Get(ctx)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "//video[1]", got)

			require.NoError(t, s.Set(ctx, `//div[@id="player"]/video`))
			got, _, err = s.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, `//div[@id="player"]/video`, got, "set overwrites")

			require.NoError(t, s.Clear(ctx))
			got, ok, err = s.Get(ctx)
			require.NoError(t, err)
			assert.False(t, ok, "clear unsets")
			assert.Empty(t, got)
		})
	}
}

func TestSelectorStore_EmptySetIsUnset(t *testing.T) {
	ctx := context.Background()
	s := NewSelectorStore(NewMemory())

	require.NoError(t, s.Set(ctx, "//video"))
	require.NoError(t, s.Set(ctx, ""))

	_, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSelectorStore_NoValidation(t *testing.T) {
	ctx := context.Background()
	s := NewSelectorStore(NewMemory())

	require.NoError(t, s.Set(ctx, "//video[[["))
	got, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "//video[[[", got)
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "durable.db")

	first, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, NewSelectorStore(first).Set(ctx, "//video"))
	require.NoError(t, first.Close())

	second, err := OpenSQLite(path)
	require.NoError(t, err)
	defer second.Close()

	got, ok, err := NewSelectorStore(second).Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "//video", got)
}

func TestRedis_UsesPrefix(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	rds, err := OpenRedis(RedisConfig{Address: mr.Addr(), Prefix: "vidopen:"})
	require.NoError(t, err)
	defer rds.Close()

	require.NoError(t, NewSelectorStore(rds).Set(ctx, "//video"))

	v, err := mr.Get("vidopen:" + SelectorKey)
	require.NoError(t, err)
	assert.Equal(t, "//video", v)
}

func TestOpenRedis_EmptyAddress(t *testing.T) {
	kv, err := OpenRedis(RedisConfig{})
	assert.ErrorIs(t, err, ErrEmptyAddress)
	assert.Nil(t, kv)
}

func TestOpen_Backends(t *testing.T) {
	kv, err := Open(config.StoreConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, kv)

	kv, err = Open(config.StoreConfig{Backend: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, kv)
	require.NoError(t, kv.Close())

	_, err = Open(config.StoreConfig{Backend: "etcd"})
	assert.Error(t, err)
}
