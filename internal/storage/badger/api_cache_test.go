package badger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stencil/internal/common"
	"github.com/ternarybob/stencil/internal/interfaces"
)

func newTestAPICache(t *testing.T) interfaces.APICache {
	t.Helper()

	logger := arbor.NewLogger()
	db, err := NewBadgerDB(logger, &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "cache"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewAPICache(db, logger)
}

func TestCacheSetAndGet(t *testing.T) {
	cache := newTestAPICache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "https://api.example.test/files/abc", []byte(`{"name":"x"}`)))

	body, err := cache.Get(ctx, "https://api.example.test/files/abc", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"name":"x"}`), body)
}

func TestCacheMissOnUnknownKey(t *testing.T) {
	cache := newTestAPICache(t)

	_, err := cache.Get(context.Background(), "https://api.example.test/nope", time.Minute)
	assert.ErrorIs(t, err, interfaces.ErrCacheMiss)
}

func TestCacheStaleEntryIsAMiss(t *testing.T) {
	cache := newTestAPICache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", []byte("body")))
	time.Sleep(20 * time.Millisecond)

	_, err := cache.Get(ctx, "key", 10*time.Millisecond)
	assert.ErrorIs(t, err, interfaces.ErrCacheMiss)

	// Zero maxAge disables staleness checks entirely.
	body, err := cache.Get(ctx, "key", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("body"), body)
}

func TestCacheOverwriteAndPurge(t *testing.T) {
	cache := newTestAPICache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", []byte("v1")))
	require.NoError(t, cache.Set(ctx, "key", []byte("v2")))

	body, err := cache.Get(ctx, "key", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), body)

	require.NoError(t, cache.Purge(ctx))
	_, err = cache.Get(ctx, "key", time.Minute)
	assert.ErrorIs(t, err, interfaces.ErrCacheMiss)
}
