package metacache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemory(t *testing.T, cfg Config) (*MemoryCache, *time.Time) {
	t.Helper()
	m := NewMemoryCache(cfg)
	t.Cleanup(func() { m.Close() })

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	m, _ := newTestMemory(t, DefaultConfig())
	ctx := context.Background()

	value := []byte("compiled")
	require.NoError(t, m.Set(ctx, "meta:Robots", value, time.Minute))

	got, err := m.Get(ctx, "meta:Robots")
	require.NoError(t, err)
	assert.Equal(t, value, got)

	// Stored bytes are isolated from the caller's slice
	value[0] = 'X'
	got, _ = m.Get(ctx, "meta:Robots")
	assert.Equal(t, []byte("compiled"), got)
}

func TestMemoryCache_Miss(t *testing.T) {
	m, _ := newTestMemory(t, DefaultConfig())

	_, err := m.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryCache_Expiration(t *testing.T) {
	m, now := newTestMemory(t, Config{DefaultTTL: time.Minute, Prefix: "t:"})
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "default", []byte("a"), 0))
	require.NoError(t, m.Set(ctx, "long", []byte("b"), time.Hour))
	require.NoError(t, m.Set(ctx, "forever", []byte("c"), -1))

	*now = now.Add(2 * time.Minute)

	_, err := m.Get(ctx, "default")
	assert.True(t, IsCacheMiss(err))

	ok, err := m.Exists(ctx, "long")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = m.Exists(ctx, "default")
	assert.False(t, ok)

	*now = now.Add(24 * time.Hour)
	m.removeExpired()
	assert.Equal(t, 1, m.Len())

	_, err = m.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	m, _ := newTestMemory(t, DefaultConfig())
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), 0))

	require.NoError(t, m.Delete(ctx, "a"))
	ok, _ := m.Exists(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, m.Clear(ctx))
	assert.Equal(t, 0, m.Len())
}

func TestMemoryCache_ContextCancelled(t *testing.T) {
	m, _ := newTestMemory(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, m.Set(ctx, "a", nil, 0), context.Canceled)
	assert.ErrorIs(t, m.Delete(ctx, "a"), context.Canceled)
	assert.ErrorIs(t, m.Clear(ctx), context.Canceled)
	_, err = m.Exists(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}
