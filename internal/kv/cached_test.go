package kv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore counts reads that reach the backing store.
type countingStore struct {
	*Memory
	gets int
}

func (s *countingStore) Get(ctx context.Context, key string) (string, error) {
	s.gets++
	return s.Memory.Get(ctx, key)
}

func TestCached_ReadThrough(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Memory: NewMemory()}
	require.NoError(t, inner.Memory.Set(ctx, "k", "v"))
	c := NewCached(inner, time.Minute)

	for i := 0; i < 3; i++ {
		v, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	}
	assert.Equal(t, 1, inner.gets)

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _ = c.Get(ctx, "missing")
	assert.Equal(t, 3, inner.gets, "misses are not cached")
}

func TestCached_WritesKeepCacheCoherent(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Memory: NewMemory()}
	c := NewCached(inner, time.Minute)

	require.NoError(t, c.Set(ctx, "k", "1"))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
	assert.Equal(t, 0, inner.gets)

	require.NoError(t, c.Remove(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCached_AtomicFlushesOnCommit(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Memory: NewMemory()}
	c := NewCached(inner, time.Minute)
	require.NoError(t, c.Set(ctx, "k", "old"))

	boom := errors.New("boom")
	err := c.Atomic(ctx, func(tx Store) error {
		_ = tx.Set(ctx, "k", "discarded")
		return boom
	})
	assert.ErrorIs(t, err, boom)
	v, _ := c.Get(ctx, "k")
	assert.Equal(t, "old", v)

	require.NoError(t, c.Atomic(ctx, func(tx Store) error {
		return tx.Set(ctx, "k", "new")
	}))
	v, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", v)
}
