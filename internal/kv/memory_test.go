package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "k", "v"))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, m.Remove(ctx, "k"))
	assert.Equal(t, 0, m.Len())
}

func TestMemory_Atomic(t *testing.T) {
	ctx := context.Background()

	t.Run("commit applies every write", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Set(ctx, "gone", "x"))

		err := m.Atomic(ctx, func(tx Store) error {
			if err := tx.Set(ctx, "a", "1"); err != nil {
				return err
			}
			v, err := tx.Get(ctx, "a")
			if err != nil {
				return err
			}
			assert.Equal(t, "1", v, "writes are visible inside the transaction")
			return tx.Remove(ctx, "gone")
		})
		require.NoError(t, err)

		v, err := m.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "1", v)
		_, err = m.Get(ctx, "gone")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("error discards every write", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Set(ctx, "a", "old"))

		boom := errors.New("boom")
		err := m.Atomic(ctx, func(tx Store) error {
			_ = tx.Set(ctx, "a", "new")
			_ = tx.Set(ctx, "b", "new")
			return boom
		})
		assert.ErrorIs(t, err, boom)

		v, _ := m.Get(ctx, "a")
		assert.Equal(t, "old", v)
		assert.Equal(t, 1, m.Len())
	})
}
