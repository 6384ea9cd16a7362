// Package kvstoretest holds the behaviour every kvstore backend must share.
package kvstoretest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduhaag/GoMarketplace/internal/kvstore"
)

// Run exercises a backend built by newStore. Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) kvstore.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("absent key", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "@GoMarketplace:products")
		require.Error(t, err)
		assert.True(t, kvstore.IsAbsent(err))
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "k", `[{"id":"a"}]`))

		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, `[{"id":"a"}]`, got)
	})

	t.Run("set overwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "k", "first"))
		require.NoError(t, s.Set(ctx, "k", "second"))

		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "second", got)
	})

	t.Run("empty value is present", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "k", ""))

		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("keys are independent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "a", "1"))
		require.NoError(t, s.Set(ctx, "b", "2"))

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "1", got)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(ctx))
	})
}
