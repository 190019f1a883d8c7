// Package kvtest holds the behaviour every kv.Store backend must satisfy.
package kvtest

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/blueprint-storefront/internal/platform/kv"
)

// RunContract exercises store against the kv.Store contract.
func RunContract(t *testing.T, store kv.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(ctx, "orders", "missing")
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "orders", "o-1", []byte(`{"id":"o-1"}`)))

		got, err := store.Get(ctx, "orders", "o-1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"o-1"}`, string(got))
	})

	t.Run("put overwrites", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "orders", "o-1", []byte(`{"id":"o-1","v":2}`)))

		got, err := store.Get(ctx, "orders", "o-1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"o-1","v":2}`, string(got))
	})

	t.Run("collections are isolated", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "sellers", "o-1", []byte(`{"seller":true}`)))

		got, err := store.Get(ctx, "orders", "o-1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"o-1","v":2}`, string(got))
	})

	t.Run("list", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "orders", "o-2", []byte(`{"id":"o-2"}`)))

		records, err := store.List(ctx, "orders")
		require.NoError(t, err)
		var got []string
		for _, r := range records {
			got = append(got, string(r))
		}
		sort.Strings(got)
		require.Len(t, got, 2)
		assert.JSONEq(t, `{"id":"o-1","v":2}`, got[0])
		assert.JSONEq(t, `{"id":"o-2"}`, got[1])
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "orders", "o-2"))
		assert.ErrorIs(t, store.Delete(ctx, "orders", "o-2"), kv.ErrNotFound)

		_, err := store.Get(ctx, "orders", "o-2")
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("delete all", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "orders", "o-3", []byte(`{"id":"o-3"}`)))

		n, err := store.DeleteAll(ctx, "orders")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		records, err := store.List(ctx, "orders")
		require.NoError(t, err)
		assert.Empty(t, records)

		_, err = store.Get(ctx, "sellers", "o-1")
		assert.NoError(t, err)
	})
}
