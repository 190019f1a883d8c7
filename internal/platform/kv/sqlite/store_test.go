package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/blueprint-storefront/internal/platform/kv/kvtest"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storefront.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestStoreContract(t *testing.T) {
	store, _ := openTestStore(t)
	kvtest.RunContract(t, store)
}

func TestStoreSurvivesReopen(t *testing.T) {
	store, path := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sellers", "s-1", []byte(`{"id":"s-1"}`)))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "sellers", "s-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"s-1"}`, string(got))
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.EqualError(t, err, "storage path is required")
}
