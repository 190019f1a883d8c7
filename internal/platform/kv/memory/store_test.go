package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/blueprint-storefront/internal/platform/kv/kvtest"
)

func TestStoreContract(t *testing.T) {
	kvtest.RunContract(t, New())
}

func TestStoreReturnsCopies(t *testing.T) {
	store := New()
	ctx := context.Background()
	value := []byte(`{"a":1}`)

	require.NoError(t, store.Put(ctx, "c", "k", value))
	value[2] = 'b'

	got, err := store.Get(ctx, "c", "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Put(ctx, "c", "k", []byte("{}"))
	assert.ErrorIs(t, err, context.Canceled)
}
