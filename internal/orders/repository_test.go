package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/matheusmosca/blueprint-storefront/internal/apperrors"
	"github.com/matheusmosca/blueprint-storefront/internal/platform/kv/memory"
	"github.com/matheusmosca/blueprint-storefront/internal/resolver"
)

func newRepository() (*KVRepository, *memory.Store) {
	store := memory.New()
	return NewRepository(store, zap.NewNop()).(*KVRepository), store
}

func sampleOrder() NewOrder {
	return NewOrder{
		BuyerDiscordNick: "buyer",
		Offer:            "5k",
		OriginalOffer:    "5k",
		Items: []resolver.RequestedItem{
			{ItemID: "A", ItemName: "Alpha", Quantity: 2},
			{ItemID: "B", ItemName: "Beta", Quantity: 1},
		},
	}
}

func TestCreate(t *testing.T) {
	// Arrange
	repo, _ := newRepository()
	ctx := context.Background()

	// Act
	created, err := repo.Create(ctx, sampleOrder())

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, StatusOpen, created.Status)
	assert.Equal(t, SchemaVersion, created.SchemaVersion)
	require.Len(t, created.ItemClaims, 2)
	for _, c := range created.ItemClaims {
		assert.Equal(t, ClaimUnclaimed, c.ClaimStatus)
		assert.Empty(t, c.ClaimedBySellerID)
		assert.Zero(t, c.ClaimedQuantity)
	}

	loaded, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ItemClaims, loaded.ItemClaims)
	assert.True(t, created.CreatedAt.Equal(loaded.CreatedAt))
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := newRepository()

	_, err := repo.Get(context.Background(), "missing")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	assert.Equal(t, apperrors.CodeOrderNotFound, apperrors.CodeOf(err))
}

func TestListAll_NewestFirst(t *testing.T) {
	repo, _ := newRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		repo.now = func() time.Time { return at }
		o, err := repo.Create(ctx, sampleOrder())
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}

	all, err := repo.ListAll(ctx)

	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestUpdate_Overwrites(t *testing.T) {
	repo, _ := newRepository()
	ctx := context.Background()
	o, err := repo.Create(ctx, sampleOrder())
	require.NoError(t, err)

	o.Claim("A").Claim("seller-1", time.Now().UTC())
	o.Status = StatusInProgress
	require.NoError(t, repo.Update(ctx, o))

	loaded, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, loaded.Status)
	assert.Equal(t, ClaimClaimed, loaded.Claim("A").ClaimStatus)
	assert.Equal(t, 2, loaded.Claim("A").ClaimedQuantity)
}

func TestDeleteAndDeleteAll(t *testing.T) {
	repo, _ := newRepository()
	ctx := context.Background()
	a, err := repo.Create(ctx, sampleOrder())
	require.NoError(t, err)
	_, err = repo.Create(ctx, sampleOrder())
	require.NoError(t, err)
	_, err = repo.Create(ctx, sampleOrder())
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, a.ID))
	assert.Equal(t, apperrors.CodeOrderNotFound, apperrors.CodeOf(repo.Delete(ctx, a.ID)))

	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestGet_MigratesLegacyRecord(t *testing.T) {
	// Arrange
	repo, store := newRepository()
	ctx := context.Background()
	legacy := `{
		"orderId": "legacy-1",
		"buyerDiscordNick": "old-buyer",
		"offer": "3 beers",
		"items": [{"itemId": "A", "itemName": "Alpha", "quantity": 4}],
		"sellerGroups": [
			{"sellerId": "s1", "discordHandle": "one", "items": [
				{"itemId": "A", "itemName": "Alpha", "requestedQty": 4, "available": true, "availableQty": 9},
				{"itemId": "B", "itemName": "Beta", "requestedQty": 1, "available": true, "availableQty": 1}
			]},
			{"sellerId": "s2", "discordHandle": "two", "items": [
				{"itemId": "A", "itemName": "Alpha", "requestedQty": 7, "available": false, "availableQty": 1}
			]}
		],
		"createdAt": "2025-01-01T00:00:00Z"
	}`
	require.NoError(t, store.Put(ctx, collection, "legacy-1", []byte(legacy)))

	// Act
	o, err := repo.Get(ctx, "legacy-1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, o.Status)
	assert.Equal(t, SchemaVersion, o.SchemaVersion)
	assert.Equal(t, "3 beers", o.OriginalOffer)
	assert.NotNil(t, o.SellerStates)
	require.Len(t, o.ItemClaims, 2)
	assert.Equal(t, ItemClaim{ItemID: "A", ItemName: "Alpha", RequestedQty: 4, ClaimStatus: ClaimUnclaimed}, o.ItemClaims[0])
	assert.Equal(t, "B", o.ItemClaims[1].ItemID)
}

func TestMigrate_CurrentRecordUnchanged(t *testing.T) {
	o := Order{
		ID:            "o-1",
		Offer:         "x",
		OriginalOffer: "x",
		Status:        StatusInProgress,
		ItemClaims:    []ItemClaim{{ItemID: "A", RequestedQty: 1, ClaimStatus: ClaimClaimed, ClaimedBySellerID: "s1", ClaimedQuantity: 1}},
		SellerStates:  []SellerState{},
		SchemaVersion: SchemaVersion,
	}

	migrated, changed := Migrate(o)

	assert.False(t, changed)
	assert.Equal(t, o, migrated)
}

func TestMigrate_FallsBackToRequestedItems(t *testing.T) {
	o := Order{
		ID:     "o-2",
		Offer:  "x",
		Status: StatusOpen,
		Items:  []resolver.RequestedItem{{ItemID: "A", Quantity: 2}, {ItemID: "A", Quantity: 5}},
	}

	migrated, changed := Migrate(o)

	assert.True(t, changed)
	require.Len(t, migrated.ItemClaims, 1)
	assert.Equal(t, 2, migrated.ItemClaims[0].RequestedQty)
}
