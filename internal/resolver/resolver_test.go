package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/blueprint-storefront/internal/sellers"
)

func seller(id, handle string, stock map[string]int) sellers.Seller {
	s := sellers.Seller{ID: id, DiscordHandle: handle, Status: sellers.StatusActive}
	for item, qty := range stock {
		s.Inventory = append(s.Inventory, sellers.InventoryEntry{ItemID: item, Quantity: qty})
	}
	return s
}

var twoItems = []RequestedItem{
	{ItemID: "A", ItemName: "Alpha", Quantity: 2},
	{ItemID: "B", ItemName: "Beta", Quantity: 2},
}

func TestResolve_MultiSellerRequired(t *testing.T) {
	// Arrange
	candidates := []sellers.Seller{
		seller("s1", "one", map[string]int{"A": 2}),
		seller("s2", "two", map[string]int{"B": 2}),
	}

	// Act
	res := Resolve(twoItems, "10k credits", candidates)

	// Assert
	assert.True(t, res.IsMultiSeller)
	assert.Equal(t, 2, res.SellerCount)
	assert.Equal(t, MultiSellerOfferNotice, res.Offer)
	assert.Equal(t, "10k credits", res.OriginalOffer)
}

func TestResolve_SingleSellerSuffices(t *testing.T) {
	candidates := []sellers.Seller{
		seller("s1", "one", map[string]int{"A": 5, "B": 5}),
		seller("s2", "two", map[string]int{"A": 1}),
	}

	res := Resolve(twoItems, "10k credits", candidates)

	assert.False(t, res.IsMultiSeller)
	assert.Equal(t, "10k credits", res.Offer)
	assert.Equal(t, res.OriginalOffer, res.Offer)
	assert.Equal(t, 2, res.SellerCount)

	require.Len(t, res.Groups, 2)
	assert.Equal(t, "s2", res.Groups[1].SellerID)
	assert.Equal(t, []GroupItem{{ItemID: "A", ItemName: "Alpha", RequestedQty: 2, Available: false, AvailableQty: 1}}, res.Groups[1].Items)
}

func TestRequiresMultipleSellers_OneItemManySellers(t *testing.T) {
	items := []RequestedItem{{ItemID: "A", Quantity: 1}}
	candidates := []sellers.Seller{
		seller("s1", "one", map[string]int{"A": 1}),
		seller("s2", "two", map[string]int{"A": 4}),
	}

	assert.False(t, RequiresMultipleSellers(items, candidates))
}

func TestRequiresMultipleSellers_IgnoresInactive(t *testing.T) {
	banned := seller("s1", "one", map[string]int{"A": 5, "B": 5})
	banned.Status = sellers.StatusBanned

	assert.True(t, RequiresMultipleSellers(twoItems, []sellers.Seller{banned}))
	assert.Empty(t, ResolveToSellerGroups(twoItems, []sellers.Seller{banned}))
}

func TestResolveToSellerGroups_OrderedByHandleAndSkipsEmpty(t *testing.T) {
	candidates := []sellers.Seller{
		seller("s3", "Zed", map[string]int{"B": 1}),
		seller("s1", "amy", map[string]int{"A": 3}),
		seller("s2", "Bob", map[string]int{"C": 9}),
	}

	groups := ResolveToSellerGroups(twoItems, candidates)

	require.Len(t, groups, 2)
	assert.Equal(t, "amy", groups[0].DiscordHandle)
	assert.True(t, groups[0].Items[0].Available)
	assert.Equal(t, "Zed", groups[1].DiscordHandle)
	assert.False(t, groups[1].Items[0].Available)
}

func TestMergeItems(t *testing.T) {
	merged := MergeItems([]RequestedItem{
		{ItemID: "A", Quantity: 600},
		{ItemID: "B", ItemName: "Beta", Quantity: 1},
		{ItemID: "A", ItemName: "Alpha", Quantity: 600},
	})

	assert.Equal(t, []RequestedItem{
		{ItemID: "A", ItemName: "Alpha", Quantity: MaxQuantityPerLine},
		{ItemID: "B", ItemName: "Beta", Quantity: 1},
	}, merged)
}
