// Package resolver decides which sellers could supply a requested item list
// and whether one seller alone can cover it.
//
// Resolution answers "who might fulfill" and never allocates: the same item
// appears in the group of every active seller that stocks it.
package resolver

import (
	"sort"
	"strings"

	"github.com/matheusmosca/blueprint-storefront/internal/sellers"
)

// MultiSellerOfferNotice replaces the displayed offer of orders no single
// seller can cover.
const MultiSellerOfferNotice = "Multi-seller order: several sellers are needed to fill this request, " +
	"so each seller will contact you on Discord to agree a price for their part."

// MaxQuantityPerLine caps the requested quantity of one item.
const MaxQuantityPerLine = 999

// RequestedItem is one line of a buyer's request.
type RequestedItem struct {
	ItemID   string `json:"itemId" validate:"required,max=100"`
	ItemName string `json:"itemName" validate:"max=200"`
	Quantity int    `json:"quantity" validate:"min=1,max=999"`
}

// GroupItem is a requested item as seen from one seller's stock.
type GroupItem struct {
	ItemID       string `json:"itemId"`
	ItemName     string `json:"itemName"`
	RequestedQty int    `json:"requestedQty"`
	Available    bool   `json:"available"`
	AvailableQty int    `json:"availableQty"`
}

// SellerGroup lists the requested items one seller could supply.
type SellerGroup struct {
	SellerID      string      `json:"sellerId"`
	DiscordHandle string      `json:"discordHandle"`
	Items         []GroupItem `json:"items"`
}

// Resolution is everything derived from a request at submission time.
type Resolution struct {
	Groups        []SellerGroup
	IsMultiSeller bool
	SellerCount   int
	Offer         string
	OriginalOffer string
}

// MergeItems folds repeated item ids into one line whose quantity is the sum,
// capped at MaxQuantityPerLine. The first non-empty name wins and the order of
// first appearance is kept.
func MergeItems(items []RequestedItem) []RequestedItem {
	index := make(map[string]int, len(items))
	out := make([]RequestedItem, 0, len(items))
	for _, item := range items {
		i, seen := index[item.ItemID]
		if !seen {
			index[item.ItemID] = len(out)
			out = append(out, item)
			continue
		}
		merged := &out[i]
		merged.Quantity += item.Quantity
		if merged.Quantity > MaxQuantityPerLine {
			merged.Quantity = MaxQuantityPerLine
		}
		if merged.ItemName == "" {
			merged.ItemName = item.ItemName
		}
	}
	return out
}

// ResolveToSellerGroups builds one group per active seller holding at least
// one requested item. Groups are ordered by discord handle.
func ResolveToSellerGroups(items []RequestedItem, candidates []sellers.Seller) []SellerGroup {
	var groups []SellerGroup
	for _, seller := range candidates {
		if !seller.IsActive() {
			continue
		}
		var groupItems []GroupItem
		for _, item := range items {
			qty := seller.Quantity(item.ItemID)
			if qty <= 0 {
				continue
			}
			groupItems = append(groupItems, GroupItem{
				ItemID:       item.ItemID,
				ItemName:     item.ItemName,
				RequestedQty: item.Quantity,
				Available:    qty >= item.Quantity,
				AvailableQty: qty,
			})
		}
		if len(groupItems) == 0 {
			continue
		}
		groups = append(groups, SellerGroup{
			SellerID:      seller.ID,
			DiscordHandle: seller.DiscordHandle,
			Items:         groupItems,
		})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return strings.ToLower(groups[i].DiscordHandle) < strings.ToLower(groups[j].DiscordHandle)
	})
	return groups
}

// RequiresMultipleSellers reports whether no single active seller covers every
// item at its full requested quantity.
func RequiresMultipleSellers(items []RequestedItem, candidates []sellers.Seller) bool {
	if len(items) == 0 {
		return false
	}
	for _, seller := range candidates {
		if seller.IsActive() && covers(seller, items) {
			return false
		}
	}
	return true
}

// Resolve runs the full resolution for a submission.
func Resolve(items []RequestedItem, offer string, candidates []sellers.Seller) Resolution {
	groups := ResolveToSellerGroups(items, candidates)
	multi := RequiresMultipleSellers(items, candidates)

	displayed := offer
	if multi {
		displayed = MultiSellerOfferNotice
	}
	return Resolution{
		Groups:        groups,
		IsMultiSeller: multi,
		SellerCount:   len(groups),
		Offer:         displayed,
		OriginalOffer: offer,
	}
}

func covers(seller sellers.Seller, items []RequestedItem) bool {
	for _, item := range items {
		if seller.Quantity(item.ItemID) < item.Quantity {
			return false
		}
	}
	return true
}
