// Package orders holds the order aggregate and its durable store.
package orders

import (
	"time"

	"github.com/matheusmosca/blueprint-storefront/internal/resolver"
)

// SchemaVersion is the version written by this build.
const SchemaVersion = 2

// Status is the global lifecycle state of an order.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusClosed     Status = "closed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no claim operation may run anymore.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

// ClaimStatus is the state of one requested item.
type ClaimStatus string

const (
	ClaimUnclaimed ClaimStatus = "unclaimed"
	ClaimClaimed   ClaimStatus = "claimed"
	ClaimFulfilled ClaimStatus = "fulfilled"
)

// ItemClaim tracks who holds one distinct requested item.
type ItemClaim struct {
	ItemID            string      `json:"itemId"`
	ItemName          string      `json:"itemName"`
	RequestedQty      int         `json:"requestedQty"`
	ClaimStatus       ClaimStatus `json:"claimStatus"`
	ClaimedBySellerID string      `json:"claimedBySellerId,omitempty"`
	ClaimedQuantity   int         `json:"claimedQuantity,omitempty"`
	ClaimedAt         *time.Time  `json:"claimedAt,omitempty"`
	FulfilledAt       *time.Time  `json:"fulfilledAt,omitempty"`
}

// HeldBy reports whether sellerID holds the item, claimed or fulfilled.
func (c ItemClaim) HeldBy(sellerID string) bool {
	return c.ClaimStatus != ClaimUnclaimed && c.ClaimedBySellerID == sellerID
}

// Claim hands the item to sellerID for the full requested quantity.
func (c *ItemClaim) Claim(sellerID string, at time.Time) {
	c.ClaimStatus = ClaimClaimed
	c.ClaimedBySellerID = sellerID
	c.ClaimedQuantity = c.RequestedQty
	c.ClaimedAt = &at
	c.FulfilledAt = nil
}

// Fulfill marks the item delivered.
func (c *ItemClaim) Fulfill(at time.Time) {
	c.ClaimStatus = ClaimFulfilled
	c.FulfilledAt = &at
}

// Reset returns the item to unclaimed and clears every claim field.
func (c *ItemClaim) Reset() {
	c.ClaimStatus = ClaimUnclaimed
	c.ClaimedBySellerID = ""
	c.ClaimedQuantity = 0
	c.ClaimedAt = nil
	c.FulfilledAt = nil
}

// SellerStateStatus is one seller's own view of an order.
type SellerStateStatus string

const (
	SellerActive SellerStateStatus = "active"
	SellerClosed SellerStateStatus = "closed"
)

// SellerState records whether a seller is done with an order.
type SellerState struct {
	SellerID string            `json:"sellerId"`
	Status   SellerStateStatus `json:"status"`
	ClosedAt *time.Time        `json:"closedAt,omitempty"`
}

// Order is the aggregate root: the buyer's request plus its claim state.
type Order struct {
	ID               string                   `json:"orderId"`
	BuyerDiscordNick string                   `json:"buyerDiscordNick"`
	Offer            string                   `json:"offer"`
	OriginalOffer    string                   `json:"originalOffer"`
	Notes            string                   `json:"notes,omitempty"`
	Items            []resolver.RequestedItem `json:"items"`
	SellerGroups     []resolver.SellerGroup   `json:"sellerGroups"`
	IsMultiSeller    bool                     `json:"isMultiSeller"`
	SellerCount      int                      `json:"sellerCount"`
	Status           Status                   `json:"status"`
	ClosedAt         *time.Time               `json:"closedAt,omitempty"`
	CancelledAt      *time.Time               `json:"cancelledAt,omitempty"`
	ItemClaims       []ItemClaim              `json:"itemClaims"`
	AssignedSellerID string                   `json:"assignedSellerId,omitempty"`
	AssignedAt       *time.Time               `json:"assignedAt,omitempty"`
	SellerStates     []SellerState            `json:"sellerStates"`
	SchemaVersion    int                      `json:"schemaVersion"`
	CreatedAt        time.Time                `json:"createdAt"`
	UpdatedAt        time.Time                `json:"updatedAt"`
}

// NewOrder is a resolved submission ready to be stored.
type NewOrder struct {
	BuyerDiscordNick string
	Offer            string
	OriginalOffer    string
	Notes            string
	Items            []resolver.RequestedItem
	SellerGroups     []resolver.SellerGroup
	IsMultiSeller    bool
	SellerCount      int
}

// Claim returns the claim line for itemID, or nil.
func (o *Order) Claim(itemID string) *ItemClaim {
	for i := range o.ItemClaims {
		if o.ItemClaims[i].ItemID == itemID {
			return &o.ItemClaims[i]
		}
	}
	return nil
}

// AllFulfilled reports whether every item has been delivered.
func (o Order) AllFulfilled() bool {
	if len(o.ItemClaims) == 0 {
		return false
	}
	for _, c := range o.ItemClaims {
		if c.ClaimStatus != ClaimFulfilled {
			return false
		}
	}
	return true
}

// AnyHeld reports whether at least one item is claimed or fulfilled.
func (o Order) AnyHeld() bool {
	for _, c := range o.ItemClaims {
		if c.ClaimStatus != ClaimUnclaimed {
			return true
		}
	}
	return false
}

// HasOpenClaims reports whether sellerID holds an item not yet fulfilled.
func (o Order) HasOpenClaims(sellerID string) bool {
	for _, c := range o.ItemClaims {
		if c.ClaimStatus == ClaimClaimed && c.ClaimedBySellerID == sellerID {
			return true
		}
	}
	return false
}

// Involves reports whether sellerID is the assignee or holds any item.
func (o Order) Involves(sellerID string) bool {
	if o.AssignedSellerID != "" && o.AssignedSellerID == sellerID {
		return true
	}
	for _, c := range o.ItemClaims {
		if c.HeldBy(sellerID) {
			return true
		}
	}
	return false
}

// SelfClosed reports whether sellerID archived the order for themselves.
func (o Order) SelfClosed(sellerID string) bool {
	for _, s := range o.SellerStates {
		if s.SellerID == sellerID {
			return s.Status == SellerClosed
		}
	}
	return false
}

// CloseForSeller records sellerID as done with the order.
func (o *Order) CloseForSeller(sellerID string, at time.Time) {
	for i := range o.SellerStates {
		if o.SellerStates[i].SellerID == sellerID {
			o.SellerStates[i].Status = SellerClosed
			o.SellerStates[i].ClosedAt = &at
			return
		}
	}
	o.SellerStates = append(o.SellerStates, SellerState{SellerID: sellerID, Status: SellerClosed, ClosedAt: &at})
}

// ItemIDs lists every claim line's item id in request order.
func (o Order) ItemIDs() []string {
	ids := make([]string, 0, len(o.ItemClaims))
	for _, c := range o.ItemClaims {
		ids = append(ids, c.ItemID)
	}
	return ids
}

// Clone returns a deep copy.
func (o Order) Clone() Order {
	out := o
	out.Items = append([]resolver.RequestedItem(nil), o.Items...)
	out.SellerGroups = make([]resolver.SellerGroup, len(o.SellerGroups))
	for i, g := range o.SellerGroups {
		g.Items = append([]resolver.GroupItem(nil), g.Items...)
		out.SellerGroups[i] = g
	}
	out.ItemClaims = append([]ItemClaim(nil), o.ItemClaims...)
	out.SellerStates = append([]SellerState(nil), o.SellerStates...)
	return out
}

// claimsFor builds one unclaimed line per distinct item, first occurrence wins.
func claimsFor(items []resolver.RequestedItem) []ItemClaim {
	seen := make(map[string]bool, len(items))
	claims := make([]ItemClaim, 0, len(items))
	for _, item := range items {
		if seen[item.ItemID] {
			continue
		}
		seen[item.ItemID] = true
		claims = append(claims, ItemClaim{
			ItemID:       item.ItemID,
			ItemName:     item.ItemName,
			RequestedQty: item.Quantity,
			ClaimStatus:  ClaimUnclaimed,
		})
	}
	return claims
}
