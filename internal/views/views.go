// Package views projects orders for sellers and admins.
//
// Projections are pure functions of an order and the viewer; they take no
// locks and may be slightly stale.
package views

import (
	"time"

	"github.com/matheusmosca/blueprint-storefront/internal/orders"
	"github.com/matheusmosca/blueprint-storefront/internal/sellers"
)

// ItemView is one item as a seller sees it.
type ItemView struct {
	ItemID          string             `json:"itemId"`
	ItemName        string             `json:"itemName"`
	RequestedQty    int                `json:"requestedQty"`
	ClaimStatus     orders.ClaimStatus `json:"claimStatus"`
	ClaimedByMe     bool               `json:"claimedByMe"`
	ClaimedQuantity int                `json:"claimedQuantity,omitempty"`
	ClaimedAt       *time.Time         `json:"claimedAt,omitempty"`
	FulfilledAt     *time.Time         `json:"fulfilledAt,omitempty"`
	MyStock         int                `json:"myStock"`
	Claimable       bool               `json:"claimable"`
}

// Summary holds the per-seller counters shown next to an order.
type Summary struct {
	CanAcceptFull        bool `json:"canAcceptFull"`
	ClaimableItemCount   int  `json:"claimableItemCount"`
	MyClaimedItemCount   int  `json:"myClaimedItemCount"`
	MyFulfilledItemCount int  `json:"myFulfilledItemCount"`
	SelfClosed           bool `json:"selfClosed"`
}

// SellerOrderView is an order filtered to what one seller can act on.
type SellerOrderView struct {
	OrderID           string        `json:"orderId"`
	BuyerDiscordNick  string        `json:"buyerDiscordNick"`
	Offer             string        `json:"offer"`
	Notes             string        `json:"notes,omitempty"`
	Status            orders.Status `json:"status"`
	IsMultiSeller     bool          `json:"isMultiSeller"`
	SellerCount       int           `json:"sellerCount"`
	AssignedToMe      bool          `json:"assignedToMe"`
	AssignedElsewhere bool          `json:"assignedElsewhere"`
	Items             []ItemView    `json:"items"`
	Summary           Summary       `json:"summary"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// ForSeller projects order for seller. It returns false when no item is
// visible, in which case the order must not be listed for that seller. A
// seller that is not active only sees orders it already takes part in and
// can act on none of them.
func ForSeller(order orders.Order, seller sellers.Seller) (SellerOrderView, bool) {
	assignedToMe := order.AssignedSellerID != "" && order.AssignedSellerID == seller.ID
	assignedElsewhere := order.AssignedSellerID != "" && !assignedToMe
	active := seller.IsActive()
	actionable := active && !order.Status.Terminal() && !assignedElsewhere

	view := SellerOrderView{
		OrderID:           order.ID,
		BuyerDiscordNick:  order.BuyerDiscordNick,
		Offer:             order.Offer,
		Notes:             order.Notes,
		Status:            order.Status,
		IsMultiSeller:     order.IsMultiSeller,
		SellerCount:       order.SellerCount,
		AssignedToMe:      assignedToMe,
		AssignedElsewhere: assignedElsewhere,
		Items:             []ItemView{},
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}

	allVisibleUnclaimedCovered := len(order.ItemClaims) > 0
	for _, c := range order.ItemClaims {
		stock := seller.Quantity(c.ItemID)
		mine := c.HeldBy(seller.ID)
		visible := mine || assignedToMe || (active && c.ClaimStatus == orders.ClaimUnclaimed && stock > 0)
		if !visible || c.ClaimStatus != orders.ClaimUnclaimed || stock < c.RequestedQty {
			allVisibleUnclaimedCovered = false
		}
		if !visible {
			continue
		}

		item := ItemView{
			ItemID:       c.ItemID,
			ItemName:     c.ItemName,
			RequestedQty: c.RequestedQty,
			ClaimStatus:  c.ClaimStatus,
			ClaimedByMe:  mine,
			MyStock:      stock,
			Claimable:    actionable && c.ClaimStatus == orders.ClaimUnclaimed && stock >= c.RequestedQty,
		}
		if c.ClaimStatus != orders.ClaimUnclaimed {
			item.ClaimedQuantity = c.ClaimedQuantity
			item.ClaimedAt = c.ClaimedAt
			item.FulfilledAt = c.FulfilledAt
		}
		view.Items = append(view.Items, item)

		switch {
		case item.Claimable:
			view.Summary.ClaimableItemCount++
		case mine && c.ClaimStatus == orders.ClaimClaimed:
			view.Summary.MyClaimedItemCount++
		case mine && c.ClaimStatus == orders.ClaimFulfilled:
			view.Summary.MyFulfilledItemCount++
		}
	}
	if len(view.Items) == 0 {
		return SellerOrderView{}, false
	}

	view.Summary.CanAcceptFull = allVisibleUnclaimedCovered && actionable &&
		(order.Status == orders.StatusOpen || order.Status == orders.StatusInProgress)
	view.Summary.SelfClosed = order.SelfClosed(seller.ID)
	return view, true
}

// ActiveFor reports whether order belongs in seller's active list.
func ActiveFor(order orders.Order, sellerID string) bool {
	return !order.Status.Terminal() && !order.SelfClosed(sellerID)
}

// ArchivedFor reports whether order belongs in seller's archive: closed or
// cancelled orders the seller took part in, and any order they closed
// themselves.
func ArchivedFor(order orders.Order, sellerID string) bool {
	if order.SelfClosed(sellerID) {
		return true
	}
	return order.Status.Terminal() && order.Involves(sellerID)
}

// ActiveForSeller projects the orders in seller's active list.
func ActiveForSeller(all []orders.Order, seller sellers.Seller) []SellerOrderView {
	return project(all, seller, ActiveFor)
}

// ArchivedForSeller projects the orders in seller's archive.
func ArchivedForSeller(all []orders.Order, seller sellers.Seller) []SellerOrderView {
	return project(all, seller, ArchivedFor)
}

func project(all []orders.Order, seller sellers.Seller, keep func(orders.Order, string) bool) []SellerOrderView {
	out := []SellerOrderView{}
	for _, o := range all {
		if !keep(o, seller.ID) {
			continue
		}
		if view, ok := ForSeller(o, seller); ok {
			out = append(out, view)
		}
	}
	return out
}
