package views

import (
	"fmt"
	"time"

	"github.com/matheusmosca/blueprint-storefront/internal/orders"
	"github.com/matheusmosca/blueprint-storefront/internal/resolver"
)

// AdminFilter selects which orders an admin listing shows.
type AdminFilter string

const (
	FilterAll      AdminFilter = "all"
	FilterActive   AdminFilter = "active"
	FilterArchived AdminFilter = "archived"
)

// ParseAdminFilter accepts an empty string as FilterAll.
func ParseAdminFilter(raw string) (AdminFilter, error) {
	switch f := AdminFilter(raw); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterActive, FilterArchived:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q", raw)
	}
}

// AdminOrderView is the unfiltered projection of an order.
type AdminOrderView struct {
	OrderID          string                 `json:"orderId"`
	BuyerDiscordNick string                 `json:"buyerDiscordNick"`
	Offer            string                 `json:"offer"`
	OriginalOffer    string                 `json:"originalOffer"`
	Notes            string                 `json:"notes,omitempty"`
	Status           orders.Status          `json:"status"`
	IsMultiSeller    bool                   `json:"isMultiSeller"`
	SellerCount      int                    `json:"sellerCount"`
	SellerGroups     []resolver.SellerGroup `json:"sellerGroups"`
	ItemClaims       []orders.ItemClaim     `json:"itemClaims"`
	AssignedSellerID string                 `json:"assignedSellerId,omitempty"`
	AssignedAt       *time.Time             `json:"assignedAt,omitempty"`
	SellerStates     []orders.SellerState   `json:"sellerStates"`
	UnclaimedCount   int                    `json:"unclaimedCount"`
	ClaimedCount     int                    `json:"claimedCount"`
	FulfilledCount   int                    `json:"fulfilledCount"`
	ClosedAt         *time.Time             `json:"closedAt,omitempty"`
	CancelledAt      *time.Time             `json:"cancelledAt,omitempty"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
}

// ForAdmin projects every detail of order.
func ForAdmin(order orders.Order) AdminOrderView {
	o := order.Clone()
	view := AdminOrderView{
		OrderID:          o.ID,
		BuyerDiscordNick: o.BuyerDiscordNick,
		Offer:            o.Offer,
		OriginalOffer:    o.OriginalOffer,
		Notes:            o.Notes,
		Status:           o.Status,
		IsMultiSeller:    o.IsMultiSeller,
		SellerCount:      o.SellerCount,
		SellerGroups:     o.SellerGroups,
		ItemClaims:       o.ItemClaims,
		AssignedSellerID: o.AssignedSellerID,
		AssignedAt:       o.AssignedAt,
		SellerStates:     o.SellerStates,
		ClosedAt:         o.ClosedAt,
		CancelledAt:      o.CancelledAt,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	for _, c := range o.ItemClaims {
		switch c.ClaimStatus {
		case orders.ClaimUnclaimed:
			view.UnclaimedCount++
		case orders.ClaimClaimed:
			view.ClaimedCount++
		case orders.ClaimFulfilled:
			view.FulfilledCount++
		}
	}
	return view
}

// ForAdminList projects the orders matching filter.
func ForAdminList(all []orders.Order, filter AdminFilter) []AdminOrderView {
	out := []AdminOrderView{}
	for _, o := range all {
		switch {
		case filter == FilterActive && o.Status.Terminal():
			continue
		case filter == FilterArchived && !o.Status.Terminal():
			continue
		}
		out = append(out, ForAdmin(o))
	}
	return out
}
