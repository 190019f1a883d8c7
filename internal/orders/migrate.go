package orders

import "github.com/matheusmosca/blueprint-storefront/internal/resolver"

// Migrate upgrades a record written by an older schema to the current shape.
// It reports whether anything changed. Current records are returned as is.
//
// Version 1 records carry no claim lines and may lack a status. Their claim
// lines are rebuilt from the seller groups, or from the requested items when
// no group was recorded.
func Migrate(o Order) (Order, bool) {
	changed := false

	if o.Status == "" {
		o.Status = StatusOpen
		changed = true
	}
	if o.OriginalOffer == "" && o.Offer != "" {
		o.OriginalOffer = o.Offer
		changed = true
	}
	if len(o.ItemClaims) == 0 {
		rebuilt := claimsFromGroups(o.SellerGroups)
		if len(rebuilt) == 0 {
			rebuilt = claimsFor(o.Items)
		}
		o.ItemClaims = rebuilt
		changed = true
	}
	for i := range o.ItemClaims {
		if o.ItemClaims[i].ClaimStatus == "" {
			o.ItemClaims[i].ClaimStatus = ClaimUnclaimed
			changed = true
		}
	}
	if o.SellerStates == nil {
		o.SellerStates = []SellerState{}
		changed = true
	}
	if o.SchemaVersion < SchemaVersion {
		o.SchemaVersion = SchemaVersion
		changed = true
	}
	return o, changed
}

func claimsFromGroups(groups []resolver.SellerGroup) []ItemClaim {
	var items []resolver.RequestedItem
	for _, g := range groups {
		for _, gi := range g.Items {
			items = append(items, resolver.RequestedItem{
				ItemID:   gi.ItemID,
				ItemName: gi.ItemName,
				Quantity: gi.RequestedQty,
			})
		}
	}
	return claimsFor(items)
}
