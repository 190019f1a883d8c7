// Package sellers holds the seller directory and each seller's inventory.
package sellers

import (
	"sort"
	"time"
)

// Status is the lifecycle state of a seller account.
type Status string

const (
	StatusPendingVerification Status = "pending_verification"
	StatusActive              Status = "active"
	StatusBanned              Status = "banned"
	StatusDisabled            Status = "disabled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingVerification, StatusActive, StatusBanned, StatusDisabled:
		return true
	}
	return false
}

// InventoryEntry is a seller's stock of one item. Entries with zero quantity
// are never stored.
type InventoryEntry struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// InventoryUpdate sets one item's quantity; zero or less removes the item.
type InventoryUpdate struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// Seller is a seller account with its inventory stored inline.
type Seller struct {
	ID            string           `json:"id"`
	DiscordHandle string           `json:"discordHandle"`
	Status        Status           `json:"status"`
	Inventory     []InventoryEntry `json:"inventory"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// IsActive reports whether the seller may receive orders and move stock.
func (s Seller) IsActive() bool {
	return s.Status == StatusActive
}

// Quantity returns the stock held for itemID, 0 if absent.
func (s Seller) Quantity(itemID string) int {
	for _, e := range s.Inventory {
		if e.ItemID == itemID {
			return e.Quantity
		}
	}
	return 0
}

// setQuantity upserts or prunes one entry, keeping entries sorted by item id.
func (s *Seller) setQuantity(itemID string, qty int) {
	for i, e := range s.Inventory {
		if e.ItemID != itemID {
			continue
		}
		if qty <= 0 {
			s.Inventory = append(s.Inventory[:i], s.Inventory[i+1:]...)
		} else {
			s.Inventory[i].Quantity = qty
		}
		return
	}
	if qty <= 0 {
		return
	}
	s.Inventory = append(s.Inventory, InventoryEntry{ItemID: itemID, Quantity: qty})
	sort.Slice(s.Inventory, func(i, j int) bool {
		return s.Inventory[i].ItemID < s.Inventory[j].ItemID
	})
}

// clone returns a deep copy so callers never share the inventory slice.
func (s Seller) clone() Seller {
	out := s
	out.Inventory = append([]InventoryEntry(nil), s.Inventory...)
	return out
}

// Supply is the aggregated active stock of one item.
type Supply struct {
	TotalQty  int      `json:"totalQty"`
	SellerIDs []string `json:"sellerIds"`
}
