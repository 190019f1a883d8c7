package sellers

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matheusmosca/blueprint-storefront/internal/apperrors"
	"github.com/matheusmosca/blueprint-storefront/internal/platform/lock"
)

const (
	maxHandleLength = 64
	maxItemIDLength = 100
	registryLockKey = "sellers:registry"
)

// LockKey is the lock table key guarding one seller's record.
func LockKey(sellerID string) string {
	return "seller:" + sellerID
}

// Directory is the seller directory and inventory store. Every write to a
// seller record happens under that seller's key in the shared lock table.
type Directory struct {
	repository Repository
	locks      *lock.KeyedMutex
	logger     *zap.Logger
	now        func() time.Time
}

// NewDirectory creates a new Directory.
func NewDirectory(repository Repository, locks *lock.KeyedMutex, logger *zap.Logger) *Directory {
	return &Directory{
		repository: repository,
		locks:      locks,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates a seller awaiting verification.
func (d *Directory) Register(ctx context.Context, discordHandle string) (Seller, error) {
	return d.Create(ctx, discordHandle, StatusPendingVerification)
}

// Create creates a seller with the given status. Discord handles are unique
// regardless of case.
func (d *Directory) Create(ctx context.Context, discordHandle string, status Status) (Seller, error) {
	handle := strings.TrimSpace(discordHandle)
	if handle == "" {
		return Seller{}, apperrors.Validation("discord handle is required")
	}
	if len(handle) > maxHandleLength {
		return Seller{}, apperrors.Validation("discord handle must be at most %d characters", maxHandleLength)
	}
	if !status.Valid() {
		return Seller{}, apperrors.Validation("unknown seller status %q", status)
	}

	unlock, err := d.locks.Lock(ctx, registryLockKey)
	if err != nil {
		return Seller{}, lockError(err)
	}
	defer unlock()

	all, err := d.repository.ListSellers(ctx)
	if err != nil {
		return Seller{}, apperrors.Infrastructure("failed to list sellers", err)
	}
	for _, s := range all {
		if strings.EqualFold(s.DiscordHandle, handle) {
			return Seller{}, apperrors.Conflict(apperrors.CodeHandleTaken, "discord handle %s is already registered", handle)
		}
	}

	now := d.now().UTC()
	seller := &Seller{
		ID:            uuid.New().String(),
		DiscordHandle: handle,
		Status:        status,
		Inventory:     []InventoryEntry{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := d.repository.SaveSeller(ctx, seller); err != nil {
		return Seller{}, apperrors.Infrastructure("failed to save seller", err)
	}

	d.logger.Info("✅ Seller registered", zap.String("seller_id", seller.ID), zap.String("discord_handle", handle), zap.String("status", string(status)))
	return seller.clone(), nil
}

// Get returns one seller.
func (d *Directory) Get(ctx context.Context, sellerID string) (Seller, error) {
	seller, err := d.load(ctx, sellerID)
	if err != nil {
		return Seller{}, err
	}
	return seller.clone(), nil
}

// List returns every seller ordered by discord handle.
func (d *Directory) List(ctx context.Context) ([]Seller, error) {
	all, err := d.repository.ListSellers(ctx)
	if err != nil {
		return nil, apperrors.Infrastructure("failed to list sellers", err)
	}
	out := make([]Seller, 0, len(all))
	for _, s := range all {
		out = append(out, s.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].DiscordHandle) < strings.ToLower(out[j].DiscordHandle)
	})
	return out, nil
}

// EligibleSellers returns the sellers allowed to receive orders.
func (d *Directory) EligibleSellers(ctx context.Context) ([]Seller, error) {
	all, err := d.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, s := range all {
		if s.IsActive() {
			out = append(out, s)
		}
	}
	return out, nil
}

// SetStatus changes a seller's status.
func (d *Directory) SetStatus(ctx context.Context, sellerID string, status Status) (Seller, error) {
	if !status.Valid() {
		return Seller{}, apperrors.Validation("unknown seller status %q", status)
	}
	var out Seller
	err := d.mutate(ctx, sellerID, false, func(s *Seller) error {
		s.Status = status
		out = s.clone()
		return nil
	})
	if err != nil {
		return Seller{}, err
	}
	d.logger.Info("✅ Seller status changed", zap.String("seller_id", sellerID), zap.String("status", string(status)))
	return out, nil
}

// Delete removes a seller permanently.
func (d *Directory) Delete(ctx context.Context, sellerID string) error {
	unlock, err := d.locks.Lock(ctx, LockKey(sellerID))
	if err != nil {
		return lockError(err)
	}
	defer unlock()

	if err := d.repository.DeleteSeller(ctx, sellerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperrors.NotFound(apperrors.CodeSellerNotFound, "seller %s not found", sellerID)
		}
		return apperrors.Infrastructure("failed to delete seller", err)
	}
	d.logger.Info("🗑️ Seller deleted", zap.String("seller_id", sellerID))
	return nil
}

// GetQuantity returns the seller's stock of itemID, 0 if absent.
func (d *Directory) GetQuantity(ctx context.Context, sellerID, itemID string) (int, error) {
	seller, err := d.load(ctx, sellerID)
	if err != nil {
		return 0, err
	}
	return seller.Quantity(itemID), nil
}

// HasQuantity reports whether the seller holds at least n of itemID.
func (d *Directory) HasQuantity(ctx context.Context, sellerID, itemID string, n int) (bool, error) {
	qty, err := d.GetQuantity(ctx, sellerID, itemID)
	if err != nil {
		return false, err
	}
	return qty >= n, nil
}

// SetQuantity upserts one item; qty <= 0 removes it.
func (d *Directory) SetQuantity(ctx context.Context, sellerID, itemID string, qty int) error {
	_, err := d.BulkSet(ctx, sellerID, []InventoryUpdate{{ItemID: itemID, Quantity: qty}})
	return err
}

// BulkSet applies every update in a single persisted write.
func (d *Directory) BulkSet(ctx context.Context, sellerID string, updates []InventoryUpdate) (Seller, error) {
	for _, u := range updates {
		id := strings.TrimSpace(u.ItemID)
		if id == "" {
			return Seller{}, apperrors.Validation("item id is required")
		}
		if len(id) > maxItemIDLength {
			return Seller{}, apperrors.Validation("item id must be at most %d characters", maxItemIDLength)
		}
	}

	var out Seller
	err := d.mutate(ctx, sellerID, true, func(s *Seller) error {
		for _, u := range updates {
			s.setQuantity(strings.TrimSpace(u.ItemID), u.Quantity)
		}
		out = s.clone()
		return nil
	})
	if err != nil {
		return Seller{}, err
	}
	d.logger.Info("📦 Inventory updated", zap.String("seller_id", sellerID), zap.Int("updates", len(updates)))
	return out, nil
}

// Adjust changes the stock of itemID by delta and returns the new quantity.
// A result below zero is refused without touching the record.
func (d *Directory) Adjust(ctx context.Context, sellerID, itemID string, delta int) (int, error) {
	var remaining int
	err := d.mutate(ctx, sellerID, true, func(s *Seller) error {
		current := s.Quantity(itemID)
		if current+delta < 0 {
			return apperrors.Conflict(apperrors.CodeInsufficientStock,
				"insufficient stock for item %s: have %d, need %d", itemID, current, -delta).
				WithMetadata(map[string]string{"item_id": itemID})
		}
		remaining = current + delta
		s.setQuantity(itemID, remaining)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// AggregateActiveSupply sums stock per item over active sellers.
func (d *Directory) AggregateActiveSupply(ctx context.Context) (map[string]Supply, error) {
	active, err := d.EligibleSellers(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Supply)
	for _, s := range active {
		for _, e := range s.Inventory {
			if e.Quantity <= 0 {
				continue
			}
			supply := out[e.ItemID]
			supply.TotalQty += e.Quantity
			supply.SellerIDs = append(supply.SellerIDs, s.ID)
			out[e.ItemID] = supply
		}
	}
	return out, nil
}

func (d *Directory) load(ctx context.Context, sellerID string) (*Seller, error) {
	seller, err := d.repository.GetSeller(ctx, sellerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeSellerNotFound, "seller %s not found", sellerID)
		}
		return nil, apperrors.Infrastructure("failed to load seller", err)
	}
	return seller, nil
}

// mutate runs fn on a fresh copy of the seller under its lock and persists the
// result only if fn succeeds.
func (d *Directory) mutate(ctx context.Context, sellerID string, requireActive bool, fn func(*Seller) error) error {
	unlock, err := d.locks.Lock(ctx, LockKey(sellerID))
	if err != nil {
		return lockError(err)
	}
	defer unlock()

	seller, err := d.load(ctx, sellerID)
	if err != nil {
		return err
	}
	if requireActive && !seller.IsActive() {
		return apperrors.Conflict(apperrors.CodeSellerInactive, "seller %s is not active", sellerID)
	}
	if err := fn(seller); err != nil {
		return err
	}
	seller.UpdatedAt = d.now().UTC()
	if err := d.repository.SaveSeller(ctx, seller); err != nil {
		return apperrors.Infrastructure("failed to save seller", err)
	}
	return nil
}

func lockError(err error) error {
	return apperrors.LockAbandoned(err)
}
