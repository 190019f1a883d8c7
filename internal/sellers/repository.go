package sellers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matheusmosca/blueprint-storefront/internal/platform/kv"
)

const collection = "sellers"

// ErrNotFound indicates the seller record is missing.
var ErrNotFound = errors.New("seller not found")

// Repository defines persistence for seller records.
type Repository interface {
	// GetSeller loads a seller by id.
	GetSeller(ctx context.Context, id string) (*Seller, error)

	// SaveSeller inserts or replaces a seller record.
	SaveSeller(ctx context.Context, seller *Seller) error

	// ListSellers returns every seller record.
	ListSellers(ctx context.Context) ([]*Seller, error)

	// DeleteSeller removes a seller record.
	DeleteSeller(ctx context.Context, id string) error
}

// KVRepository implements Repository on a kv.Store.
type KVRepository struct {
	store kv.Store
}

// NewRepository creates a new KVRepository.
func NewRepository(store kv.Store) Repository {
	return &KVRepository{store: store}
}

// GetSeller loads a seller by id.
func (r *KVRepository) GetSeller(ctx context.Context, id string) (*Seller, error) {
	raw, err := r.store.Get(ctx, collection, id)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var seller Seller
	if err := json.Unmarshal(raw, &seller); err != nil {
		return nil, fmt.Errorf("decode seller %s: %w", id, err)
	}
	return &seller, nil
}

// SaveSeller inserts or replaces a seller record.
func (r *KVRepository) SaveSeller(ctx context.Context, seller *Seller) error {
	raw, err := json.Marshal(seller)
	if err != nil {
		return fmt.Errorf("encode seller %s: %w", seller.ID, err)
	}
	return r.store.Put(ctx, collection, seller.ID, raw)
}

// ListSellers returns every seller record.
func (r *KVRepository) ListSellers(ctx context.Context) ([]*Seller, error) {
	records, err := r.store.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]*Seller, 0, len(records))
	for _, raw := range records {
		var seller Seller
		if err := json.Unmarshal(raw, &seller); err != nil {
			return nil, fmt.Errorf("decode seller: %w", err)
		}
		out = append(out, &seller)
	}
	return out, nil
}

// DeleteSeller removes a seller record.
func (r *KVRepository) DeleteSeller(ctx context.Context, id string) error {
	err := r.store.Delete(ctx, collection, id)
	if errors.Is(err, kv.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
