package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matheusmosca/blueprint-storefront/internal/apperrors"
	"github.com/matheusmosca/blueprint-storefront/internal/platform/kv"
	"github.com/matheusmosca/blueprint-storefront/internal/resolver"
)

const collection = "orders"

// ErrNotFound indicates the order record is missing.
var ErrNotFound = errors.New("order not found")

// LockKey is the lock table key guarding one order's record.
func LockKey(orderID string) string {
	return "order:" + orderID
}

// Repository defines the order store.
type Repository interface {
	// Create stores a new order with every item unclaimed.
	Create(ctx context.Context, order NewOrder) (Order, error)

	// Get loads one order, migrating older records.
	Get(ctx context.Context, id string) (Order, error)

	// ListAll returns every order, newest first.
	ListAll(ctx context.Context) ([]Order, error)

	// Update overwrites an order. Callers hold the order's lock.
	Update(ctx context.Context, order Order) error

	// Delete removes one order.
	Delete(ctx context.Context, id string) error

	// DeleteAll removes every order and reports how many were removed.
	DeleteAll(ctx context.Context) (int, error)
}

// KVRepository implements Repository on a kv.Store.
type KVRepository struct {
	store  kv.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewRepository creates a new KVRepository.
func NewRepository(store kv.Store, logger *zap.Logger) Repository {
	return &KVRepository{store: store, logger: logger, now: time.Now}
}

func (r *KVRepository) Create(ctx context.Context, in NewOrder) (Order, error) {
	now := r.now().UTC()
	order := Order{
		ID:               uuid.New().String(),
		BuyerDiscordNick: in.BuyerDiscordNick,
		Offer:            in.Offer,
		OriginalOffer:    in.OriginalOffer,
		Notes:            in.Notes,
		Items:            in.Items,
		SellerGroups:     in.SellerGroups,
		IsMultiSeller:    in.IsMultiSeller,
		SellerCount:      in.SellerCount,
		Status:           StatusOpen,
		ItemClaims:       claimsFor(in.Items),
		SellerStates:     []SellerState{},
		SchemaVersion:    SchemaVersion,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if order.SellerGroups == nil {
		order.SellerGroups = []resolver.SellerGroup{}
	}
	if err := r.put(ctx, order); err != nil {
		return Order{}, err
	}
	return order, nil
}

func (r *KVRepository) Get(ctx context.Context, id string) (Order, error) {
	raw, err := r.store.Get(ctx, collection, id)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return Order{}, notFound(id)
		}
		return Order{}, apperrors.Infrastructure("failed to load order", err)
	}
	order, err := r.decode(raw)
	if err != nil {
		return Order{}, apperrors.Infrastructure("failed to decode order", err)
	}
	return order, nil
}

func (r *KVRepository) ListAll(ctx context.Context) ([]Order, error) {
	records, err := r.store.List(ctx, collection)
	if err != nil {
		return nil, apperrors.Infrastructure("failed to list orders", err)
	}
	out := make([]Order, 0, len(records))
	for _, raw := range records {
		order, err := r.decode(raw)
		if err != nil {
			r.logger.Warn("⚠️ Skipping unreadable order record", zap.Error(err))
			continue
		}
		out = append(out, order)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *KVRepository) Update(ctx context.Context, order Order) error {
	order.SchemaVersion = SchemaVersion
	return r.put(ctx, order)
}

func (r *KVRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, collection, id); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return notFound(id)
		}
		return apperrors.Infrastructure("failed to delete order", err)
	}
	return nil
}

func (r *KVRepository) DeleteAll(ctx context.Context) (int, error) {
	n, err := r.store.DeleteAll(ctx, collection)
	if err != nil {
		return 0, apperrors.Infrastructure("failed to delete orders", err)
	}
	return n, nil
}

func (r *KVRepository) put(ctx context.Context, order Order) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return apperrors.Infrastructure("failed to encode order", err)
	}
	if err := r.store.Put(ctx, collection, order.ID, raw); err != nil {
		return apperrors.Infrastructure("failed to save order", err)
	}
	return nil
}

func (r *KVRepository) decode(raw []byte) (Order, error) {
	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return Order{}, fmt.Errorf("decode order: %w", err)
	}
	order, migrated := Migrate(order)
	if migrated {
		r.logger.Debug("🔄 Migrated legacy order record", zap.String("order_id", order.ID))
	}
	return order, nil
}

func notFound(id string) error {
	return &apperrors.Error{
		Kind:    apperrors.KindNotFound,
		Code:    apperrors.CodeOrderNotFound,
		Message: fmt.Sprintf("order %s not found", id),
		Cause:   ErrNotFound,
	}
}
