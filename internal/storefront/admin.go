package storefront

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/matheusmosca/blueprint-storefront/internal/apperrors"
	"github.com/matheusmosca/blueprint-storefront/internal/notify"
	"github.com/matheusmosca/blueprint-storefront/internal/orders"
	"github.com/matheusmosca/blueprint-storefront/internal/sellers"
	"github.com/matheusmosca/blueprint-storefront/internal/views"
)

// GetOrdersForAdmin lists every order matching filter, newest first.
func (s *Service) GetOrdersForAdmin(ctx context.Context, filter views.AdminFilter) ([]views.AdminOrderView, error) {
	all, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return views.ForAdminList(all, filter), nil
}

// GetOrderForAdmin returns the unfiltered projection of one order.
func (s *Service) GetOrderForAdmin(ctx context.Context, orderID string) (views.AdminOrderView, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return views.AdminOrderView{}, err
	}
	return views.ForAdmin(order), nil
}

// AdminClose forces an order closed whatever its items' state.
func (s *Service) AdminClose(ctx context.Context, orderID string) (views.AdminOrderView, error) {
	outcome, err := s.engine.Close(ctx, orderID, "", true)
	if err != nil {
		return views.AdminOrderView{}, err
	}
	s.notifyEvent(ctx, notify.Event{Type: notify.EventClosed, OrderID: orderID, Status: outcome.Order.Status, ByAdmin: true})
	return views.ForAdmin(outcome.Order), nil
}

// AdminCancel cancels an order that is not yet closed or cancelled.
func (s *Service) AdminCancel(ctx context.Context, orderID string) (views.AdminOrderView, error) {
	outcome, err := s.engine.Cancel(ctx, orderID)
	if err != nil {
		return views.AdminOrderView{}, err
	}
	s.notifyEvent(ctx, notify.Event{Type: notify.EventCancelled, OrderID: orderID, Status: outcome.Order.Status, ByAdmin: true})
	return views.ForAdmin(outcome.Order), nil
}

// AdminDeleteOrder removes one order permanently.
func (s *Service) AdminDeleteOrder(ctx context.Context, orderID string) error {
	unlock, err := s.locks.Lock(ctx, orders.LockKey(orderID))
	if err != nil {
		return apperrors.LockAbandoned(err)
	}
	defer unlock()

	if err := s.orders.Delete(ctx, orderID); err != nil {
		return err
	}
	s.logger.Info("🗑️ Order deleted", zap.String("order_id", orderID))
	s.notifyEvent(ctx, notify.Event{Type: notify.EventDeleted, OrderID: orderID, ByAdmin: true})
	return nil
}

// AdminClearAll removes every order and reports how many were removed. It
// holds the lock of every listed order while deleting so an in-flight seller
// action cannot write a cleared order back.
func (s *Service) AdminClearAll(ctx context.Context) (int, error) {
	all, err := s.orders.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	keys := make([]string, 0, len(all))
	for _, o := range all {
		keys = append(keys, orders.LockKey(o.ID))
	}
	sort.Strings(keys)

	for _, key := range keys {
		unlock, err := s.locks.Lock(ctx, key)
		if err != nil {
			return 0, apperrors.LockAbandoned(err)
		}
		defer unlock()
	}

	n, err := s.orders.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Warn("🧹 All orders cleared", zap.Int("deleted", n))
	return n, nil
}

// RegisterSeller creates a seller awaiting verification.
func (s *Service) RegisterSeller(ctx context.Context, discordHandle string) (sellers.Seller, error) {
	return s.directory.Register(ctx, discordHandle)
}

// ListSellers returns every seller.
func (s *Service) ListSellers(ctx context.Context) ([]sellers.Seller, error) {
	return s.directory.List(ctx)
}

// GetSeller returns one seller with its inventory.
func (s *Service) GetSeller(ctx context.Context, sellerID string) (sellers.Seller, error) {
	return s.directory.Get(ctx, sellerID)
}

// SetSellerStatus changes a seller's status.
func (s *Service) SetSellerStatus(ctx context.Context, sellerID string, status sellers.Status) (sellers.Seller, error) {
	return s.directory.SetStatus(ctx, sellerID, status)
}

// DeleteSeller removes a seller permanently. Claims it holds stay on their
// orders until an admin closes or cancels them.
func (s *Service) DeleteSeller(ctx context.Context, sellerID string) error {
	return s.directory.Delete(ctx, sellerID)
}

// UpdateInventory applies a bulk inventory update for an active seller.
func (s *Service) UpdateInventory(ctx context.Context, sellerID string, updates []sellers.InventoryUpdate) (sellers.Seller, error) {
	if len(updates) == 0 {
		return sellers.Seller{}, apperrors.Validation("at least one inventory update is required")
	}
	return s.directory.BulkSet(ctx, sellerID, updates)
}

// GetSupply aggregates active stock per item for the public catalog.
func (s *Service) GetSupply(ctx context.Context) (map[string]sellers.Supply, error) {
	return s.directory.AggregateActiveSupply(ctx)
}
