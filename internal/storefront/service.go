// Package storefront is the service facade the request layer talks to. It
// owns the process-wide lock table and wires the resolver, the stores, the
// claim engine, the view projections and the notifiers together.
package storefront

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/matheusmosca/blueprint-storefront/internal/apperrors"
	"github.com/matheusmosca/blueprint-storefront/internal/claims"
	"github.com/matheusmosca/blueprint-storefront/internal/notify"
	"github.com/matheusmosca/blueprint-storefront/internal/orders"
	"github.com/matheusmosca/blueprint-storefront/internal/platform/kv"
	"github.com/matheusmosca/blueprint-storefront/internal/platform/lock"
	"github.com/matheusmosca/blueprint-storefront/internal/resolver"
	"github.com/matheusmosca/blueprint-storefront/internal/sellers"
	"github.com/matheusmosca/blueprint-storefront/internal/views"
)

const notifyTimeout = 5 * time.Second

// Service implements the storefront operations.
type Service struct {
	locks     *lock.KeyedMutex
	directory *sellers.Directory
	orders    orders.Repository
	engine    *claims.Engine
	notifier  notify.Notifier
	validate  *validator.Validate
	logger    *zap.Logger
}

// New builds a Service on store. One Service should exist per process, since
// it holds the only lock table.
func New(store kv.Store, notifier notify.Notifier, logger *zap.Logger) (*Service, error) {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	locks := lock.NewKeyedMutex()
	directory := sellers.NewDirectory(sellers.NewRepository(store), locks, logger.Named("sellers"))
	repository := orders.NewRepository(store, logger.Named("orders"))
	engine, err := claims.NewEngine(repository, directory, locks, logger.Named("claims"))
	if err != nil {
		return nil, err
	}
	return &Service{
		locks:     locks,
		directory: directory,
		orders:    repository,
		engine:    engine,
		notifier:  notifier,
		validate:  newValidator(),
		logger:    logger,
	}, nil
}

// SubmitOrder validates a buyer submission, resolves it against the active
// sellers and stores it with every item unclaimed.
func (s *Service) SubmitOrder(ctx context.Context, submission Submission) (string, error) {
	submission = submission.normalized()
	if err := s.validate.StructCtx(ctx, submission); err != nil {
		return "", validationError(err)
	}

	items := resolver.MergeItems(submission.Items)
	eligible, err := s.directory.EligibleSellers(ctx)
	if err != nil {
		return "", err
	}
	resolution := resolver.Resolve(items, submission.Offer, eligible)

	order, err := s.orders.Create(ctx, orders.NewOrder{
		BuyerDiscordNick: submission.BuyerDiscordNick,
		Offer:            resolution.Offer,
		OriginalOffer:    resolution.OriginalOffer,
		Notes:            submission.Notes,
		Items:            items,
		SellerGroups:     resolution.Groups,
		IsMultiSeller:    resolution.IsMultiSeller,
		SellerCount:      resolution.SellerCount,
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("🛒 Order submitted",
		zap.String("order_id", order.ID),
		zap.Int("items", len(items)),
		zap.Bool("multi_seller", resolution.IsMultiSeller),
		zap.Int("seller_count", resolution.SellerCount),
	)
	s.notifySubmitted(ctx, order)
	return order.ID, nil
}

// GetOrdersForSeller lists the orders a seller can still act on.
func (s *Service) GetOrdersForSeller(ctx context.Context, sellerID string) ([]views.SellerOrderView, error) {
	seller, all, err := s.sellerAndOrders(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return views.ActiveForSeller(all, seller), nil
}

// GetArchivedOrdersForSeller lists the orders a seller is done with.
func (s *Service) GetArchivedOrdersForSeller(ctx context.Context, sellerID string) ([]views.SellerOrderView, error) {
	seller, all, err := s.sellerAndOrders(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return views.ArchivedForSeller(all, seller), nil
}

// GetOrderForSeller returns one order as sellerID sees it. Orders with no
// item visible to the seller are reported as not found.
func (s *Service) GetOrderForSeller(ctx context.Context, orderID, sellerID string) (views.SellerOrderView, error) {
	seller, err := s.directory.Get(ctx, sellerID)
	if err != nil {
		return views.SellerOrderView{}, err
	}
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return views.SellerOrderView{}, err
	}
	view, ok := views.ForSeller(order, seller)
	if !ok {
		return views.SellerOrderView{}, apperrors.NotFound(apperrors.CodeOrderNotFound, "order %s not found", orderID)
	}
	return view, nil
}

func (s *Service) sellerAndOrders(ctx context.Context, sellerID string) (sellers.Seller, []orders.Order, error) {
	seller, err := s.directory.Get(ctx, sellerID)
	if err != nil {
		return sellers.Seller{}, nil, err
	}
	all, err := s.orders.ListAll(ctx)
	if err != nil {
		return sellers.Seller{}, nil, err
	}
	return seller, all, nil
}

func (s *Service) notifySubmitted(ctx context.Context, order orders.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.OrderSubmitted(ctx, order); err != nil {
		s.logger.Warn("⚠️ Order notification failed", zap.String("order_id", order.ID), zap.Error(err))
	}
}

func (s *Service) notifyEvent(ctx context.Context, event notify.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := s.notifier.OrderEvent(ctx, event); err != nil {
		s.logger.Warn("⚠️ Event notification failed",
			zap.String("order_id", event.OrderID),
			zap.String("event", string(event.Type)),
			zap.Error(err),
		)
	}
}
