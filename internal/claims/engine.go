// Package claims implements the order claim state machine.
//
// Items move unclaimed -> claimed -> fulfilled, with claimed -> unclaimed on
// release. Orders move open -> in_progress -> completed, back to open when
// every claim is released, and to closed or cancelled, which are terminal.
//
// Every operation holds the order's lock from the read until the updated
// record is persisted. Stock changes take the seller's lock inside it, so the
// lock order is always order then seller.
package claims

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/matheusmosca/blueprint-storefront/internal/apperrors"
	"github.com/matheusmosca/blueprint-storefront/internal/orders"
	"github.com/matheusmosca/blueprint-storefront/internal/platform/lock"
	"github.com/matheusmosca/blueprint-storefront/internal/sellers"
)

const instrumentationName = "github.com/matheusmosca/blueprint-storefront/internal/claims"

// Inventory is the part of the seller directory the engine reads and moves
// stock through.
type Inventory interface {
	Get(ctx context.Context, sellerID string) (sellers.Seller, error)
	Adjust(ctx context.Context, sellerID, itemID string, delta int) (int, error)
}

// Outcome is the result of a successful operation.
type Outcome struct {
	AffectedItemIDs []string
	Order           orders.Order
}

// Engine applies seller and admin actions to orders.
type Engine struct {
	orders     orders.Repository
	inventory  Inventory
	locks      *lock.KeyedMutex
	logger     *zap.Logger
	tracer     trace.Tracer
	operations metric.Int64Counter
	now        func() time.Time
}

// NewEngine creates a new Engine. The lock table must be the one shared with
// the seller directory.
func NewEngine(repository orders.Repository, inventory Inventory, locks *lock.KeyedMutex, logger *zap.Logger) (*Engine, error) {
	operations, err := otel.Meter(instrumentationName).Int64Counter(
		"storefront.claims.operations",
		metric.WithDescription("Claim engine operations by outcome"),
	)
	if err != nil {
		return nil, err
	}
	return &Engine{
		orders:     repository,
		inventory:  inventory,
		locks:      locks,
		logger:     logger,
		tracer:     otel.Tracer(instrumentationName),
		operations: operations,
		now:        time.Now,
	}, nil
}

type mutation func(ctx context.Context, order *orders.Order, now time.Time) ([]string, error)

// run executes fn against a fresh copy of the order under the order lock and
// persists the result. A partial failure is persisted too, since its applied
// effects are permanent.
func (e *Engine) run(ctx context.Context, op, orderID, sellerID string, fn mutation) (Outcome, error) {
	ctx, span := e.tracer.Start(ctx, "claims."+op, trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("seller.id", sellerID),
	))
	defer span.End()

	outcome, err := e.apply(ctx, orderID, fn)

	result := "success"
	if err != nil {
		result = string(apperrors.KindOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Warn("❌ Claim operation rejected",
			zap.String("operation", op),
			zap.String("order_id", orderID),
			zap.String("seller_id", sellerID),
			zap.String("code", string(apperrors.CodeOf(err))),
			zap.Error(err),
		)
	} else {
		e.logger.Info("✅ Claim operation applied",
			zap.String("operation", op),
			zap.String("order_id", orderID),
			zap.String("seller_id", sellerID),
			zap.Strings("item_ids", outcome.AffectedItemIDs),
			zap.String("status", string(outcome.Order.Status)),
		)
	}
	e.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", result),
	))
	return outcome, err
}

func (e *Engine) apply(ctx context.Context, orderID string, fn mutation) (Outcome, error) {
	unlock, err := e.locks.Lock(ctx, orders.LockKey(orderID))
	if err != nil {
		return Outcome{}, apperrors.LockAbandoned(err)
	}
	defer unlock()
	// Only the queued wait may be abandoned. Once the lock is held the
	// read-modify-write runs to completion so stock moves are always recorded.
	ctx = context.WithoutCancel(ctx)

	order, err := e.orders.Get(ctx, orderID)
	if err != nil {
		return Outcome{}, err
	}

	now := e.now().UTC()
	affected, opErr := fn(ctx, &order, now)
	if opErr != nil && apperrors.KindOf(opErr) != apperrors.KindPartialFailure {
		return Outcome{}, opErr
	}

	order.UpdatedAt = now
	if err := e.orders.Update(ctx, order); err != nil {
		return Outcome{}, err
	}
	return Outcome{AffectedItemIDs: affected, Order: order}, opErr
}

// activeSeller loads a seller that may claim and move stock.
func (e *Engine) activeSeller(ctx context.Context, sellerID string) (sellers.Seller, error) {
	seller, err := e.inventory.Get(ctx, sellerID)
	if err != nil {
		return sellers.Seller{}, err
	}
	if !seller.IsActive() {
		return sellers.Seller{}, apperrors.Conflict(apperrors.CodeSellerInactive, "seller %s is not active", sellerID)
	}
	return seller, nil
}

func ensureActionable(order *orders.Order) error {
	switch order.Status {
	case orders.StatusClosed:
		return apperrors.Conflict(apperrors.CodeOrderClosed, "order %s is closed", order.ID)
	case orders.StatusCancelled:
		return apperrors.Conflict(apperrors.CodeOrderCancelled, "order %s is cancelled", order.ID)
	}
	return nil
}

func ensureNotAssignedElsewhere(order *orders.Order, sellerID string) error {
	if order.AssignedSellerID != "" && order.AssignedSellerID != sellerID {
		return apperrors.Conflict(apperrors.CodeOrderAssignedElsewhere, "order %s is assigned to another seller", order.ID)
	}
	return nil
}

func itemNotFound(order *orders.Order, itemID string) error {
	return apperrors.NotFound(apperrors.CodeItemNotFound, "item %s is not part of order %s", itemID, order.ID).
		WithMetadata(map[string]string{"item_id": itemID})
}

func insufficientStock(itemID string, have, need int) error {
	return apperrors.Conflict(apperrors.CodeInsufficientStock,
		"insufficient stock for item %s: have %d, need %d", itemID, have, need).
		WithMetadata(map[string]string{"item_id": itemID})
}
