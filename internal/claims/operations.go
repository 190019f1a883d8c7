package claims

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matheusmosca/blueprint-storefront/internal/apperrors"
	"github.com/matheusmosca/blueprint-storefront/internal/orders"
)

// AcceptFull assigns the whole order to sellerID and claims every item for
// the requested quantity. Nothing changes unless every item passes.
func (e *Engine) AcceptFull(ctx context.Context, orderID, sellerID string) (Outcome, error) {
	return e.run(ctx, "accept_full", orderID, sellerID, func(ctx context.Context, order *orders.Order, now time.Time) ([]string, error) {
		if err := ensureActionable(order); err != nil {
			return nil, err
		}
		if err := ensureNotAssignedElsewhere(order, sellerID); err != nil {
			return nil, err
		}
		seller, err := e.activeSeller(ctx, sellerID)
		if err != nil {
			return nil, err
		}

		for _, c := range order.ItemClaims {
			switch {
			case c.ClaimStatus == orders.ClaimFulfilled:
				return nil, apperrors.Conflict(apperrors.CodeItemAlreadyFulfilled,
					"item %s has already been fulfilled", c.ItemID).
					WithMetadata(map[string]string{"item_id": c.ItemID})
			case c.ClaimStatus == orders.ClaimClaimed && c.ClaimedBySellerID != sellerID:
				return nil, apperrors.Conflict(apperrors.CodeItemClaimedElsewhere,
					"item %s is claimed by another seller", c.ItemID).
					WithMetadata(map[string]string{"item_id": c.ItemID})
			}
			if have := seller.Quantity(c.ItemID); have < c.RequestedQty {
				return nil, insufficientStock(c.ItemID, have, c.RequestedQty)
			}
		}

		for i := range order.ItemClaims {
			c := &order.ItemClaims[i]
			if c.ClaimStatus == orders.ClaimUnclaimed {
				c.Claim(sellerID, now)
				continue
			}
			c.ClaimedQuantity = c.RequestedQty
		}
		order.AssignedSellerID = sellerID
		order.AssignedAt = &now
		order.Status = orders.StatusInProgress
		return order.ItemIDs(), nil
	})
}

// ClaimItems claims the given items, or every unclaimed item when itemIDs is
// empty. Items held by another seller or short on stock are skipped; items
// already held by sellerID are left as they are.
func (e *Engine) ClaimItems(ctx context.Context, orderID, sellerID string, itemIDs []string) (Outcome, error) {
	return e.run(ctx, "claim_items", orderID, sellerID, func(ctx context.Context, order *orders.Order, now time.Time) ([]string, error) {
		if err := ensureActionable(order); err != nil {
			return nil, err
		}
		if err := ensureNotAssignedElsewhere(order, sellerID); err != nil {
			return nil, err
		}
		seller, err := e.activeSeller(ctx, sellerID)
		if err != nil {
			return nil, err
		}

		var targets []*orders.ItemClaim
		if len(itemIDs) == 0 {
			for i := range order.ItemClaims {
				if order.ItemClaims[i].ClaimStatus == orders.ClaimUnclaimed {
					targets = append(targets, &order.ItemClaims[i])
				}
			}
		} else {
			seen := make(map[string]bool, len(itemIDs))
			for _, id := range itemIDs {
				if seen[id] {
					continue
				}
				seen[id] = true
				c := order.Claim(id)
				if c == nil {
					return nil, itemNotFound(order, id)
				}
				targets = append(targets, c)
			}
		}

		var claimed []string
		for _, c := range targets {
			if c.ClaimStatus != orders.ClaimUnclaimed {
				continue
			}
			if seller.Quantity(c.ItemID) < c.RequestedQty {
				continue
			}
			c.Claim(sellerID, now)
			claimed = append(claimed, c.ItemID)
		}
		if len(claimed) == 0 {
			return nil, apperrors.Conflict(apperrors.CodeNothingToClaim, "nothing to claim on order %s", order.ID)
		}
		if order.Status == orders.StatusOpen {
			order.Status = orders.StatusInProgress
		}
		return claimed, nil
	})
}

// FulfillItem delivers one claimed item. Stock is decremented before the item
// is marked fulfilled, and a fulfilled item is never decremented again.
func (e *Engine) FulfillItem(ctx context.Context, orderID, sellerID, itemID string) (Outcome, error) {
	return e.run(ctx, "fulfill_item", orderID, sellerID, func(ctx context.Context, order *orders.Order, now time.Time) ([]string, error) {
		if err := ensureActionable(order); err != nil {
			return nil, err
		}
		if _, err := e.activeSeller(ctx, sellerID); err != nil {
			return nil, err
		}
		c := order.Claim(itemID)
		if c == nil {
			return nil, itemNotFound(order, itemID)
		}
		if !c.HeldBy(sellerID) {
			return nil, apperrors.Conflict(apperrors.CodeItemNotClaimedByYou,
				"item %s is not claimed by you", itemID).
				WithMetadata(map[string]string{"item_id": itemID})
		}
		if c.ClaimStatus == orders.ClaimFulfilled {
			return nil, apperrors.Conflict(apperrors.CodeItemAlreadyFulfilled,
				"item %s has already been fulfilled", itemID).
				WithMetadata(map[string]string{"item_id": itemID})
		}

		if _, err := e.inventory.Adjust(ctx, sellerID, itemID, -c.ClaimedQuantity); err != nil {
			return nil, err
		}
		c.Fulfill(now)
		if order.AllFulfilled() {
			order.Status = orders.StatusCompleted
		}
		return []string{itemID}, nil
	})
}

// FulfillAllClaimed delivers every item sellerID holds but has not fulfilled.
// Stock for all of them is checked before anything moves. If a decrement
// still fails midway, the items already fulfilled stay fulfilled and the
// error is a partial failure naming both sets.
func (e *Engine) FulfillAllClaimed(ctx context.Context, orderID, sellerID string) (Outcome, error) {
	return e.run(ctx, "fulfill_all", orderID, sellerID, func(ctx context.Context, order *orders.Order, now time.Time) ([]string, error) {
		if err := ensureActionable(order); err != nil {
			return nil, err
		}
		seller, err := e.activeSeller(ctx, sellerID)
		if err != nil {
			return nil, err
		}

		var targets []*orders.ItemClaim
		for i := range order.ItemClaims {
			c := &order.ItemClaims[i]
			if c.ClaimStatus == orders.ClaimClaimed && c.ClaimedBySellerID == sellerID {
				targets = append(targets, c)
			}
		}
		if len(targets) == 0 {
			return nil, apperrors.Conflict(apperrors.CodeNothingToFulfill, "you have no claimed items to fulfill on order %s", order.ID)
		}
		for _, c := range targets {
			if have := seller.Quantity(c.ItemID); have < c.ClaimedQuantity {
				return nil, insufficientStock(c.ItemID, have, c.ClaimedQuantity)
			}
		}

		var fulfilled []string
		for _, c := range targets {
			if _, err := e.inventory.Adjust(ctx, sellerID, c.ItemID, -c.ClaimedQuantity); err != nil {
				if len(fulfilled) == 0 {
					return nil, err
				}
				markCompleted(order)
				return fulfilled, partialFulfillment(fulfilled, c.ItemID, err)
			}
			c.Fulfill(now)
			fulfilled = append(fulfilled, c.ItemID)
		}
		markCompleted(order)
		return fulfilled, nil
	})
}

// Release returns one of sellerID's unfulfilled items to the pool.
func (e *Engine) Release(ctx context.Context, orderID, sellerID, itemID string) (Outcome, error) {
	return e.run(ctx, "release", orderID, sellerID, func(ctx context.Context, order *orders.Order, now time.Time) ([]string, error) {
		if err := ensureActionable(order); err != nil {
			return nil, err
		}
		if _, err := e.inventory.Get(ctx, sellerID); err != nil {
			return nil, err
		}
		c := order.Claim(itemID)
		if c == nil {
			return nil, itemNotFound(order, itemID)
		}
		if !c.HeldBy(sellerID) {
			return nil, apperrors.Conflict(apperrors.CodeItemNotClaimedByYou,
				"item %s is not claimed by you", itemID).
				WithMetadata(map[string]string{"item_id": itemID})
		}
		if c.ClaimStatus == orders.ClaimFulfilled {
			return nil, apperrors.Conflict(apperrors.CodeItemAlreadyFulfilled,
				"item %s has already been fulfilled and cannot be released", itemID).
				WithMetadata(map[string]string{"item_id": itemID})
		}

		c.Reset()
		if order.AssignedSellerID == sellerID && !order.HasOpenClaims(sellerID) {
			order.AssignedSellerID = ""
			order.AssignedAt = nil
		}
		if !order.AnyHeld() {
			order.Status = orders.StatusOpen
		}
		return []string{itemID}, nil
	})
}

// Close archives the order. An admin close forces the global status to
// closed. A seller close only records that seller as done, and closes the
// order globally once every item is fulfilled.
func (e *Engine) Close(ctx context.Context, orderID, sellerID string, isAdmin bool) (Outcome, error) {
	if isAdmin {
		return e.run(ctx, "admin_close", orderID, sellerID, func(ctx context.Context, order *orders.Order, now time.Time) ([]string, error) {
			if order.Status == orders.StatusClosed {
				return nil, apperrors.Conflict(apperrors.CodeOrderClosed, "order %s is already closed", order.ID)
			}
			order.Status = orders.StatusClosed
			order.ClosedAt = &now
			return nil, nil
		})
	}

	return e.run(ctx, "close", orderID, sellerID, func(ctx context.Context, order *orders.Order, now time.Time) ([]string, error) {
		if err := ensureActionable(order); err != nil {
			return nil, err
		}
		if _, err := e.inventory.Get(ctx, sellerID); err != nil {
			return nil, err
		}
		if order.SelfClosed(sellerID) {
			return nil, apperrors.Conflict(apperrors.CodeSellerAlreadyClosed, "you already closed order %s", order.ID)
		}
		if !order.Involves(sellerID) {
			return nil, apperrors.Conflict(apperrors.CodeSellerNotInvolved, "you have no claims on order %s", order.ID)
		}
		if order.HasOpenClaims(sellerID) {
			return nil, apperrors.Conflict(apperrors.CodeSellerHasOpenClaims,
				"fulfill or release your claimed items on order %s before closing it", order.ID)
		}

		order.CloseForSeller(sellerID, now)
		if order.AllFulfilled() {
			order.Status = orders.StatusClosed
			order.ClosedAt = &now
		}
		return nil, nil
	})
}

// Cancel withdraws an order that is not yet closed or cancelled.
func (e *Engine) Cancel(ctx context.Context, orderID string) (Outcome, error) {
	return e.run(ctx, "cancel", orderID, "", func(ctx context.Context, order *orders.Order, now time.Time) ([]string, error) {
		if err := ensureActionable(order); err != nil {
			return nil, err
		}
		order.Status = orders.StatusCancelled
		order.CancelledAt = &now
		return nil, nil
	})
}

func markCompleted(order *orders.Order) {
	if order.AllFulfilled() {
		order.Status = orders.StatusCompleted
	}
}

func partialFulfillment(fulfilled []string, failedItemID string, cause error) error {
	return &apperrors.Error{
		Kind: apperrors.KindPartialFailure,
		Code: apperrors.CodePartialFulfillment,
		Message: fmt.Sprintf("fulfilled %s but item %s failed: %s; fulfilled items were not rolled back",
			strings.Join(fulfilled, ", "), failedItemID, messageOf(cause)),
		Metadata: map[string]string{
			"fulfilled": strings.Join(fulfilled, ","),
			"failed":    failedItemID,
		},
		Cause: cause,
	}
}

func messageOf(err error) string {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
