package storefront

import (
	"context"
	"errors"

	"github.com/matheusmosca/blueprint-storefront/internal/apperrors"
	"github.com/matheusmosca/blueprint-storefront/internal/claims"
	"github.com/matheusmosca/blueprint-storefront/internal/notify"
	"github.com/matheusmosca/blueprint-storefront/internal/views"
)

// Action is a seller action on an order.
type Action string

const (
	ActionAccept     Action = "accept"
	ActionClaim      Action = "claim"
	ActionFulfill    Action = "fulfill"
	ActionFulfillAll Action = "fulfill_all"
	ActionClose      Action = "close"
	ActionRelease    Action = "release"
)

// SellerAction is a seller's request against one order.
type SellerAction struct {
	Action  Action   `json:"action"`
	ItemID  string   `json:"itemId,omitempty"`
	ItemIDs []string `json:"itemIds,omitempty"`
}

// ActionResult reports the outcome of a seller action. A partial failure has
// Success false and still lists the items that were changed.
type ActionResult struct {
	Success         bool                   `json:"success"`
	Error           string                 `json:"error,omitempty"`
	Kind            apperrors.Kind         `json:"kind,omitempty"`
	Code            apperrors.Code         `json:"code,omitempty"`
	AffectedItemIDs []string               `json:"affectedItemIds,omitempty"`
	Order           *views.SellerOrderView `json:"order,omitempty"`
}

var actionEvents = map[Action]notify.EventType{
	ActionAccept:     notify.EventAccepted,
	ActionClaim:      notify.EventClaimed,
	ActionFulfill:    notify.EventFulfilled,
	ActionFulfillAll: notify.EventFulfilled,
	ActionClose:      notify.EventClosed,
	ActionRelease:    notify.EventReleased,
}

// PerformSellerAction runs one claim engine operation for sellerID.
func (s *Service) PerformSellerAction(ctx context.Context, orderID, sellerID string, action SellerAction) ActionResult {
	outcome, err := s.dispatch(ctx, orderID, sellerID, action)
	if err != nil && apperrors.KindOf(err) != apperrors.KindPartialFailure {
		return failure(err, nil)
	}

	s.notifyEvent(ctx, notify.Event{
		Type:     actionEvents[action.Action],
		OrderID:  orderID,
		SellerID: sellerID,
		ItemIDs:  outcome.AffectedItemIDs,
		Status:   outcome.Order.Status,
	})

	result := ActionResult{Success: true, AffectedItemIDs: outcome.AffectedItemIDs}
	if err != nil {
		result = failure(err, outcome.AffectedItemIDs)
	}
	if seller, getErr := s.directory.Get(ctx, sellerID); getErr == nil {
		if view, ok := views.ForSeller(outcome.Order, seller); ok {
			result.Order = &view
		}
	}
	return result
}

func (s *Service) dispatch(ctx context.Context, orderID, sellerID string, action SellerAction) (claims.Outcome, error) {
	switch action.Action {
	case ActionAccept:
		return s.engine.AcceptFull(ctx, orderID, sellerID)
	case ActionClaim:
		ids := action.ItemIDs
		if len(ids) == 0 && action.ItemID != "" {
			ids = []string{action.ItemID}
		}
		return s.engine.ClaimItems(ctx, orderID, sellerID, ids)
	case ActionFulfill:
		if action.ItemID == "" {
			return claims.Outcome{}, apperrors.Validation("itemId is required for fulfill")
		}
		return s.engine.FulfillItem(ctx, orderID, sellerID, action.ItemID)
	case ActionFulfillAll:
		return s.engine.FulfillAllClaimed(ctx, orderID, sellerID)
	case ActionClose:
		return s.engine.Close(ctx, orderID, sellerID, false)
	case ActionRelease:
		if action.ItemID == "" {
			return claims.Outcome{}, apperrors.Validation("itemId is required for release")
		}
		return s.engine.Release(ctx, orderID, sellerID, action.ItemID)
	default:
		return claims.Outcome{}, apperrors.Validation("unknown action %q", action.Action)
	}
}

func failure(err error, affected []string) ActionResult {
	result := ActionResult{
		Success:         false,
		Error:           err.Error(),
		Kind:            apperrors.KindOf(err),
		Code:            apperrors.CodeOf(err),
		AffectedItemIDs: affected,
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Kind == apperrors.KindInfrastructure {
		result.Error = "the storefront is temporarily unavailable, please try again"
	}
	return result
}
