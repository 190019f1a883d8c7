// Package notify delivers order notifications to sellers, admins and
// downstream consumers. Delivery is best effort: a failed notification never
// fails the operation that triggered it.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/matheusmosca/blueprint-storefront/internal/orders"
)

// EventType names an order lifecycle event.
type EventType string

const (
	EventSubmitted EventType = "order.submitted"
	EventAccepted  EventType = "order.accepted"
	EventClaimed   EventType = "order.claimed"
	EventFulfilled EventType = "order.fulfilled"
	EventReleased  EventType = "order.released"
	EventClosed    EventType = "order.closed"
	EventCancelled EventType = "order.cancelled"
	EventDeleted   EventType = "order.deleted"
)

// Event describes one change to an order.
type Event struct {
	Type       EventType     `json:"type"`
	OrderID    string        `json:"orderId"`
	SellerID   string        `json:"sellerId,omitempty"`
	ItemIDs    []string      `json:"itemIds,omitempty"`
	Status     orders.Status `json:"status,omitempty"`
	ByAdmin    bool          `json:"byAdmin,omitempty"`
	OccurredAt time.Time     `json:"occurredAt"`
}

// Notifier receives order notifications.
type Notifier interface {
	// OrderSubmitted announces a new order to the sellers who could fill it.
	OrderSubmitted(ctx context.Context, order orders.Order) error

	// OrderEvent reports a lifecycle change.
	OrderEvent(ctx context.Context, event Event) error
}

// Noop discards every notification.
type Noop struct{}

func (Noop) OrderSubmitted(context.Context, orders.Order) error { return nil }

func (Noop) OrderEvent(context.Context, Event) error { return nil }

// Multi fans notifications out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) OrderSubmitted(ctx context.Context, order orders.Order) error {
	var errs []error
	for _, n := range m {
		if err := n.OrderSubmitted(ctx, order); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) OrderEvent(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if err := n.OrderEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
