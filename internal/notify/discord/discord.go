// Package discord posts order announcements to a Discord webhook.
package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/matheusmosca/blueprint-storefront/internal/notify"
	"github.com/matheusmosca/blueprint-storefront/internal/orders"
	"github.com/matheusmosca/blueprint-storefront/internal/resolver"
)

const maxContentLength = 2000

type webhookMessage struct {
	Username string `json:"username,omitempty"`
	Content  string `json:"content"`
}

// Notifier posts one message per seller group on submission and a short
// notice when an order is cancelled or force-closed.
type Notifier struct {
	client     *resty.Client
	webhookURL string
	logger     *zap.Logger
}

// New creates a Notifier for webhookURL.
func New(webhookURL string, logger *zap.Logger) *Notifier {
	client := resty.New().
		SetTimeout(5*time.Second).
		SetRetryCount(2).
		SetHeader("Content-Type", "application/json")
	return &Notifier{client: client, webhookURL: webhookURL, logger: logger}
}

func (n *Notifier) OrderSubmitted(ctx context.Context, order orders.Order) error {
	if len(order.SellerGroups) == 0 {
		return n.post(ctx, fmt.Sprintf("📦 New order `%s` from %s: no active seller stocks any requested item.",
			order.ID, order.BuyerDiscordNick))
	}
	for _, group := range order.SellerGroups {
		if err := n.post(ctx, submittedMessage(order, group)); err != nil {
			return err
		}
	}
	return nil
}

func (n *Notifier) OrderEvent(ctx context.Context, event notify.Event) error {
	switch {
	case event.Type == notify.EventCancelled:
		return n.post(ctx, fmt.Sprintf("🚫 Order `%s` was cancelled.", event.OrderID))
	case event.Type == notify.EventClosed && event.ByAdmin:
		return n.post(ctx, fmt.Sprintf("🔒 Order `%s` was closed by an admin.", event.OrderID))
	}
	return nil
}

func (n *Notifier) post(ctx context.Context, content string) error {
	if len(content) > maxContentLength {
		content = content[:maxContentLength-3] + "..."
	}
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(webhookMessage{Username: "Blueprint Storefront", Content: content}).
		Post(n.webhookURL)
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("discord webhook returned %s", resp.Status())
	}
	n.logger.Debug("📨 Discord notification sent", zap.Int("status", resp.StatusCode()))
	return nil
}

func submittedMessage(order orders.Order, group resolver.SellerGroup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 New order `%s` from **%s** for @%s\n", order.ID, order.BuyerDiscordNick, group.DiscordHandle)
	for _, item := range group.Items {
		marker := "✅"
		if !item.Available {
			marker = "⚠️"
		}
		name := item.ItemName
		if name == "" {
			name = item.ItemID
		}
		fmt.Fprintf(&b, "%s %s x%d (you have %d)\n", marker, name, item.RequestedQty, item.AvailableQty)
	}
	fmt.Fprintf(&b, "Offer: %s", order.Offer)
	if order.IsMultiSeller {
		b.WriteString("\nSeveral sellers are needed for this order.")
	}
	return b.String()
}
