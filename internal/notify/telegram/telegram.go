// Package telegram sends admin alerts to a Telegram chat.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/matheusmosca/blueprint-storefront/internal/notify"
	"github.com/matheusmosca/blueprint-storefront/internal/orders"
)

// Sender is the part of tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier alerts the admin chat about new orders, admin closes and
// cancellations.
type Notifier struct {
	sender Sender
	chatID int64
	logger *zap.Logger
}

// New authenticates the bot and returns a Notifier for chatID.
func New(token string, chatID int64, logger *zap.Logger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	logger.Info("🤖 Telegram bot authorized", zap.String("account", bot.Self.UserName))
	return NewWithSender(bot, chatID, logger), nil
}

// NewWithSender creates a Notifier on an existing sender.
func NewWithSender(sender Sender, chatID int64, logger *zap.Logger) *Notifier {
	return &Notifier{sender: sender, chatID: chatID, logger: logger}
}

func (n *Notifier) OrderSubmitted(ctx context.Context, order orders.Order) error {
	kind := "single-seller"
	if order.IsMultiSeller {
		kind = "multi-seller"
	}
	text := fmt.Sprintf("📦 New %s order %s from %s: %d item(s), %d candidate seller(s)",
		kind, order.ID, order.BuyerDiscordNick, len(order.ItemClaims), order.SellerCount)
	return n.send(text)
}

func (n *Notifier) OrderEvent(ctx context.Context, event notify.Event) error {
	switch {
	case event.Type == notify.EventCancelled:
		return n.send(fmt.Sprintf("🚫 Order %s cancelled", event.OrderID))
	case event.Type == notify.EventClosed && event.ByAdmin:
		return n.send(fmt.Sprintf("🔒 Order %s force-closed", event.OrderID))
	case event.Type == notify.EventDeleted:
		return n.send(fmt.Sprintf("🗑️ Order %s deleted", event.OrderID))
	}
	return nil
}

func (n *Notifier) send(text string) error {
	if _, err := n.sender.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
