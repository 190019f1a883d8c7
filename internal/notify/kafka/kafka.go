// Package kafka publishes order lifecycle events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/matheusmosca/blueprint-storefront/internal/notify"
	"github.com/matheusmosca/blueprint-storefront/internal/orders"
)

// Writer is the part of kafka-go's Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

// Publisher writes every event as JSON keyed by order id.
type Publisher struct {
	writer Writer
	now    func() time.Time
}

// New creates a Publisher writing to topic on brokers.
func New(brokers []string, topic string) *Publisher {
	return NewWithWriter(&kafkaGo.Writer{
		Addr:         kafkaGo.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkaGo.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafkaGo.RequireOne,
	})
}

// NewWithWriter creates a Publisher on an existing writer.
func NewWithWriter(writer Writer) *Publisher {
	return &Publisher{writer: writer, now: time.Now}
}

func (p *Publisher) OrderSubmitted(ctx context.Context, order orders.Order) error {
	return p.OrderEvent(ctx, notify.Event{
		Type:       notify.EventSubmitted,
		OrderID:    order.ID,
		ItemIDs:    order.ItemIDs(),
		Status:     order.Status,
		OccurredAt: order.CreatedAt,
	})
}

func (p *Publisher) OrderEvent(ctx context.Context, event notify.Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
		Headers: []kafkaGo.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
