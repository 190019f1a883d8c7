package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/blueprint-storefront/internal/notify"
	"github.com/matheusmosca/blueprint-storefront/internal/orders"
)

type fakeWriter struct {
	messages []kafkaGo.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestOrderSubmitted_PublishesKeyedEvent(t *testing.T) {
	// Arrange
	w := &fakeWriter{}
	p := NewWithWriter(w)
	created := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	// Act
	err := p.OrderSubmitted(context.Background(), orders.Order{
		ID:         "o-1",
		Status:     orders.StatusOpen,
		ItemClaims: []orders.ItemClaim{{ItemID: "A"}, {ItemID: "B"}},
		CreatedAt:  created,
	})

	// Assert
	require.NoError(t, err)
	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "o-1", string(msg.Key))
	assert.Equal(t, "event-type", msg.Headers[0].Key)

	var event notify.Event
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, notify.EventSubmitted, event.Type)
	assert.Equal(t, []string{"A", "B"}, event.ItemIDs)
	assert.True(t, created.Equal(event.OccurredAt))
}

func TestOrderEvent_StampsTimeAndWrapsErrors(t *testing.T) {
	w := &fakeWriter{}
	p := NewWithWriter(w)
	fixed := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	require.NoError(t, p.OrderEvent(context.Background(), notify.Event{Type: notify.EventReleased, OrderID: "o-1"}))
	var event notify.Event
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &event))
	assert.True(t, fixed.Equal(event.OccurredAt))

	w.err = errors.New("broker unreachable")
	err := p.OrderEvent(context.Background(), notify.Event{Type: notify.EventClosed, OrderID: "o-1"})
	assert.ErrorContains(t, err, "publish order.closed")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
