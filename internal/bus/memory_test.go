package bus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcosvcorsi/markethub/internal/bus"
	"github.com/marcosvcorsi/markethub/internal/events"
)

func TestQueueNaming(t *testing.T) {
	sub := bus.Subscription{Service: "catalog", EventType: "payment.completed"}

	assert.Equal(t, "catalog.payment-completed", sub.Queue())
	assert.Equal(t, "catalog.payment-completed.dlq", sub.DeadLetterQueue())
}

func TestPublishDeliversToSubscribers(t *testing.T) {
	b := bus.NewMemoryBus(1)

	var got events.Envelope
	require.NoError(t, b.Subscribe(bus.Subscription{
		Service:   "order",
		EventType: events.PaymentCompleted,
		Handler: func(_ context.Context, event events.Envelope) error {
			got = event
			return nil
		},
	}))
	require.NoError(t, b.Start(context.Background()))

	payload := events.PaymentCompletedPayload{OrderID: "order-1", PaymentID: "pay-1", Amount: 30}
	require.NoError(t, b.Publish(context.Background(), events.PaymentCompleted, payload, "corr-1"))

	assert.Equal(t, events.PaymentCompleted, got.EventType)
	assert.Equal(t, "corr-1", got.CorrelationID)
	assert.NotEmpty(t, got.EventID)

	decoded, err := events.Decode[events.PaymentCompletedPayload](got)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestCorrelationIDGeneratedWhenAbsent(t *testing.T) {
	b := bus.NewMemoryBus(1)
	require.NoError(t, b.Publish(context.Background(), events.OrderCreated, events.OrderCreatedPayload{OrderID: "o"}, ""))

	published := b.Published()
	require.Len(t, published, 1)
	assert.NotEmpty(t, published[0].CorrelationID)
}

func TestFailingHandlerIsRetriedThenDeadLettered(t *testing.T) {
	b := bus.NewMemoryBus(3)

	attempts := 0
	sub := bus.Subscription{
		Service:   "catalog",
		EventType: events.OrderCancelled,
		Handler: func(_ context.Context, _ events.Envelope) error {
			attempts++
			return errors.New("boom")
		},
	}
	require.NoError(t, b.Subscribe(sub))
	require.NoError(t, b.Start(context.Background()))

	require.NoError(t, b.Publish(context.Background(), events.OrderCancelled, events.OrderCancelledPayload{OrderID: "o"}, ""))

	assert.Equal(t, 3, attempts)
	assert.Len(t, b.DeadLetters(sub.DeadLetterQueue()), 1)
}

func TestRecoveringHandlerIsNotDeadLettered(t *testing.T) {
	b := bus.NewMemoryBus(3)

	attempts := 0
	sub := bus.Subscription{
		Service:   "order",
		EventType: events.PaymentFailed,
		Handler: func(_ context.Context, _ events.Envelope) error {
			attempts++
			if attempts < 2 {
				return errors.New("transient")
			}
			return nil
		},
	}
	require.NoError(t, b.Subscribe(sub))
	require.NoError(t, b.Start(context.Background()))

	require.NoError(t, b.Publish(context.Background(), events.PaymentFailed, events.PaymentFailedPayload{OrderID: "o"}, ""))

	assert.Equal(t, 2, attempts)
	assert.Empty(t, b.DeadLetters(sub.DeadLetterQueue()))
}

func TestRegistryAttachesEverySubscription(t *testing.T) {
	b := bus.NewMemoryBus(1)

	seen := map[string]bool{}
	handler := func(_ context.Context, event events.Envelope) error {
		seen[event.EventType] = true
		return nil
	}

	registry := bus.NewRegistry("notification").
		On(events.OrderCreated, handler).
		On(events.PaymentCompleted, handler)
	require.NoError(t, registry.Attach(b))
	require.NoError(t, b.Start(context.Background()))

	require.NoError(t, b.Publish(context.Background(), events.OrderCreated, events.OrderCreatedPayload{OrderID: "o"}, ""))
	require.NoError(t, b.Publish(context.Background(), events.PaymentCompleted, events.PaymentCompletedPayload{OrderID: "o"}, ""))

	assert.True(t, seen[events.OrderCreated])
	assert.True(t, seen[events.PaymentCompleted])
}
