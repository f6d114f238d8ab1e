package listener_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcosvcorsi/markethub/internal/events"
	"github.com/marcosvcorsi/markethub/internal/notification/listener"
)

type fakeNotifier struct {
	calls []string
}

func (f *fakeNotifier) NotifyOrderCreated(_ context.Context, _ events.OrderCreatedPayload) {
	f.calls = append(f.calls, events.OrderCreated)
}

func (f *fakeNotifier) NotifyOrderCancelled(_ context.Context, _ events.OrderCancelledPayload) {
	f.calls = append(f.calls, events.OrderCancelled)
}

func (f *fakeNotifier) NotifyOrderShipped(_ context.Context, _ events.OrderShippedPayload) {
	f.calls = append(f.calls, events.OrderShipped)
}

func (f *fakeNotifier) NotifyPaymentProcessing(_ context.Context, _ events.PaymentProcessingPayload) {
	f.calls = append(f.calls, events.PaymentProcessing)
}

func (f *fakeNotifier) NotifyPaymentCompleted(_ context.Context, _ events.PaymentCompletedPayload) {
	f.calls = append(f.calls, events.PaymentCompleted)
}

func (f *fakeNotifier) NotifyPaymentFailed(_ context.Context, _ events.PaymentFailedPayload) {
	f.calls = append(f.calls, events.PaymentFailed)
}

func TestRegistryCoversEveryLifecycleEvent(t *testing.T) {
	l := listener.New(&fakeNotifier{})

	subs := l.Registry().Subscriptions()

	var types []string
	for _, sub := range subs {
		types = append(types, sub.EventType)
	}
	assert.ElementsMatch(t, []string{
		events.OrderCreated,
		events.OrderCancelled,
		events.OrderShipped,
		events.PaymentProcessing,
		events.PaymentCompleted,
		events.PaymentFailed,
	}, types)
	assert.Equal(t, "notification.order-created", subs[0].Queue())
	assert.Equal(t, "notification.order-created.dlq", subs[0].DeadLetterQueue())
}

func TestHandlersDispatchToTheService(t *testing.T) {
	notifier := &fakeNotifier{}
	l := listener.New(notifier)
	ctx := context.Background()

	publish := func(eventType string, payload interface{}) events.Envelope {
		event, err := events.New(eventType, payload, "corr-1")
		require.NoError(t, err)
		return event
	}

	require.NoError(t, l.HandleOrderCreated(ctx, publish(events.OrderCreated, events.OrderCreatedPayload{OrderID: "o"})))
	require.NoError(t, l.HandleOrderCancelled(ctx, publish(events.OrderCancelled, events.OrderCancelledPayload{OrderID: "o"})))
	require.NoError(t, l.HandleOrderShipped(ctx, publish(events.OrderShipped, events.OrderShippedPayload{OrderID: "o"})))
	require.NoError(t, l.HandlePaymentProcessing(ctx, publish(events.PaymentProcessing, events.PaymentProcessingPayload{OrderID: "o"})))
	require.NoError(t, l.HandlePaymentCompleted(ctx, publish(events.PaymentCompleted, events.PaymentCompletedPayload{OrderID: "o"})))
	require.NoError(t, l.HandlePaymentFailed(ctx, publish(events.PaymentFailed, events.PaymentFailedPayload{OrderID: "o"})))

	assert.Equal(t, []string{
		events.OrderCreated,
		events.OrderCancelled,
		events.OrderShipped,
		events.PaymentProcessing,
		events.PaymentCompleted,
		events.PaymentFailed,
	}, notifier.calls)
}
