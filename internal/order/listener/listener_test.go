package listener_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcosvcorsi/markethub/internal/apperrors"
	"github.com/marcosvcorsi/markethub/internal/events"
	"github.com/marcosvcorsi/markethub/internal/order/listener"
	"github.com/marcosvcorsi/markethub/internal/order/models"
)

type fakeTransitioner struct {
	orders      map[string]*models.Order
	transitions []models.OrderStatus
	failWith    error
}

func (f *fakeTransitioner) FindByIDInternal(_ context.Context, id string) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return order, nil
}

func (f *fakeTransitioner) Transition(_ context.Context, id string, newStatus models.OrderStatus) (*models.Order, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	order := f.orders[id]
	if !order.Status.CanTransitionTo(newStatus) {
		return nil, models.TransitionError(order.Status, newStatus)
	}
	order.Status = newStatus
	f.transitions = append(f.transitions, newStatus)
	return order, nil
}

func envelope(t *testing.T, eventType string, payload interface{}) events.Envelope {
	t.Helper()
	event, err := events.New(eventType, payload, "corr-1")
	require.NoError(t, err)
	return event
}

func TestHandlePaymentCompleted_TransitionsToPaid(t *testing.T) {
	svc := &fakeTransitioner{orders: map[string]*models.Order{
		"order-1": {ID: "order-1", Status: models.StatusPaymentProcessing},
	}}
	l := listener.New(svc)

	err := l.HandlePaymentCompleted(context.Background(), envelope(t, events.PaymentCompleted,
		events.PaymentCompletedPayload{OrderID: "order-1", PaymentID: "pay-1", Amount: 30}))

	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, svc.orders["order-1"].Status)
}

func TestHandlePaymentFailed_TransitionsToFailed(t *testing.T) {
	svc := &fakeTransitioner{orders: map[string]*models.Order{
		"order-1": {ID: "order-1", Status: models.StatusPaymentProcessing},
	}}
	l := listener.New(svc)

	err := l.HandlePaymentFailed(context.Background(), envelope(t, events.PaymentFailed,
		events.PaymentFailedPayload{OrderID: "order-1", Reason: "expired"}))

	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, svc.orders["order-1"].Status)
}

func TestDuplicateDeliveryIsNoOp(t *testing.T) {
	svc := &fakeTransitioner{orders: map[string]*models.Order{
		"order-1": {ID: "order-1", Status: models.StatusPaid},
	}}
	l := listener.New(svc)

	err := l.HandlePaymentCompleted(context.Background(), envelope(t, events.PaymentCompleted,
		events.PaymentCompletedPayload{OrderID: "order-1", PaymentID: "pay-1", Amount: 30}))

	require.NoError(t, err)
	assert.Empty(t, svc.transitions)
}

func TestConflictingStateIsAcknowledged(t *testing.T) {
	// The order was cancelled before payment.completed arrived; the handler
	// must not error, otherwise the message loops forever.
	svc := &fakeTransitioner{orders: map[string]*models.Order{
		"order-1": {ID: "order-1", Status: models.StatusCancelled},
	}}
	l := listener.New(svc)

	err := l.HandlePaymentCompleted(context.Background(), envelope(t, events.PaymentCompleted,
		events.PaymentCompletedPayload{OrderID: "order-1", PaymentID: "pay-1", Amount: 30}))

	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, svc.orders["order-1"].Status)
}

func TestUnknownOrderIsAcknowledged(t *testing.T) {
	svc := &fakeTransitioner{orders: map[string]*models.Order{}}
	l := listener.New(svc)

	err := l.HandlePaymentCompleted(context.Background(), envelope(t, events.PaymentCompleted,
		events.PaymentCompletedPayload{OrderID: "ghost", PaymentID: "pay-1", Amount: 30}))

	assert.NoError(t, err)
}

func TestTransientErrorIsReturnedForRedelivery(t *testing.T) {
	svc := &fakeTransitioner{
		orders: map[string]*models.Order{
			"order-1": {ID: "order-1", Status: models.StatusPaymentProcessing},
		},
		failWith: errors.New("connection refused"),
	}
	l := listener.New(svc)

	err := l.HandlePaymentCompleted(context.Background(), envelope(t, events.PaymentCompleted,
		events.PaymentCompletedPayload{OrderID: "order-1", PaymentID: "pay-1", Amount: 30}))

	assert.Error(t, err)
}

func TestRegistryDeclaresPaymentSubscriptions(t *testing.T) {
	l := listener.New(&fakeTransitioner{})

	subs := l.Registry().Subscriptions()

	require.Len(t, subs, 2)
	assert.Equal(t, events.PaymentCompleted, subs[0].EventType)
	assert.Equal(t, "order.payment-completed", subs[0].Queue())
	assert.Equal(t, "order.payment-completed.dlq", subs[0].DeadLetterQueue())
	assert.Equal(t, events.PaymentFailed, subs[1].EventType)
}
