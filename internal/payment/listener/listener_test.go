package listener_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcosvcorsi/markethub/internal/events"
	"github.com/marcosvcorsi/markethub/internal/payment/listener"
)

type openedPayment struct {
	orderID       string
	amount        float64
	correlationID string
}

type fakeOpener struct {
	opened   []openedPayment
	failWith error
}

func (f *fakeOpener) OpenPayment(_ context.Context, orderID string, amount float64, correlationID string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.opened = append(f.opened, openedPayment{orderID, amount, correlationID})
	return nil
}

func TestHandleOrderCreated_OpensPayment(t *testing.T) {
	svc := &fakeOpener{}
	l := listener.New(svc)

	event, err := events.New(events.OrderCreated, events.OrderCreatedPayload{
		OrderID:     "order-1",
		UserID:      "user-1",
		TotalAmount: 30,
		Items:       []events.EventItem{{ProductID: "prod-1", Quantity: 3}},
	}, "corr-1")
	require.NoError(t, err)

	require.NoError(t, l.HandleOrderCreated(context.Background(), event))
	require.Len(t, svc.opened, 1)
	assert.Equal(t, "order-1", svc.opened[0].orderID)
	assert.Equal(t, 30.0, svc.opened[0].amount)
	assert.Equal(t, "corr-1", svc.opened[0].correlationID)
}

func TestHandleOrderCreated_ErrorIsReturnedForRedelivery(t *testing.T) {
	svc := &fakeOpener{failWith: errors.New("connection refused")}
	l := listener.New(svc)

	event, err := events.New(events.OrderCreated, events.OrderCreatedPayload{OrderID: "order-1"}, "")
	require.NoError(t, err)

	assert.Error(t, l.HandleOrderCreated(context.Background(), event))
}

func TestRegistryDeclaresOrderSubscription(t *testing.T) {
	l := listener.New(&fakeOpener{})

	subs := l.Registry().Subscriptions()

	require.Len(t, subs, 1)
	assert.Equal(t, events.OrderCreated, subs[0].EventType)
	assert.Equal(t, "payment.order-created", subs[0].Queue())
	assert.Equal(t, "payment.order-created.dlq", subs[0].DeadLetterQueue())
}
