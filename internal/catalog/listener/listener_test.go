package listener_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcosvcorsi/markethub/internal/apperrors"
	"github.com/marcosvcorsi/markethub/internal/catalog/listener"
	"github.com/marcosvcorsi/markethub/internal/catalog/service"
	"github.com/marcosvcorsi/markethub/internal/events"
	ordermodels "github.com/marcosvcorsi/markethub/internal/order/models"
	"github.com/marcosvcorsi/markethub/internal/orderclient"
)

type fakeLedger struct {
	processed  map[string]bool
	decrements [][]events.EventItem
	restores   [][]events.EventItem
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{processed: map[string]bool{}}
}

func (f *fakeLedger) MarkProcessed(_ context.Context, eventID string) (bool, error) {
	if f.processed[eventID] {
		return false, nil
	}
	f.processed[eventID] = true
	return true, nil
}

func (f *fakeLedger) DecrementBatch(_ context.Context, items []events.EventItem) []service.ItemResult {
	f.decrements = append(f.decrements, items)
	return nil
}

func (f *fakeLedger) RestoreBatch(_ context.Context, items []events.EventItem) []service.ItemResult {
	f.restores = append(f.restores, items)
	return nil
}

func directoryFor(orders map[string]*ordermodels.Order) *orderclient.MemoryDirectory {
	return &orderclient.MemoryDirectory{
		Lookup: func(_ context.Context, orderID string) (*ordermodels.Order, error) {
			order, ok := orders[orderID]
			if !ok {
				return nil, apperrors.ErrNotFound
			}
			return order, nil
		},
	}
}

func paidOrder() *ordermodels.Order {
	return &ordermodels.Order{
		ID:     "order-1",
		UserID: "user-1",
		Status: ordermodels.StatusPaid,
		Items: []ordermodels.OrderItem{
			{ProductID: "prod-1", Quantity: 3},
		},
	}
}

func completedEvent(t *testing.T) events.Envelope {
	t.Helper()
	event, err := events.New(events.PaymentCompleted, events.PaymentCompletedPayload{
		OrderID:   "order-1",
		PaymentID: "pay-1",
		Amount:    30,
	}, "corr-1")
	require.NoError(t, err)
	return event
}

func TestHandlePaymentCompleted_DecrementsOrderItems(t *testing.T) {
	ledger := newFakeLedger()
	l := listener.New(ledger, directoryFor(map[string]*ordermodels.Order{"order-1": paidOrder()}))

	err := l.HandlePaymentCompleted(context.Background(), completedEvent(t))

	require.NoError(t, err)
	require.Len(t, ledger.decrements, 1)
	assert.Equal(t, []events.EventItem{{ProductID: "prod-1", Quantity: 3}}, ledger.decrements[0])
}

func TestHandlePaymentCompleted_CancelledOrderSkipped(t *testing.T) {
	cancelled := paidOrder()
	cancelled.Status = ordermodels.StatusCancelled
	ledger := newFakeLedger()
	l := listener.New(ledger, directoryFor(map[string]*ordermodels.Order{"order-1": cancelled}))

	err := l.HandlePaymentCompleted(context.Background(), completedEvent(t))

	require.NoError(t, err)
	assert.Empty(t, ledger.decrements)
	assert.Empty(t, ledger.processed)
}

func TestHandlePaymentCompleted_DuplicateIgnored(t *testing.T) {
	ledger := newFakeLedger()
	l := listener.New(ledger, directoryFor(map[string]*ordermodels.Order{"order-1": paidOrder()}))
	event := completedEvent(t)

	require.NoError(t, l.HandlePaymentCompleted(context.Background(), event))
	require.NoError(t, l.HandlePaymentCompleted(context.Background(), event))

	assert.Len(t, ledger.decrements, 1)
}

func TestHandlePaymentCompleted_UnknownOrderAcknowledged(t *testing.T) {
	ledger := newFakeLedger()
	l := listener.New(ledger, directoryFor(map[string]*ordermodels.Order{}))

	err := l.HandlePaymentCompleted(context.Background(), completedEvent(t))

	assert.NoError(t, err)
	assert.Empty(t, ledger.decrements)
}

func TestHandleOrderCancelled_RestoresPayloadItems(t *testing.T) {
	ledger := newFakeLedger()
	l := listener.New(ledger, directoryFor(nil))

	event, err := events.New(events.OrderCancelled, events.OrderCancelledPayload{
		OrderID: "order-1",
		Reason:  "Cancelled by user",
		Items:   []events.EventItem{{ProductID: "prod-1", Quantity: 3}},
	}, "corr-1")
	require.NoError(t, err)

	require.NoError(t, l.HandleOrderCancelled(context.Background(), event))
	require.Len(t, ledger.restores, 1)
	assert.Equal(t, []events.EventItem{{ProductID: "prod-1", Quantity: 3}}, ledger.restores[0])

	// Redelivery of the same event id is a no-op.
	require.NoError(t, l.HandleOrderCancelled(context.Background(), event))
	assert.Len(t, ledger.restores, 1)
}

func TestRegistryDeclaresCatalogSubscriptions(t *testing.T) {
	l := listener.New(newFakeLedger(), directoryFor(nil))

	subs := l.Registry().Subscriptions()

	require.Len(t, subs, 2)
	assert.Equal(t, events.PaymentCompleted, subs[0].EventType)
	assert.Equal(t, "catalog.payment-completed", subs[0].Queue())
	assert.Equal(t, "catalog.payment-completed.dlq", subs[0].DeadLetterQueue())
	assert.Equal(t, events.OrderCancelled, subs[1].EventType)
	assert.Equal(t, "catalog.order-cancelled", subs[1].Queue())
}
