// Package listener wires the catalog's event subscriptions: a completed
// payment consumes stock, a cancelled order returns it.
package listener

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/marcosvcorsi/markethub/internal/apperrors"
	"github.com/marcosvcorsi/markethub/internal/bus"
	"github.com/marcosvcorsi/markethub/internal/catalog/service"
	"github.com/marcosvcorsi/markethub/internal/events"
	ordermodels "github.com/marcosvcorsi/markethub/internal/order/models"
	"github.com/marcosvcorsi/markethub/internal/orderclient"
)

// StockLedger is the slice of the catalog service the listener needs.
type StockLedger interface {
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
	DecrementBatch(ctx context.Context, items []events.EventItem) []service.ItemResult
	RestoreBatch(ctx context.Context, items []events.EventItem) []service.ItemResult
}

// Listener consumes order and payment lifecycle events for the catalog.
type Listener struct {
	Service StockLedger
	Orders  orderclient.Directory
}

func New(svc StockLedger, orders orderclient.Directory) *Listener {
	return &Listener{Service: svc, Orders: orders}
}

// Registry declares the catalog service's subscription table.
func (l *Listener) Registry() *bus.Registry {
	return bus.NewRegistry("catalog").
		On(events.PaymentCompleted, l.HandlePaymentCompleted).
		On(events.OrderCancelled, l.HandleOrderCancelled)
}

// HandlePaymentCompleted decrements stock for every item of the paid order.
// The payload carries only the orderId, so the item list comes from the
// order directory; an order that was cancelled before this message arrived
// is skipped entirely, its stock is owed to the order.cancelled path.
func (l *Listener) HandlePaymentCompleted(ctx context.Context, event events.Envelope) error {
	payload, err := events.Decode[events.PaymentCompletedPayload](event)
	if err != nil {
		return err
	}

	logrus.Infof("processing payment.completed for order %s [%s]", payload.OrderID, event.CorrelationID)

	order, err := l.Orders.GetOrder(ctx, payload.OrderID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		logrus.Errorf("payment.completed references unknown order %s, acknowledging", payload.OrderID)
		return nil
	}
	if err != nil {
		return err
	}

	if order.Status == ordermodels.StatusCancelled {
		logrus.Warnf("order %s already cancelled, skipping stock decrement", order.ID)
		return nil
	}

	fresh, err := l.Service.MarkProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if !fresh {
		logrus.Infof("event %s already applied, duplicate delivery ignored", event.EventID)
		return nil
	}

	items := make([]events.EventItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, events.EventItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	logResults(l.Service.DecrementBatch(ctx, items), "decrement")
	return nil
}

// HandleOrderCancelled restores stock for every item of the cancelled order.
func (l *Listener) HandleOrderCancelled(ctx context.Context, event events.Envelope) error {
	payload, err := events.Decode[events.OrderCancelledPayload](event)
	if err != nil {
		return err
	}

	logrus.Infof("processing order.cancelled for order %s [%s]: %s",
		payload.OrderID, event.CorrelationID, payload.Reason)

	fresh, err := l.Service.MarkProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if !fresh {
		logrus.Infof("event %s already applied, duplicate delivery ignored", event.EventID)
		return nil
	}

	logResults(l.Service.RestoreBatch(ctx, payload.Items), "restore")
	return nil
}

// Per-item failures do not fail the handler; the mutation either applied or
// left the counter untouched, and redelivering the whole batch would double
// apply the lines that succeeded.
func logResults(results []service.ItemResult, verb string) {
	for _, res := range results {
		if res.Err != nil {
			logrus.Errorf("stock %s failed for product %s (qty %d): %v", verb, res.ProductID, res.Quantity, res.Err)
			continue
		}
		logrus.Infof("stock %s applied for product %s (qty %d)", verb, res.ProductID, res.Quantity)
	}
}
