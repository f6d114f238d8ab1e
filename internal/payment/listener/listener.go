// Package listener wires the payment service's event subscriptions: a new
// order opens a pending payment sized to its total.
package listener

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/marcosvcorsi/markethub/internal/bus"
	"github.com/marcosvcorsi/markethub/internal/events"
)

// PaymentOpener is the slice of the payment service the listener needs.
type PaymentOpener interface {
	OpenPayment(ctx context.Context, orderID string, amount float64, correlationID string) error
}

// Listener consumes order lifecycle events for the payment service.
type Listener struct {
	Service PaymentOpener
}

func New(service PaymentOpener) *Listener {
	return &Listener{Service: service}
}

// Registry declares the payment service's subscription table.
func (l *Listener) Registry() *bus.Registry {
	return bus.NewRegistry("payment").
		On(events.OrderCreated, l.HandleOrderCreated)
}

// HandleOrderCreated opens a PENDING payment for the new order. The
// correlation id travels on so the follow-up payment.processing event can be
// traced back to the order creation.
func (l *Listener) HandleOrderCreated(ctx context.Context, event events.Envelope) error {
	payload, err := events.Decode[events.OrderCreatedPayload](event)
	if err != nil {
		return err
	}

	logrus.Infof("processing order.created for order %s [%s]", payload.OrderID, event.CorrelationID)
	return l.Service.OpenPayment(ctx, payload.OrderID, payload.TotalAmount, event.CorrelationID)
}
