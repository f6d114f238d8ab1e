// Package listener wires the order service's event subscriptions: payment
// outcomes move the order through its state machine.
package listener

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/marcosvcorsi/markethub/internal/apperrors"
	"github.com/marcosvcorsi/markethub/internal/bus"
	"github.com/marcosvcorsi/markethub/internal/events"
	"github.com/marcosvcorsi/markethub/internal/order/models"
)

// OrderTransitioner is the slice of the order service the listener needs.
type OrderTransitioner interface {
	FindByIDInternal(ctx context.Context, id string) (*models.Order, error)
	Transition(ctx context.Context, id string, newStatus models.OrderStatus) (*models.Order, error)
}

// Listener consumes payment lifecycle events for the order service.
type Listener struct {
	Service OrderTransitioner
}

func New(service OrderTransitioner) *Listener {
	return &Listener{Service: service}
}

// Registry declares the order service's subscription table.
func (l *Listener) Registry() *bus.Registry {
	return bus.NewRegistry("order").
		On(events.PaymentCompleted, l.HandlePaymentCompleted).
		On(events.PaymentFailed, l.HandlePaymentFailed)
}

// HandlePaymentCompleted transitions the order to PAID.
func (l *Listener) HandlePaymentCompleted(ctx context.Context, event events.Envelope) error {
	payload, err := events.Decode[events.PaymentCompletedPayload](event)
	if err != nil {
		return err
	}

	logrus.Infof("processing payment.completed for order %s [%s]", payload.OrderID, event.CorrelationID)
	return l.apply(ctx, payload.OrderID, models.StatusPaid)
}

// HandlePaymentFailed transitions the order to FAILED.
func (l *Listener) HandlePaymentFailed(ctx context.Context, event events.Envelope) error {
	payload, err := events.Decode[events.PaymentFailedPayload](event)
	if err != nil {
		return err
	}

	logrus.Infof("processing payment.failed for order %s [%s]: %s", payload.OrderID, event.CorrelationID, payload.Reason)
	return l.apply(ctx, payload.OrderID, models.StatusFailed)
}

// apply tolerates redelivery: an order already in the target status is a
// no-op, and a state conflict (e.g. the order was cancelled meanwhile) is
// logged and acknowledged so the message is not redelivered forever.
func (l *Listener) apply(ctx context.Context, orderID string, target models.OrderStatus) error {
	order, err := l.Service.FindByIDInternal(ctx, orderID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		logrus.Errorf("payment event references unknown order %s, acknowledging", orderID)
		return nil
	}
	if err != nil {
		return err
	}

	if order.Status == target {
		logrus.Infof("order %s already %s, duplicate delivery ignored", orderID, target)
		return nil
	}

	if _, err := l.Service.Transition(ctx, orderID, target); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			logrus.Errorf("order %s cannot move %s -> %s, acknowledging: %v",
				orderID, order.Status, target, err)
			return nil
		}
		return err
	}

	logrus.Infof("order %s transitioned to %s", orderID, target)
	return nil
}
