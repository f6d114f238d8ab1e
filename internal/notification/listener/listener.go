// Package listener wires the notification dispatcher to every lifecycle
// event. Notification delivery is best effort, so handlers only fail on
// undecodable payloads; everything downstream is fire-and-forget.
package listener

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/marcosvcorsi/markethub/internal/bus"
	"github.com/marcosvcorsi/markethub/internal/events"
)

// Notifier is the slice of the notification service the listener needs.
type Notifier interface {
	NotifyOrderCreated(ctx context.Context, payload events.OrderCreatedPayload)
	NotifyOrderCancelled(ctx context.Context, payload events.OrderCancelledPayload)
	NotifyOrderShipped(ctx context.Context, payload events.OrderShippedPayload)
	NotifyPaymentProcessing(ctx context.Context, payload events.PaymentProcessingPayload)
	NotifyPaymentCompleted(ctx context.Context, payload events.PaymentCompletedPayload)
	NotifyPaymentFailed(ctx context.Context, payload events.PaymentFailedPayload)
}

// Listener consumes every lifecycle event for the notification dispatcher.
type Listener struct {
	Service Notifier
}

func New(service Notifier) *Listener {
	return &Listener{Service: service}
}

// Registry declares the notification service's subscription table.
func (l *Listener) Registry() *bus.Registry {
	return bus.NewRegistry("notification").
		On(events.OrderCreated, l.HandleOrderCreated).
		On(events.OrderCancelled, l.HandleOrderCancelled).
		On(events.OrderShipped, l.HandleOrderShipped).
		On(events.PaymentProcessing, l.HandlePaymentProcessing).
		On(events.PaymentCompleted, l.HandlePaymentCompleted).
		On(events.PaymentFailed, l.HandlePaymentFailed)
}

func (l *Listener) HandleOrderCreated(ctx context.Context, event events.Envelope) error {
	payload, err := events.Decode[events.OrderCreatedPayload](event)
	if err != nil {
		return err
	}

	logrus.Infof("processing order.created notification for order %s [%s]", payload.OrderID, event.CorrelationID)
	l.Service.NotifyOrderCreated(ctx, payload)
	return nil
}

func (l *Listener) HandleOrderCancelled(ctx context.Context, event events.Envelope) error {
	payload, err := events.Decode[events.OrderCancelledPayload](event)
	if err != nil {
		return err
	}

	logrus.Infof("processing order.cancelled notification for order %s [%s]", payload.OrderID, event.CorrelationID)
	l.Service.NotifyOrderCancelled(ctx, payload)
	return nil
}

func (l *Listener) HandleOrderShipped(ctx context.Context, event events.Envelope) error {
	payload, err := events.Decode[events.OrderShippedPayload](event)
	if err != nil {
		return err
	}

	logrus.Infof("processing order.shipped notification for order %s [%s]", payload.OrderID, event.CorrelationID)
	l.Service.NotifyOrderShipped(ctx, payload)
	return nil
}

func (l *Listener) HandlePaymentProcessing(ctx context.Context, event events.Envelope) error {
	payload, err := events.Decode[events.PaymentProcessingPayload](event)
	if err != nil {
		return err
	}

	logrus.Infof("processing payment.processing notification for order %s [%s]", payload.OrderID, event.CorrelationID)
	l.Service.NotifyPaymentProcessing(ctx, payload)
	return nil
}

func (l *Listener) HandlePaymentCompleted(ctx context.Context, event events.Envelope) error {
	payload, err := events.Decode[events.PaymentCompletedPayload](event)
	if err != nil {
		return err
	}

	logrus.Infof("processing payment.completed notification for order %s [%s]", payload.OrderID, event.CorrelationID)
	l.Service.NotifyPaymentCompleted(ctx, payload)
	return nil
}

func (l *Listener) HandlePaymentFailed(ctx context.Context, event events.Envelope) error {
	payload, err := events.Decode[events.PaymentFailedPayload](event)
	if err != nil {
		return err
	}

	logrus.Infof("processing payment.failed notification for order %s [%s]", payload.OrderID, event.CorrelationID)
	l.Service.NotifyPaymentFailed(ctx, payload)
	return nil
}
