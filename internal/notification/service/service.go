// Package service formats lifecycle events into user notifications and
// routes them to the push collaborator. Payment events carry only an
// orderId; the owner is resolved through the order directory rather than
// guessed or blanked.
package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/marcosvcorsi/markethub/internal/events"
	"github.com/marcosvcorsi/markethub/internal/notification/email"
	"github.com/marcosvcorsi/markethub/internal/notification/hub"
	"github.com/marcosvcorsi/markethub/internal/orderclient"
)

// Stream event names pushed to user channels.
const (
	StreamOrderCreated      = "order:created"
	StreamOrderCancelled    = "order:cancelled"
	StreamOrderShipped      = "order:shipped"
	StreamPaymentProcessing = "payment:processing"
	StreamPaymentCompleted  = "payment:completed"
	StreamPaymentFailed     = "payment:failed"
)

// NotificationService fans lifecycle events out to users.
type NotificationService struct {
	Hub    hub.Pusher
	Email  email.Sender
	Orders orderclient.Directory
}

func NewNotificationService(pusher hub.Pusher, sender email.Sender, orders orderclient.Directory) *NotificationService {
	return &NotificationService{
		Hub:    pusher,
		Email:  sender,
		Orders: orders,
	}
}

// NotifyOrderCreated pushes the creation confirmation and sends the order
// confirmation email. The email address book is owned by the account
// system; the user id is the routing key the provider adapter resolves.
func (s *NotificationService) NotifyOrderCreated(ctx context.Context, payload events.OrderCreatedPayload) {
	s.Hub.PushToUser(payload.UserID, StreamOrderCreated, map[string]interface{}{
		"orderId":     payload.OrderID,
		"totalAmount": payload.TotalAmount,
		"message":     fmt.Sprintf("Your order %s has been created.", payload.OrderID),
	})

	err := s.Email.Send(ctx, email.Options{
		To:      payload.UserID,
		Subject: "Your MarketHub order has been placed",
		Body:    fmt.Sprintf("Order %s was placed for a total of %.2f.", payload.OrderID, payload.TotalAmount),
	})
	if err != nil {
		logrus.Errorf("order confirmation email for %s failed: %v", payload.OrderID, err)
	}

	logrus.Infof("notified user %s about order %s created", payload.UserID, payload.OrderID)
}

// NotifyOrderCancelled resolves the owner and pushes the cancellation notice.
func (s *NotificationService) NotifyOrderCancelled(ctx context.Context, payload events.OrderCancelledPayload) {
	userID, ok := s.resolveOwner(ctx, payload.OrderID)
	if !ok {
		return
	}

	s.Hub.PushToUser(userID, StreamOrderCancelled, map[string]interface{}{
		"orderId": payload.OrderID,
		"reason":  payload.Reason,
		"message": fmt.Sprintf("Your order %s has been cancelled: %s", payload.OrderID, payload.Reason),
	})

	logrus.Infof("notified user %s about order %s cancelled", userID, payload.OrderID)
}

// NotifyOrderShipped pushes the shipping notice.
func (s *NotificationService) NotifyOrderShipped(ctx context.Context, payload events.OrderShippedPayload) {
	s.Hub.PushToUser(payload.UserID, StreamOrderShipped, map[string]interface{}{
		"orderId": payload.OrderID,
		"message": fmt.Sprintf("Your order %s has been shipped!", payload.OrderID),
	})

	logrus.Infof("notified user %s about order %s shipped", payload.UserID, payload.OrderID)
}

// NotifyPaymentProcessing resolves the owner and pushes the progress notice.
func (s *NotificationService) NotifyPaymentProcessing(ctx context.Context, payload events.PaymentProcessingPayload) {
	userID, ok := s.resolveOwner(ctx, payload.OrderID)
	if !ok {
		return
	}

	s.Hub.PushToUser(userID, StreamPaymentProcessing, map[string]interface{}{
		"orderId": payload.OrderID,
		"amount":  payload.Amount,
		"message": fmt.Sprintf("Payment for order %s is being processed.", payload.OrderID),
	})

	logrus.Infof("notified user %s about payment processing for order %s", userID, payload.OrderID)
}

// NotifyPaymentCompleted resolves the owner and pushes the confirmation.
func (s *NotificationService) NotifyPaymentCompleted(ctx context.Context, payload events.PaymentCompletedPayload) {
	userID, ok := s.resolveOwner(ctx, payload.OrderID)
	if !ok {
		return
	}

	s.Hub.PushToUser(userID, StreamPaymentCompleted, map[string]interface{}{
		"orderId":   payload.OrderID,
		"paymentId": payload.PaymentID,
		"message":   fmt.Sprintf("Payment for order %s has been completed.", payload.OrderID),
	})

	logrus.Infof("notified user %s about payment completed for order %s", userID, payload.OrderID)
}

// NotifyPaymentFailed resolves the owner and pushes the failure notice.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, payload events.PaymentFailedPayload) {
	userID, ok := s.resolveOwner(ctx, payload.OrderID)
	if !ok {
		return
	}

	s.Hub.PushToUser(userID, StreamPaymentFailed, map[string]interface{}{
		"orderId": payload.OrderID,
		"reason":  payload.Reason,
		"message": fmt.Sprintf("Payment for order %s has failed: %s", payload.OrderID, payload.Reason),
	})

	logrus.Infof("notified user %s about payment failed for order %s", userID, payload.OrderID)
}

// A notification with no resolvable owner is dropped, never sent blank.
func (s *NotificationService) resolveOwner(ctx context.Context, orderID string) (string, bool) {
	order, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		logrus.Errorf("cannot resolve owner of order %s, dropping notification: %v", orderID, err)
		return "", false
	}
	return order.UserID, true
}
