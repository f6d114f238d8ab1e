// Package service implements the payment coordinator. It opens checkout
// sessions against the external gateway, consumes the gateway's webhooks as
// the source of truth for completion, and publishes payment outcomes.
package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/marcosvcorsi/markethub/internal/apperrors"
	"github.com/marcosvcorsi/markethub/internal/bus"
	"github.com/marcosvcorsi/markethub/internal/events"
	ordermodels "github.com/marcosvcorsi/markethub/internal/order/models"
	"github.com/marcosvcorsi/markethub/internal/orderclient"
	"github.com/marcosvcorsi/markethub/internal/payment/gateway"
	"github.com/marcosvcorsi/markethub/internal/payment/models"
)

// PaymentRepo defines the persistence operations the coordinator needs.
type PaymentRepo interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindActiveByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	FindBySessionID(ctx context.Context, sessionID string) (*models.Payment, error)
	FindLatestByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, id string, status models.PaymentStatus) error
}

// PaymentService coordinates payment attempts for orders.
type PaymentService struct {
	Repo      PaymentRepo
	Gateway   gateway.Gateway
	Orders    orderclient.Transitioner
	Publisher bus.Publisher
}

func NewPaymentService(repo PaymentRepo, gw gateway.Gateway, orders orderclient.Transitioner, publisher bus.Publisher) *PaymentService {
	return &PaymentService{
		Repo:      repo,
		Gateway:   gw,
		Orders:    orders,
		Publisher: publisher,
	}
}

// CreateCheckoutSession opens a gateway checkout for the order and persists
// a PROCESSING payment holding the session id. A second checkout for an
// order already mid-flight or paid is rejected with a conflict.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, params gateway.CheckoutParams) (string, error) {
	if params.OrderID == "" {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "order id is required")
	}
	if params.Amount <= 0 {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	existing, err := s.Repo.FindActiveByOrderID(ctx, params.OrderID)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return "", err
	}
	if existing != nil {
		return "", apperrors.Wrapf(apperrors.ErrConflict, "payment already exists for order %q", params.OrderID)
	}

	session, err := s.Gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		return "", apperrors.Wrapf(apperrors.ErrUpstream, "create checkout session for order %s: %v", params.OrderID, err)
	}

	payment := &models.Payment{
		OrderID:   params.OrderID,
		SessionID: session.ID,
		Amount:    params.Amount,
		Status:    models.StatusProcessing,
	}
	if err := s.Repo.Create(ctx, payment); err != nil {
		return "", err
	}

	// The order follows the payment into processing. The checkout is already
	// committed at this point, so a transition conflict (the order was
	// cancelled meanwhile) is logged rather than surfaced to the caller; the
	// webhook outcome will be rejected by the order's state machine.
	if err := s.Orders.TransitionOrder(ctx, params.OrderID, ordermodels.StatusPaymentProcessing); err != nil {
		logrus.Warnf("order %s could not enter payment processing: %v", params.OrderID, err)
	}

	return session.RedirectURL, nil
}

// HandleWebhookEvent applies a verified gateway webhook. Webhooks for
// unknown or foreign sessions are logged and ignored so the endpoint still
// acknowledges them.
func (s *PaymentService) HandleWebhookEvent(ctx context.Context, event *gateway.WebhookEvent) error {
	switch event.Type {
	case gateway.WebhookSessionCompleted:
		return s.completeSession(ctx, event.SessionID)
	case gateway.WebhookSessionExpired:
		return s.expireSession(ctx, event.SessionID)
	default:
		logrus.Infof("ignoring webhook event type %s", event.Type)
		return nil
	}
}

func (s *PaymentService) completeSession(ctx context.Context, sessionID string) error {
	payment, err := s.Repo.FindBySessionID(ctx, sessionID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		logrus.Warnf("no payment found for gateway session %s", sessionID)
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.Repo.UpdateStatus(ctx, payment.ID, models.StatusCompleted); err != nil {
		return err
	}

	payload := events.PaymentCompletedPayload{
		OrderID:   payment.OrderID,
		PaymentID: payment.ID,
		Amount:    payment.Amount,
	}
	if err := s.Publisher.Publish(ctx, events.PaymentCompleted, payload, ""); err != nil {
		return err
	}

	logrus.Infof("payment %s completed for order %s", payment.ID, payment.OrderID)
	return nil
}

func (s *PaymentService) expireSession(ctx context.Context, sessionID string) error {
	payment, err := s.Repo.FindBySessionID(ctx, sessionID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		logrus.Warnf("no payment found for gateway session %s", sessionID)
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.Repo.UpdateStatus(ctx, payment.ID, models.StatusFailed); err != nil {
		return err
	}

	payload := events.PaymentFailedPayload{
		OrderID: payment.OrderID,
		Reason:  "Checkout session expired",
	}
	if err := s.Publisher.Publish(ctx, events.PaymentFailed, payload, ""); err != nil {
		return err
	}

	logrus.Infof("payment %s failed for order %s", payment.ID, payment.OrderID)
	return nil
}

// FindByOrderID returns the most recent payment for the order.
func (s *PaymentService) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	payment, err := s.Repo.FindLatestByOrderID(ctx, orderID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "payment for order %q", orderID)
	}
	return payment, nil
}

// OpenPayment records a PENDING payment sized to the order total when
// order.created arrives, then publishes payment.processing as advisory
// telemetry. A replayed order.created finds the existing row and does
// nothing.
func (s *PaymentService) OpenPayment(ctx context.Context, orderID string, amount float64, correlationID string) error {
	_, err := s.Repo.FindLatestByOrderID(ctx, orderID)
	if err == nil {
		logrus.Infof("payment for order %s already open, duplicate order.created ignored", orderID)
		return nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	payment := &models.Payment{
		OrderID: orderID,
		Amount:  amount,
		Status:  models.StatusPending,
	}
	if err := s.Repo.Create(ctx, payment); err != nil {
		return err
	}

	payload := events.PaymentProcessingPayload{
		OrderID: orderID,
		Amount:  amount,
	}
	return s.Publisher.Publish(ctx, events.PaymentProcessing, payload, correlationID)
}
