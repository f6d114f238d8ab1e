// Package mocks contains testify mocks for the payment service collaborators.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/marcosvcorsi/markethub/internal/payment/gateway"
	"github.com/marcosvcorsi/markethub/internal/payment/models"
)

type PaymentRepo struct {
	mock.Mock
}

func (m *PaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *PaymentRepo) FindActiveByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *PaymentRepo) FindBySessionID(ctx context.Context, sessionID string) (*models.Payment, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *PaymentRepo) FindLatestByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *PaymentRepo) UpdateStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type Gateway struct {
	mock.Mock
}

func (m *Gateway) CreateCheckoutSession(ctx context.Context, params gateway.CheckoutParams) (*gateway.Session, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Session), args.Error(1)
}

func (m *Gateway) VerifyWebhook(rawBody []byte, signature string) (*gateway.WebhookEvent, error) {
	args := m.Called(rawBody, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.WebhookEvent), args.Error(1)
}
