// Package mocks contains testify mocks for the order service collaborators.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/marcosvcorsi/markethub/internal/order/models"
)

type OrderRepo struct {
	mock.Mock
}

func (m *OrderRepo) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *OrderRepo) GetByID(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *OrderRepo) List(ctx context.Context, userID string, status models.OrderStatus, page, limit int) ([]models.Order, int64, error) {
	args := m.Called(ctx, userID, status, page, limit)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Order), args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepo) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
