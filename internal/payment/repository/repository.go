// Package repository persists payment records, building the payment-specific
// queries on the shared generic repository.
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/marcosvcorsi/markethub/internal/payment/models"
	"github.com/marcosvcorsi/markethub/internal/repository/postgres"
)

type PaymentRepository struct {
	*postgres.Repository[models.Payment]
	db *gorm.DB
}

func New(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{
		Repository: postgres.New[models.Payment](db),
		db:         db,
	}
}

// FindActiveByOrderID returns the payment currently mid-flight or completed
// for the order, apperrors.ErrNotFound when there is none.
func (r *PaymentRepository) FindActiveByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	return r.FirstWhere(ctx, "", "order_id = ? AND status IN ?", orderID,
		[]models.PaymentStatus{models.StatusProcessing, models.StatusCompleted})
}

// FindBySessionID returns the payment holding the gateway session id.
func (r *PaymentRepository) FindBySessionID(ctx context.Context, sessionID string) (*models.Payment, error) {
	return r.FirstWhere(ctx, "", "session_id = ?", sessionID)
}

// FindLatestByOrderID returns the most recent payment for the order.
func (r *PaymentRepository) FindLatestByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	return r.FirstWhere(ctx, "created_at DESC", "order_id = ?", orderID)
}

// UpdateStatus persists a new status for the payment.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Update("status", status).Error
}
