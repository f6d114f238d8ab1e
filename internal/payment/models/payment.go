package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentStatus is the payment record lifecycle.
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "PENDING"
	StatusProcessing PaymentStatus = "PROCESSING"
	StatusCompleted  PaymentStatus = "COMPLETED"
	StatusFailed     PaymentStatus = "FAILED"
	StatusRefunded   PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	default:
		return false
	}
}

// Payment is one payment attempt for an order. An order may accumulate
// several rows over retries, but at most one may be PROCESSING or COMPLETED
// at a time; the service enforces that before opening a new checkout.
type Payment struct {
	ID        string        `json:"id" gorm:"primaryKey"`
	OrderID   string        `json:"orderId" gorm:"index;not null"`
	SessionID string        `json:"sessionId,omitempty" gorm:"index"`
	Amount    float64       `json:"amount" gorm:"not null"`
	Status    PaymentStatus `json:"status" gorm:"not null"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	return
}
