package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order is the aggregate root of the order service. Orders are created in
// PENDING, mutated only through status transitions, and never deleted;
// terminal states are retained for history.
type Order struct {
	ID          string      `json:"id" gorm:"primaryKey"`
	UserID      string      `json:"userId" gorm:"index;not null"`
	Status      OrderStatus `json:"status" gorm:"not null"`
	TotalAmount float64     `json:"totalAmount" gorm:"not null"`
	Items       []OrderItem `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// OrderItem is a line of an order. Product name and unit price are snapshots
// taken at order time and never reflect later catalog changes. Items are
// owned by their order and never persisted independently.
type OrderItem struct {
	ID          string  `json:"id" gorm:"primaryKey"`
	OrderID     string  `json:"-" gorm:"index;not null"`
	ProductID   string  `json:"productId" gorm:"not null"`
	ProductName string  `json:"productName" gorm:"not null"`
	Quantity    int     `json:"quantity" gorm:"not null"`
	UnitPrice   float64 `json:"unitPrice" gorm:"not null"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	return
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return
}
