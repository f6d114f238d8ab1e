package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog entry with a stock counter. Stock never goes below
// zero; a decrement that would violate this fails whole. Products are soft
// deleted (IsActive=false) so historical orders keep resolving.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	SellerID    string    `json:"sellerId" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description" gorm:"not null"`
	Price       float64   `json:"price" gorm:"not null"`
	Stock       int       `json:"stock" gorm:"not null"`
	Category    string    `json:"category" gorm:"index;not null"`
	Images      []string  `json:"images" gorm:"serializer:json"`
	IsActive    bool      `json:"isActive" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}

// ProcessedEvent records an event id the catalog has already applied.
// The primary key makes replayed deliveries visible as conflicts.
type ProcessedEvent struct {
	EventID     string    `gorm:"primaryKey"`
	ProcessedAt time.Time `gorm:"autoCreateTime"`
}
