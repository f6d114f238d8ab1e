// Package repository persists products and the processed-event ledger. The
// stock counters are mutated with atomic SQL expressions so concurrent
// decrements can never drive stock negative.
package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcosvcorsi/markethub/internal/apperrors"
	"github.com/marcosvcorsi/markethub/internal/catalog/models"
	"github.com/marcosvcorsi/markethub/internal/repository/postgres"
)

// Sort orders accepted by Search.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
)

// SearchQuery filters the active-product listing.
type SearchQuery struct {
	Text     string
	Category string
	MinPrice *float64
	MaxPrice *float64
	SortBy   string
	Page     int
	Limit    int
}

type ProductRepository struct {
	*postgres.Repository[models.Product]
	db *gorm.DB
}

func New(db *gorm.DB) *ProductRepository {
	return &ProductRepository{
		Repository: postgres.New[models.Product](db),
		db:         db,
	}
}

// Search returns the page of active products matching the query together
// with the unpaginated total.
func (r *ProductRepository) Search(ctx context.Context, query SearchQuery) ([]models.Product, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)

	if query.Text != "" {
		pattern := "%" + query.Text + "%"
		tx = tx.Where("name ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if query.Category != "" {
		tx = tx.Where("category = ?", query.Category)
	}
	if query.MinPrice != nil {
		tx = tx.Where("price >= ?", *query.MinPrice)
	}
	if query.MaxPrice != nil {
		tx = tx.Where("price <= ?", *query.MaxPrice)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := tx.Order(orderClause(query.SortBy)).
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func orderClause(sortBy string) string {
	switch sortBy {
	case SortPriceAsc:
		return "price ASC"
	case SortPriceDesc:
		return "price DESC"
	case SortName:
		return "name ASC"
	default:
		return "created_at DESC"
	}
}

// DecrementStock subtracts quantity from the product's stock in a single
// guarded statement. Insufficient stock leaves the row untouched and
// returns a conflict.
func (r *ProductRepository) DecrementStock(ctx context.Context, productID string, quantity int) (*models.Product, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		product, err := r.GetByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.Wrapf(apperrors.ErrConflict,
			"insufficient stock for product %q: available %d, requested %d",
			product.Name, product.Stock, quantity)
	}

	return r.GetByID(ctx, productID)
}

// RestoreStock adds quantity back to the product's stock.
func (r *ProductRepository) RestoreStock(ctx context.Context, productID string, quantity int) (*models.Product, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "product %q", productID)
	}

	return r.GetByID(ctx, productID)
}

// MarkProcessed records the event id, returning false when it was already
// recorded by an earlier delivery.
func (r *ProductRepository) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ProcessedEvent{EventID: eventID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Deactivate soft-deletes the product.
func (r *ProductRepository) Deactivate(ctx context.Context, productID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("is_active", false).Error
}
