// Package postgres provides a generic GORM-based repository used by the
// services for plain CRUD. Stock counters need atomic SQL expressions and
// live in the catalog's own repository instead.
package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/marcosvcorsi/markethub/internal/apperrors"
)

// Repository provides standard CRUD operations for entity type T.
type Repository[T any] struct {
	db *gorm.DB
}

// New creates a repository for type T on the given GORM connection.
func New[T any](db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

// Create inserts a new entity.
func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

// GetByID retrieves a single entity by primary key. Returns
// apperrors.ErrNotFound when no row matches.
func (r *Repository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	var entity T
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// FirstWhere retrieves the first entity matching the conditions, ordered by
// the given clause. Returns apperrors.ErrNotFound when nothing matches.
func (r *Repository[T]) FirstWhere(ctx context.Context, order string, query interface{}, args ...interface{}) (*T, error) {
	var entity T
	tx := r.db.WithContext(ctx).Where(query, args...)
	if order != "" {
		tx = tx.Order(order)
	}
	err := tx.First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// ListWhere returns the page of entities matching the conditions together
// with the unpaginated total, newest first.
func (r *Repository[T]) ListWhere(ctx context.Context, page, limit int, query interface{}, args ...interface{}) ([]T, int64, error) {
	var model T
	var total int64
	if err := r.db.WithContext(ctx).Model(&model).Where(query, args...).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entities []T
	err := r.db.WithContext(ctx).
		Where(query, args...).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}

// Update applies the non-zero fields of entity to the row with the given id.
func (r *Repository[T]) Update(ctx context.Context, entity *T, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Updates(entity).Error
}

// Save persists every field of the entity.
func (r *Repository[T]) Save(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Save(entity).Error
}
