// Package service implements the product catalog and its stock ledger.
// Stock mutations publish product.stock_updated so storefront caches can
// follow along; the legality of every mutation (non-negative stock, seller
// ownership) is enforced here.
package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/marcosvcorsi/markethub/internal/apperrors"
	"github.com/marcosvcorsi/markethub/internal/bus"
	"github.com/marcosvcorsi/markethub/internal/catalog/models"
	"github.com/marcosvcorsi/markethub/internal/catalog/repository"
	"github.com/marcosvcorsi/markethub/internal/events"
)

// ProductRepo defines the persistence operations the catalog needs.
type ProductRepo interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Search(ctx context.Context, query repository.SearchQuery) ([]models.Product, int64, error)
	Update(ctx context.Context, product *models.Product, id string) error
	Deactivate(ctx context.Context, productID string) error
	DecrementStock(ctx context.Context, productID string, quantity int) (*models.Product, error)
	RestoreStock(ctx context.Context, productID string, quantity int) (*models.Product, error)
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
}

// CreateProduct is the catalog entry a seller submits.
type CreateProduct struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
}

// UpdateProduct carries the fields a seller may change. Nil means keep.
type UpdateProduct struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Stock       *int      `json:"stock"`
	Category    *string   `json:"category"`
	Images      *[]string `json:"images"`
}

// ItemResult is the outcome of one line in a batch stock mutation.
type ItemResult struct {
	ProductID string
	Quantity  int
	Err       error
}

// CatalogService owns products and their stock counters.
type CatalogService struct {
	Repo      ProductRepo
	Publisher bus.Publisher
}

func NewCatalogService(repo ProductRepo, publisher bus.Publisher) *CatalogService {
	return &CatalogService{
		Repo:      repo,
		Publisher: publisher,
	}
}

// Create validates and persists a new product for the seller.
func (s *CatalogService) Create(ctx context.Context, sellerID string, input CreateProduct) (*models.Product, error) {
	if sellerID == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "seller id is required")
	}
	if input.Name == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "product name is required")
	}
	if input.Description == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "product description is required")
	}
	if input.Category == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "product category is required")
	}
	if input.Price < 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "product price must not be negative")
	}
	if input.Stock < 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "product stock must not be negative")
	}

	product := &models.Product{
		SellerID:    sellerID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Category:    input.Category,
		Images:      input.Images,
		IsActive:    true,
	}
	if err := s.Repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// FindAll returns one page of active products matching the query.
func (s *CatalogService) FindAll(ctx context.Context, query repository.SearchQuery) ([]models.Product, int64, error) {
	switch query.SortBy {
	case "", repository.SortNewest, repository.SortPriceAsc, repository.SortPriceDesc, repository.SortName:
	default:
		return nil, 0, apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown sort order %q", query.SortBy)
	}
	return s.Repo.Search(ctx, query)
}

// FindByID returns the product.
func (s *CatalogService) FindByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrapf(err, "product %q", id)
	}
	return product, nil
}

// Update applies the seller's changes to their own product.
func (s *CatalogService) Update(ctx context.Context, id, sellerID string, input UpdateProduct) (*models.Product, error) {
	product, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.SellerID != sellerID {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "you can only update your own products")
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "product price must not be negative")
		}
		product.Price = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "product stock must not be negative")
		}
		product.Stock = *input.Stock
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Images != nil {
		product.Images = *input.Images
	}

	if err := s.Repo.Update(ctx, product, id); err != nil {
		return nil, err
	}
	return product, nil
}

// Remove soft-deletes the seller's own product. The row stays so existing
// orders keep resolving the product.
func (s *CatalogService) Remove(ctx context.Context, id, sellerID string) error {
	product, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if product.SellerID != sellerID {
		return apperrors.Wrap(apperrors.ErrForbidden, "you can only delete your own products")
	}
	return s.Repo.Deactivate(ctx, id)
}

// DecrementStock atomically subtracts quantity; insufficient stock is a
// conflict and leaves the counter untouched.
func (s *CatalogService) DecrementStock(ctx context.Context, productID string, quantity int) (*models.Product, error) {
	if quantity < 1 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "quantity must be at least 1")
	}

	product, err := s.Repo.DecrementStock(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}
	s.publishStockUpdated(ctx, product)
	return product, nil
}

// RestoreStock atomically adds quantity back.
func (s *CatalogService) RestoreStock(ctx context.Context, productID string, quantity int) (*models.Product, error) {
	if quantity < 1 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "quantity must be at least 1")
	}

	product, err := s.Repo.RestoreStock(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}
	s.publishStockUpdated(ctx, product)
	return product, nil
}

// DecrementBatch applies each line independently and reports the outcome per
// item; one line's failure never blocks or rolls back the others.
func (s *CatalogService) DecrementBatch(ctx context.Context, items []events.EventItem) []ItemResult {
	results := make([]ItemResult, 0, len(items))
	for _, item := range items {
		_, err := s.DecrementStock(ctx, item.ProductID, item.Quantity)
		results = append(results, ItemResult{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Err:       err,
		})
	}
	return results
}

// RestoreBatch is the cancellation counterpart of DecrementBatch.
func (s *CatalogService) RestoreBatch(ctx context.Context, items []events.EventItem) []ItemResult {
	results := make([]ItemResult, 0, len(items))
	for _, item := range items {
		_, err := s.RestoreStock(ctx, item.ProductID, item.Quantity)
		results = append(results, ItemResult{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Err:       err,
		})
	}
	return results
}

// MarkProcessed records the event id, returning false for a replay.
func (s *CatalogService) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	return s.Repo.MarkProcessed(ctx, eventID)
}

// stock_updated is advisory; a publish failure must not fail the mutation
// that already committed.
func (s *CatalogService) publishStockUpdated(ctx context.Context, product *models.Product) {
	payload := events.ProductStockUpdatedPayload{
		ProductID: product.ID,
		Stock:     product.Stock,
	}
	if err := s.Publisher.Publish(ctx, events.ProductStockUpdated, payload, ""); err != nil {
		logrus.Errorf("publish product.stock_updated for %s: %v", product.ID, err)
	}
}
