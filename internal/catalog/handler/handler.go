// Package handler exposes the product catalog over HTTP. Listing and single
// product reads are public; writes require the gateway-resolved seller.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/marcosvcorsi/markethub/internal/catalog/models"
	"github.com/marcosvcorsi/markethub/internal/catalog/repository"
	"github.com/marcosvcorsi/markethub/internal/catalog/service"
	"github.com/marcosvcorsi/markethub/internal/httputil"
)

type CatalogService interface {
	Create(ctx context.Context, sellerID string, input service.CreateProduct) (*models.Product, error)
	FindAll(ctx context.Context, query repository.SearchQuery) ([]models.Product, int64, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	Update(ctx context.Context, id, sellerID string, input service.UpdateProduct) (*models.Product, error)
	Remove(ctx context.Context, id, sellerID string) error
}

type CatalogHandler struct {
	Service CatalogService
}

func NewCatalogHandler(s CatalogService) *CatalogHandler {
	return &CatalogHandler{Service: s}
}

// POST /products
func (h *CatalogHandler) Create(c *gin.Context) {
	var input service.CreateProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	product, err := h.Service.Create(c.Request.Context(), httputil.UserID(c), input)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GET /products
func (h *CatalogHandler) List(c *gin.Context) {
	page, limit, err := httputil.ParsePagination(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := repository.SearchQuery{
		Text:     c.Query("q"),
		Category: c.Query("category"),
		SortBy:   c.Query("sortBy"),
		Page:     page,
		Limit:    limit,
	}
	if query.MinPrice, err = parsePrice(c.Query("minPrice")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "minPrice must be a non-negative number"})
		return
	}
	if query.MaxPrice, err = parsePrice(c.Query("maxPrice")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "maxPrice must be a non-negative number"})
		return
	}

	products, total, err := h.Service.FindAll(c.Request.Context(), query)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httputil.NewPaginatedResponse(products, total, page, limit))
}

// GET /products/:id
func (h *CatalogHandler) Get(c *gin.Context) {
	product, err := h.Service.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// PATCH /products/:id
func (h *CatalogHandler) Update(c *gin.Context) {
	var input service.UpdateProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	product, err := h.Service.Update(c.Request.Context(), c.Param("id"), httputil.UserID(c), input)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// DELETE /products/:id
func (h *CatalogHandler) Remove(c *gin.Context) {
	if err := h.Service.Remove(c.Request.Context(), c.Param("id"), httputil.UserID(c)); err != nil {
		httputil.RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parsePrice(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return nil, strconv.ErrSyntax
	}
	return &value, nil
}
