// Package handler exposes the order service over HTTP. User-facing routes
// are ownership-checked through the gateway-resolved principal; internal
// routes serve system callers (fulfilment, the order directory).
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marcosvcorsi/markethub/internal/apperrors"
	"github.com/marcosvcorsi/markethub/internal/httputil"
	"github.com/marcosvcorsi/markethub/internal/order/models"
	"github.com/marcosvcorsi/markethub/internal/order/service"
)

type OrderService interface {
	Create(ctx context.Context, userID string, items []service.CreateItem) (*models.Order, error)
	FindAll(ctx context.Context, userID string, status models.OrderStatus, page, limit int) ([]models.Order, int64, error)
	FindByID(ctx context.Context, id, userID string) (*models.Order, error)
	FindByIDInternal(ctx context.Context, id string) (*models.Order, error)
	Transition(ctx context.Context, id string, newStatus models.OrderStatus) (*models.Order, error)
	Cancel(ctx context.Context, id, userID string) (*models.Order, error)
	Ship(ctx context.Context, id string) (*models.Order, error)
}

type OrderHandler struct {
	Service OrderService
}

func NewOrderHandler(s OrderService) *OrderHandler {
	return &OrderHandler{Service: s}
}

type createOrderRequest struct {
	Items []service.CreateItem `json:"items"`
}

// POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.Service.Create(c.Request.Context(), httputil.UserID(c), req.Items)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	page, limit, err := httputil.ParsePagination(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := models.OrderStatus(c.Query("status"))
	orders, total, err := h.Service.FindAll(c.Request.Context(), httputil.UserID(c), status, page, limit)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httputil.NewPaginatedResponse(orders, total, page, limit))
}

// GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.Service.FindByID(c.Request.Context(), c.Param("id"), httputil.UserID(c))
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	order, err := h.Service.Cancel(c.Request.Context(), c.Param("id"), httputil.UserID(c))
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

type transitionRequest struct {
	Status models.OrderStatus `json:"status"`
}

// POST /internal/orders/:id/transition
func (h *OrderHandler) Transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.Service.Transition(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// POST /internal/orders/:id/ship
func (h *OrderHandler) Ship(c *gin.Context) {
	order, err := h.Service.Ship(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// GET /internal/orders/:id
//
// Order directory lookup used by the catalog and notification services to
// resolve an order's owner, status and items from an orderId-only payload.
func (h *OrderHandler) GetInternal(c *gin.Context) {
	order, err := h.Service.FindByIDInternal(c.Request.Context(), c.Param("id"))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		httputil.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}
