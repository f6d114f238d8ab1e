// Package handler exposes the payment service over HTTP. The webhook route
// is unauthenticated; the gateway's signature check is the auth.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marcosvcorsi/markethub/internal/httputil"
	"github.com/marcosvcorsi/markethub/internal/payment/gateway"
	"github.com/marcosvcorsi/markethub/internal/payment/models"
)

type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, params gateway.CheckoutParams) (string, error)
	HandleWebhookEvent(ctx context.Context, event *gateway.WebhookEvent) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
}

type PaymentHandler struct {
	Service PaymentService
	Gateway gateway.Gateway
}

func NewPaymentHandler(s PaymentService, gw gateway.Gateway) *PaymentHandler {
	return &PaymentHandler{Service: s, Gateway: gw}
}

// POST /payments/checkout
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
	var params gateway.CheckoutParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	checkoutURL, err := h.Service.CreateCheckoutSession(c.Request.Context(), params)
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"checkoutUrl": checkoutURL})
}

// POST /payments/webhook
//
// The raw body must survive untouched for signature verification, so the
// handler reads it itself instead of binding.
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read request body"})
		return
	}

	event, err := h.Gateway.VerifyWebhook(rawBody, c.GetHeader("Stripe-Signature"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload"})
		return
	}

	if err := h.Service.HandleWebhookEvent(c.Request.Context(), event); err != nil {
		httputil.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// GET /payments/order/:orderId
func (h *PaymentHandler) GetByOrder(c *gin.Context) {
	payment, err := h.Service.FindByOrderID(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		httputil.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}
