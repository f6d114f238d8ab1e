// Package gateway specifies the external payment-gateway collaborator. The
// real provider integration lives behind Gateway; the service never touches
// provider SDK types directly.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Webhook event types, following the provider's checkout session lifecycle.
const (
	WebhookSessionCompleted = "checkout.session.completed"
	WebhookSessionExpired   = "checkout.session.expired"
)

// CheckoutItem is one order line forwarded to the gateway.
type CheckoutItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// CheckoutParams describe the checkout session to open.
type CheckoutParams struct {
	OrderID    string         `json:"orderId"`
	Amount     float64        `json:"amount"`
	Items      []CheckoutItem `json:"items"`
	SuccessURL string         `json:"successUrl"`
	CancelURL  string         `json:"cancelUrl"`
}

// Session is the opened checkout session.
type Session struct {
	ID          string
	RedirectURL string
}

// WebhookEvent is a verified, parsed gateway webhook.
type WebhookEvent struct {
	Type      string
	SessionID string
}

// Gateway is the payment-gateway collaborator contract.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*Session, error)
	VerifyWebhook(rawBody []byte, signature string) (*WebhookEvent, error)
}

// StubGateway is used in local runs without provider credentials. Sessions
// get generated ids and webhooks are parsed without signature verification.
type StubGateway struct {
	CheckoutBaseURL string
}

func (g *StubGateway) CreateCheckoutSession(_ context.Context, params CheckoutParams) (*Session, error) {
	if params.OrderID == "" {
		return nil, fmt.Errorf("order id is required")
	}
	id := "cs_" + uuid.New().String()
	base := g.CheckoutBaseURL
	if base == "" {
		base = "https://checkout.local"
	}
	return &Session{
		ID:          id,
		RedirectURL: fmt.Sprintf("%s/pay/%s", base, id),
	}, nil
}

// VerifyWebhook parses the provider's event shape without verifying the
// signature. The production gateway implementation must verify it.
func (g *StubGateway) VerifyWebhook(rawBody []byte, _ string) (*WebhookEvent, error) {
	var raw struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID string `json:"id"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &raw); err != nil {
		return nil, fmt.Errorf("parse webhook body: %w", err)
	}
	return &WebhookEvent{Type: raw.Type, SessionID: raw.Data.Object.ID}, nil
}
