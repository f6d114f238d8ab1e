// Package events defines the domain event envelope and the fixed payload
// schemas crossing service boundaries. The envelope is the only wire format
// on the bus; payload schemas are fixed per event type.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event type constants. The event type doubles as the topic routing key.
const (
	OrderCreated        = "order.created"
	OrderCancelled      = "order.cancelled"
	OrderShipped        = "order.shipped"
	PaymentProcessing   = "payment.processing"
	PaymentCompleted    = "payment.completed"
	PaymentFailed       = "payment.failed"
	ProductStockUpdated = "product.stock_updated"
)

// Envelope wraps every message published to the bus.
//
// EventID is generated at publish time and never reused; consumers that need
// stronger-than-natural idempotence track it for deduplication. CorrelationID
// is propagated across every event of one logical business transaction.
type Envelope struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlationId"`
	Payload       json.RawMessage `json:"payload"`
}

// New builds an envelope around payload, generating the event id and, when
// correlationID is empty, a fresh correlation id.
func New(eventType string, payload interface{}, correlationID string) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	return Envelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

// Decode unmarshals the envelope payload into T.
func Decode[T any](e Envelope) (T, error) {
	var payload T
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload: %w", e.EventType, err)
	}
	return payload, nil
}

// EventItem is the item shape carried by order events: product id and
// quantity only, prices and names stripped.
type EventItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderCreatedPayload is the payload of order.created.
type OrderCreatedPayload struct {
	OrderID     string      `json:"orderId"`
	UserID      string      `json:"userId"`
	TotalAmount float64     `json:"totalAmount"`
	Items       []EventItem `json:"items"`
}

// OrderCancelledPayload is the payload of order.cancelled.
type OrderCancelledPayload struct {
	OrderID string      `json:"orderId"`
	Reason  string      `json:"reason"`
	Items   []EventItem `json:"items"`
}

// OrderShippedPayload is the payload of order.shipped.
type OrderShippedPayload struct {
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
}

// PaymentProcessingPayload is the payload of payment.processing. It is
// advisory telemetry for notifications and gates nothing.
type PaymentProcessingPayload struct {
	OrderID string  `json:"orderId"`
	Amount  float64 `json:"amount"`
}

// PaymentCompletedPayload is the payload of payment.completed.
type PaymentCompletedPayload struct {
	OrderID   string  `json:"orderId"`
	PaymentID string  `json:"paymentId"`
	Amount    float64 `json:"amount"`
}

// PaymentFailedPayload is the payload of payment.failed.
type PaymentFailedPayload struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason"`
}

// ProductStockUpdatedPayload is the payload of product.stock_updated.
type ProductStockUpdatedPayload struct {
	ProductID string `json:"productId"`
	Stock     int    `json:"stock"`
}
