// Package service implements the order orchestrator: order creation, owner-
// scoped queries, the lifecycle transition operation and user cancellation.
// Lifecycle events are published here; the legality of every transition is
// owned by the state machine in the models package.
package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/marcosvcorsi/markethub/internal/apperrors"
	"github.com/marcosvcorsi/markethub/internal/bus"
	"github.com/marcosvcorsi/markethub/internal/events"
	"github.com/marcosvcorsi/markethub/internal/metrics"
	"github.com/marcosvcorsi/markethub/internal/order/models"
)

// OrderRepo defines the persistence operations the orchestrator needs.
type OrderRepo interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, userID string, status models.OrderStatus, page, limit int) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
}

// CreateItem is one requested order line. Product name and unit price are
// the caller-supplied snapshots; the orchestrator does not re-fetch live
// catalog prices, the order captures price-at-order-time.
type CreateItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// OrderService coordinates the order lifecycle.
type OrderService struct {
	Repo      OrderRepo
	Publisher bus.Publisher
}

func NewOrderService(repo OrderRepo, publisher bus.Publisher) *OrderService {
	return &OrderService{
		Repo:      repo,
		Publisher: publisher,
	}
}

// Create validates the requested items, computes the order total from the
// supplied snapshots, persists the order in PENDING and publishes
// order.created with product ids and quantities only.
func (s *OrderService) Create(ctx context.Context, userID string, items []CreateItem) (*models.Order, error) {
	if userID == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "user id is required")
	}
	if len(items) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "order must contain at least one item")
	}

	var total float64
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "item product id is required")
		}
		if item.Quantity < 1 {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "item quantity must be at least 1 for product %s", item.ProductID)
		}
		if item.UnitPrice < 0 {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "item unit price must not be negative for product %s", item.ProductID)
		}

		total += float64(item.Quantity) * item.UnitPrice
		orderItems = append(orderItems, models.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	order := &models.Order{
		UserID:      userID,
		Status:      models.StatusPending,
		TotalAmount: total,
		Items:       orderItems,
	}

	if err := s.Repo.Create(ctx, order); err != nil {
		return nil, err
	}

	payload := events.OrderCreatedPayload{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Items:       eventItems(order.Items),
	}
	if err := s.Publisher.Publish(ctx, events.OrderCreated, payload, ""); err != nil {
		return nil, err
	}

	metrics.OrdersCreatedTotal.Inc()
	metrics.OrderAmounts.Observe(order.TotalAmount)

	return order, nil
}

// FindAll returns one page of the user's own orders, optionally filtered by
// status.
func (s *OrderService) FindAll(ctx context.Context, userID string, status models.OrderStatus, page, limit int) ([]models.Order, int64, error) {
	if status != "" && !status.IsValid() {
		return nil, 0, apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown order status %q", status)
	}
	return s.Repo.List(ctx, userID, status, page, limit)
}

// FindByID returns the order when it exists and belongs to userID.
func (s *OrderService) FindByID(ctx context.Context, id, userID string) (*models.Order, error) {
	order, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrapf(err, "order %q", id)
	}
	if order.UserID != userID {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "you can only view your own orders")
	}
	return order, nil
}

// FindByIDInternal looks up an order without an ownership check. Used by
// event listeners and the internal order directory endpoint.
func (s *OrderService) FindByIDInternal(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrapf(err, "order %q", id)
	}
	return order, nil
}

// Transition moves the order to newStatus when the state machine allows it.
// It publishes nothing; callers decide what, if anything, to publish next.
func (s *OrderService) Transition(ctx context.Context, id string, newStatus models.OrderStatus) (*models.Order, error) {
	if !newStatus.IsValid() {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown order status %q", newStatus)
	}

	order, err := s.FindByIDInternal(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(newStatus) {
		return nil, models.TransitionError(order.Status, newStatus)
	}

	if err := s.Repo.UpdateStatus(ctx, id, newStatus); err != nil {
		return nil, err
	}

	order.Status = newStatus
	return order, nil
}

// Cancel cancels the user's own order. The state machine constrains
// cancellation to PENDING and PAID; on success order.cancelled is published
// with the item list so stock can be restored downstream.
func (s *OrderService) Cancel(ctx context.Context, id, userID string) (*models.Order, error) {
	order, err := s.FindByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(models.StatusCancelled) {
		return nil, apperrors.Wrapf(apperrors.ErrConflict, "cannot cancel order in %q status", order.Status)
	}

	if err := s.Repo.UpdateStatus(ctx, id, models.StatusCancelled); err != nil {
		return nil, err
	}
	order.Status = models.StatusCancelled

	payload := events.OrderCancelledPayload{
		OrderID: order.ID,
		Reason:  "Cancelled by user",
		Items:   eventItems(order.Items),
	}
	if err := s.Publisher.Publish(ctx, events.OrderCancelled, payload, ""); err != nil {
		return nil, err
	}

	return order, nil
}

// Ship transitions a paid order to SHIPPED and publishes order.shipped.
// Invoked by fulfilment tooling through the internal API.
func (s *OrderService) Ship(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.Transition(ctx, id, models.StatusShipped)
	if err != nil {
		return nil, err
	}

	payload := events.OrderShippedPayload{
		OrderID: order.ID,
		UserID:  order.UserID,
	}
	if err := s.Publisher.Publish(ctx, events.OrderShipped, payload, ""); err != nil {
		logrus.Errorf("order %s shipped but event publish failed: %v", order.ID, err)
		return nil, err
	}

	return order, nil
}

func eventItems(items []models.OrderItem) []events.EventItem {
	out := make([]events.EventItem, 0, len(items))
	for _, item := range items {
		out = append(out, events.EventItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return out
}
