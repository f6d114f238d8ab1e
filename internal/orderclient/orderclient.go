// Package orderclient resolves orders through the order service's internal
// directory endpoint. Payment events carry only an orderId; the catalog and
// notification services use this collaborator to recover the owner, current
// status and item list instead of guessing.
package orderclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/marcosvcorsi/markethub/internal/apperrors"
	"github.com/marcosvcorsi/markethub/internal/order/models"
)

// Directory looks up orders by id.
type Directory interface {
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
}

// Transitioner drives an order through its state machine from another
// service, via the order service's internal transition endpoint.
type Transitioner interface {
	TransitionOrder(ctx context.Context, orderID string, status models.OrderStatus) error
}

// HTTPDirectory is the production Directory talking to the order service.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDirectory creates a directory client against the order service
// base URL (e.g. http://order:8080).
func NewHTTPDirectory(baseURL string, timeout time.Duration) *HTTPDirectory {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &HTTPDirectory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (d *HTTPDirectory) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	url := fmt.Sprintf("%s/internal/orders/%s", d.baseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrUpstream, "order directory lookup for %s: %v", orderID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "order %q", orderID)
	default:
		return nil, apperrors.Wrapf(apperrors.ErrUpstream, "order directory returned status %d for %s", resp.StatusCode, orderID)
	}

	var order models.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrUpstream, "decode order directory response for %s: %v", orderID, err)
	}
	return &order, nil
}

func (d *HTTPDirectory) TransitionOrder(ctx context.Context, orderID string, status models.OrderStatus) error {
	body, err := json.Marshal(map[string]models.OrderStatus{"status": status})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/internal/orders/%s/transition", d.baseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrUpstream, "order transition for %s: %v", orderID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return apperrors.Wrapf(apperrors.ErrNotFound, "order %q", orderID)
	case http.StatusConflict:
		return apperrors.Wrapf(apperrors.ErrConflict, "order %s cannot move to %s", orderID, status)
	default:
		return apperrors.Wrapf(apperrors.ErrUpstream, "order transition returned status %d for %s", resp.StatusCode, orderID)
	}
}

// MemoryDirectory is an in-process Directory used by tests and the local
// single-binary run, backed directly by the order service.
type MemoryDirectory struct {
	Lookup     func(ctx context.Context, orderID string) (*models.Order, error)
	Transition func(ctx context.Context, orderID string, status models.OrderStatus) error
}

func (d *MemoryDirectory) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return d.Lookup(ctx, orderID)
}

func (d *MemoryDirectory) TransitionOrder(ctx context.Context, orderID string, status models.OrderStatus) error {
	return d.Transition(ctx, orderID, status)
}
