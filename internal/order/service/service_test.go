package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marcosvcorsi/markethub/internal/apperrors"
	"github.com/marcosvcorsi/markethub/internal/bus"
	"github.com/marcosvcorsi/markethub/internal/events"
	"github.com/marcosvcorsi/markethub/internal/order/models"
	"github.com/marcosvcorsi/markethub/internal/order/service"
	"github.com/marcosvcorsi/markethub/internal/order/service/mocks"
)

func newService(t *testing.T) (*service.OrderService, *mocks.OrderRepo, *bus.MemoryBus) {
	t.Helper()
	repo := &mocks.OrderRepo{}
	memBus := bus.NewMemoryBus(1)
	return service.NewOrderService(repo, memBus), repo, memBus
}

func TestCreate_ComputesTotalAndPublishes(t *testing.T) {
	svc, repo, memBus := newService(t)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*models.Order")).Return(nil).Once()

	order, err := svc.Create(ctx, "user-1", []service.CreateItem{
		{ProductID: "prod-1", ProductName: "Widget", Quantity: 2, UnitPrice: 99.99},
	})

	require.NoError(t, err)
	assert.InDelta(t, 199.98, order.TotalAmount, 1e-9)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Len(t, order.Items, 1)

	published := memBus.PublishedOf(events.OrderCreated)
	require.Len(t, published, 1)

	payload, err := events.Decode[events.OrderCreatedPayload](published[0])
	require.NoError(t, err)
	assert.Equal(t, "user-1", payload.UserID)
	assert.InDelta(t, 199.98, payload.TotalAmount, 1e-9)
	// Payload items carry product id and quantity only.
	assert.Equal(t, []events.EventItem{{ProductID: "prod-1", Quantity: 2}}, payload.Items)

	assert.NotEmpty(t, published[0].EventID)
	assert.NotEmpty(t, published[0].CorrelationID)
	repo.AssertExpectations(t)
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	svc, repo, memBus := newService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		items []service.CreateItem
	}{
		{"empty items", nil},
		{"zero quantity", []service.CreateItem{{ProductID: "p", Quantity: 0, UnitPrice: 1}}},
		{"negative price", []service.CreateItem{{ProductID: "p", Quantity: 1, UnitPrice: -0.01}}},
		{"missing product id", []service.CreateItem{{Quantity: 1, UnitPrice: 1}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "user-1", tc.items)
			assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
		})
	}

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, memBus.Published())
}

func TestCreate_RepoErrorPublishesNothing(t *testing.T) {
	svc, repo, memBus := newService(t)
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(errors.New("database error")).Once()

	_, err := svc.Create(ctx, "user-1", []service.CreateItem{
		{ProductID: "prod-1", Quantity: 1, UnitPrice: 10},
	})

	assert.Error(t, err)
	assert.Empty(t, memBus.Published())
}

func TestFindByID_OwnershipChecked(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	repo.On("GetByID", ctx, "order-1").
		Return(&models.Order{ID: "order-1", UserID: "owner"}, nil)

	_, err := svc.FindByID(ctx, "order-1", "someone-else")
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	order, err := svc.FindByID(ctx, "order-1", "owner")
	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
}

func TestFindByID_NotFound(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	repo.On("GetByID", ctx, "missing").Return(nil, apperrors.ErrNotFound)

	_, err := svc.FindByID(ctx, "missing", "user-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestTransition_TableDrivenLegality(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		from    models.OrderStatus
		to      models.OrderStatus
		allowed bool
	}{
		{models.StatusPending, models.StatusPaymentProcessing, true},
		{models.StatusPaymentProcessing, models.StatusPaid, true},
		{models.StatusPaymentProcessing, models.StatusFailed, true},
		{models.StatusFailed, models.StatusPending, true},
		{models.StatusPaid, models.StatusShipped, true},
		{models.StatusShipped, models.StatusDelivered, true},
		{models.StatusPending, models.StatusPaid, false},
		{models.StatusDelivered, models.StatusPending, false},
		{models.StatusCancelled, models.StatusPending, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			svc, repo, _ := newService(t)
			repo.On("GetByID", ctx, "order-1").
				Return(&models.Order{ID: "order-1", UserID: "u", Status: tc.from}, nil)

			if tc.allowed {
				repo.On("UpdateStatus", ctx, "order-1", tc.to).Return(nil).Once()
				order, err := svc.Transition(ctx, "order-1", tc.to)
				require.NoError(t, err)
				assert.Equal(t, tc.to, order.Status)
			} else {
				_, err := svc.Transition(ctx, "order-1", tc.to)
				assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
				repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestTransition_UnknownStatusRejected(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Transition(context.Background(), "order-1", "WAREHOUSE")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
}

func TestCancel_FromPendingAndPaid(t *testing.T) {
	ctx := context.Background()

	for _, from := range []models.OrderStatus{models.StatusPending, models.StatusPaid} {
		t.Run(string(from), func(t *testing.T) {
			svc, repo, memBus := newService(t)
			repo.On("GetByID", ctx, "order-1").Return(&models.Order{
				ID:     "order-1",
				UserID: "user-1",
				Status: from,
				Items: []models.OrderItem{
					{ProductID: "prod-1", Quantity: 3, UnitPrice: 5},
				},
			}, nil)
			repo.On("UpdateStatus", ctx, "order-1", models.StatusCancelled).Return(nil).Once()

			order, err := svc.Cancel(ctx, "order-1", "user-1")

			require.NoError(t, err)
			assert.Equal(t, models.StatusCancelled, order.Status)

			published := memBus.PublishedOf(events.OrderCancelled)
			require.Len(t, published, 1)
			payload, err := events.Decode[events.OrderCancelledPayload](published[0])
			require.NoError(t, err)
			assert.Equal(t, "Cancelled by user", payload.Reason)
			assert.Equal(t, []events.EventItem{{ProductID: "prod-1", Quantity: 3}}, payload.Items)
		})
	}
}

func TestCancel_RejectedStates(t *testing.T) {
	ctx := context.Background()

	for _, from := range []models.OrderStatus{
		models.StatusShipped, models.StatusDelivered, models.StatusFailed, models.StatusPaymentProcessing,
	} {
		t.Run(string(from), func(t *testing.T) {
			svc, repo, memBus := newService(t)
			repo.On("GetByID", ctx, "order-1").
				Return(&models.Order{ID: "order-1", UserID: "user-1", Status: from}, nil)

			_, err := svc.Cancel(ctx, "order-1", "user-1")

			assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
			repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
			assert.Empty(t, memBus.Published())
		})
	}
}

func TestCancel_OwnershipChecked(t *testing.T) {
	svc, repo, memBus := newService(t)
	ctx := context.Background()

	repo.On("GetByID", ctx, "order-1").
		Return(&models.Order{ID: "order-1", UserID: "owner", Status: models.StatusPending}, nil)

	_, err := svc.Cancel(ctx, "order-1", "intruder")

	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	assert.Empty(t, memBus.Published())
}

func TestShip_PublishesOrderShipped(t *testing.T) {
	svc, repo, memBus := newService(t)
	ctx := context.Background()

	repo.On("GetByID", ctx, "order-1").
		Return(&models.Order{ID: "order-1", UserID: "user-1", Status: models.StatusPaid}, nil)
	repo.On("UpdateStatus", ctx, "order-1", models.StatusShipped).Return(nil).Once()

	order, err := svc.Ship(ctx, "order-1")

	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, order.Status)

	published := memBus.PublishedOf(events.OrderShipped)
	require.Len(t, published, 1)
	payload, err := events.Decode[events.OrderShippedPayload](published[0])
	require.NoError(t, err)
	assert.Equal(t, "user-1", payload.UserID)
}

func TestFindAll_RejectsUnknownStatusFilter(t *testing.T) {
	svc, _, _ := newService(t)

	_, _, err := svc.FindAll(context.Background(), "user-1", "BOGUS", 1, 20)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
}
