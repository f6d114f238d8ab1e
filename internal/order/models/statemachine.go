package models

import (
	"github.com/marcosvcorsi/markethub/internal/apperrors"
)

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	StatusPending           OrderStatus = "PENDING"
	StatusPaymentProcessing OrderStatus = "PAYMENT_PROCESSING"
	StatusPaid              OrderStatus = "PAID"
	StatusFailed            OrderStatus = "FAILED"
	StatusShipped           OrderStatus = "SHIPPED"
	StatusDelivered         OrderStatus = "DELIVERED"
	StatusCancelled         OrderStatus = "CANCELLED"
)

// validTransitions is the single source of truth for order lifecycle
// legality. The table is pure data; callers layer event publishing on top.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:           {StatusPaymentProcessing, StatusCancelled},
	StatusPaymentProcessing: {StatusPaid, StatusFailed},
	StatusPaid:              {StatusShipped, StatusCancelled},
	StatusFailed:            {StatusPending},
	StatusShipped:           {StatusDelivered},
	StatusDelivered:         {},
	StatusCancelled:         {},
}

func (s OrderStatus) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s OrderStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0 && s.IsValid()
}

// CanTransitionTo reports whether the transition s -> target is legal.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionError is the failure returned for a transition not present in
// the table. The stored status is unchanged when it is returned.
func TransitionError(from, to OrderStatus) error {
	return apperrors.Wrapf(apperrors.ErrConflict, "cannot transition from %q to %q", from, to)
}
