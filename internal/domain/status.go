package domain

import (
	"fmt"
	"time"

	apperrors "laundrypro/internal/errors"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusReady      OrderStatus = "ready"
	OrderStatusDelivering OrderStatus = "delivering"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// InitialOrderStatus is assigned to every new order.
const InitialOrderStatus = OrderStatusPending

// workflow holds the forward order of the non-cancelled statuses.
var workflow = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusReady,
	OrderStatusDelivering,
	OrderStatusCompleted,
}

func AllOrderStatuses() []OrderStatus {
	all := make([]OrderStatus, 0, len(workflow)+1)
	all = append(all, workflow...)
	return append(all, OrderStatusCancelled)
}

func (s OrderStatus) IsValid() bool {
	return s == OrderStatusCancelled || s.rank() >= 0
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

func (s OrderStatus) rank() int {
	for i, st := range workflow {
		if st == s {
			return i
		}
	}
	return -1
}

// ValidateTransition checks a status change requested by role. The role gate
// is checked first, so a staff member touching a terminal order always gets
// a ForbiddenError regardless of the target status.
func ValidateTransition(current, next OrderStatus, role Role) error {
	if !next.IsValid() {
		return apperrors.NewValidationError("invalid status", apperrors.ValidationDetail{
			Field:   "status",
			Message: fmt.Sprintf("status must be one of %v", AllOrderStatuses()),
		})
	}
	if !CanMutate(role, current) {
		return ForbiddenForStatus(current)
	}
	if current == next {
		return apperrors.NewInvalidStateError(fmt.Sprintf("order is already %s", current))
	}

	if current.IsTerminal() {
		// only reachable by admin: reopening
		if next.IsTerminal() {
			return apperrors.NewInvalidStateError(
				fmt.Sprintf("cannot move a %s order to %s", current, next))
		}
		return nil
	}

	if next == OrderStatusCancelled {
		return nil
	}
	if next.rank() < current.rank() {
		return apperrors.NewInvalidStateError(
			fmt.Sprintf("cannot move order back from %s to %s", current, next))
	}
	return nil
}

// ApplyStatus sets the status and keeps the completion and cancellation
// stamps in agreement with it.
func (o *Order) ApplyStatus(next OrderStatus, now time.Time) {
	o.Status = next
	o.UpdatedAt = now

	o.CompletedAt = nil
	o.CancelledAt = nil
	switch next {
	case OrderStatusCompleted:
		t := now
		o.CompletedAt = &t
	case OrderStatusCancelled:
		t := now
		o.CancelledAt = &t
	}
}

func ForbiddenForStatus(status OrderStatus) error {
	return apperrors.NewForbiddenError(fmt.Sprintf("only admin can modify %s orders", status))
}
