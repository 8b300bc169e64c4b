package policy

import (
	"fmt"
	"strings"

	"pizza-delivery/internal/data/entity"
	domainErr "pizza-delivery/internal/domain/errors"
)

// fulfilment position of each non-cancelled status.
var chainRank = map[entity.OrderStatus]int{
	entity.OrderStatusReceived:       0,
	entity.OrderStatusProcessing:     1,
	entity.OrderStatusOutForDelivery: 2,
	entity.OrderStatusDelivered:      3,
}

// ParseStatus converts raw input into an OrderStatus.
func ParseStatus(raw string) (entity.OrderStatus, error) {
	status := entity.OrderStatus(strings.TrimSpace(raw))
	if !status.Valid() {
		return "", fmt.Errorf("unknown order status %q: %w", raw, domainErr.ErrValidation)
	}
	return status, nil
}

// ParseSize converts raw input into a PizzaSize.
func ParseSize(raw string) (entity.PizzaSize, error) {
	size := entity.PizzaSize(strings.TrimSpace(raw))
	if !size.Valid() {
		return "", fmt.Errorf("unknown pizza size %q: %w", raw, domainErr.ErrValidation)
	}
	return size, nil
}

// IsTerminal reports whether no further status change is allowed.
func IsTerminal(status entity.OrderStatus) bool {
	return status == entity.OrderStatusDelivered || status == entity.OrderStatusCancelled
}

// CanTransition reports whether an order may move from one status to another.
// Orders only move forward along the fulfilment chain (skipping steps is
// fine) and may be cancelled until they leave the kitchen.
func CanTransition(from, to entity.OrderStatus) bool {
	if !from.Valid() || !to.Valid() || IsTerminal(from) {
		return false
	}

	if to == entity.OrderStatusCancelled {
		return from == entity.OrderStatusReceived || from == entity.OrderStatusProcessing
	}

	return chainRank[to] > chainRank[from]
}

// CheckTransition is CanTransition returning an ErrInvalidState error.
func CheckTransition(from, to entity.OrderStatus) error {
	if !to.Valid() {
		return fmt.Errorf("unknown order status %q: %w", to, domainErr.ErrValidation)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("cannot move order from %s to %s: %w", from, to, domainErr.ErrInvalidState)
	}
	return nil
}

// CheckEditable returns ErrInvalidState unless size and quantity may still
// be changed.
func CheckEditable(order *entity.Order) error {
	if order.Status != entity.OrderStatusReceived {
		return fmt.Errorf("order %d is %s, only %s orders can be edited: %w",
			order.ID, order.Status, entity.OrderStatusReceived, domainErr.ErrInvalidState)
	}
	return nil
}

// CheckQuantity enforces quantity >= 1.
func CheckQuantity(quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d: %w", quantity, domainErr.ErrValidation)
	}
	return nil
}
