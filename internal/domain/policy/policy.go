// Package policy decides who may do what to an order and which order status
// changes are legal. It holds no state and never touches a store.
package policy

import (
	"fmt"

	"pizza-delivery/internal/data/entity"
	domainErr "pizza-delivery/internal/domain/errors"
)

type Operation string

const (
	OpListAllOrders  Operation = "list_all_orders"
	OpGetOrderByID   Operation = "get_order_by_id"
	OpSetOrderStatus Operation = "set_order_status"
	OpGetOwnOrder    Operation = "get_own_order"
	OpListOwnOrders  Operation = "list_own_orders"
	OpCreateOrder    Operation = "create_order"
	OpUpdateOrder    Operation = "update_order"
	OpDeleteOrder    Operation = "delete_order"
)

// Options tweaks rule evaluation.
type Options struct {
	// PermissiveMutations lets any authenticated user update or delete any
	// order. Off unless explicitly configured.
	PermissiveMutations bool
}

// Authorizer evaluates the order access rules.
type Authorizer struct {
	opts Options
}

func NewAuthorizer(opts Options) *Authorizer {
	return &Authorizer{opts: opts}
}

// Authorize returns nil when actor may perform op on target, otherwise an
// error wrapping ErrUnauthenticated or ErrForbidden. target may be nil for
// collection-level operations. Rules are evaluated in order; the first match
// wins and an unmatched request is denied.
func (a *Authorizer) Authorize(actor *entity.User, op Operation, target *entity.Order) error {
	if actor == nil {
		return fmt.Errorf("%s: %w", op, domainErr.ErrUnauthenticated)
	}

	switch op {
	case OpListAllOrders, OpGetOrderByID, OpSetOrderStatus:
		if actor.IsStaff {
			return nil
		}
		return deny(actor, op)

	case OpGetOwnOrder, OpListOwnOrders:
		if target == nil || IsOwner(actor, target) {
			return nil
		}
		return deny(actor, op)

	case OpCreateOrder:
		return nil

	case OpUpdateOrder, OpDeleteOrder:
		if a.opts.PermissiveMutations || actor.IsStaff || IsOwner(actor, target) {
			return nil
		}
		return deny(actor, op)
	}

	return deny(actor, op)
}

// IsOwner reports whether actor owns target.
func IsOwner(actor *entity.User, target *entity.Order) bool {
	if actor == nil || target == nil {
		return false
	}
	return target.UserID == actor.ID
}

func deny(actor *entity.User, op Operation) error {
	return fmt.Errorf("%s by %q: %w", op, actor.Username, domainErr.ErrForbidden)
}
