package usecase

import (
	"context"
	"fmt"

	"pizza-delivery/internal/data/entity"
	"pizza-delivery/internal/data/repository"
	domainErr "pizza-delivery/internal/domain/errors"
)

// OwnershipResolver answers "which orders belong to this user". A missing
// order and an order owned by someone else look the same: ErrOrderNotFound.
type OwnershipResolver struct {
	orders repository.OrderRepository
}

func NewOwnershipResolver(orders repository.OrderRepository) *OwnershipResolver {
	return &OwnershipResolver{orders: orders}
}

// OrdersOwnedBy returns the user's orders in store order.
func (r *OwnershipResolver) OrdersOwnedBy(ctx context.Context, user *entity.User) ([]*entity.Order, error) {
	orders, err := r.orders.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list orders of %s: %w", user.Username, err)
	}
	return orders, nil
}

// OrderOwnedBy returns order id when user owns it.
func (r *OwnershipResolver) OrderOwnedBy(ctx context.Context, user *entity.User, id int64) (*entity.Order, error) {
	order, err := r.orders.FindByIDAndUserID(ctx, id, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get order %d of %s: %w", id, user.Username, err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %d: %w", id, domainErr.ErrOrderNotFound)
	}
	return order, nil
}
