package entity

import (
	"time"

	"github.com/google/uuid"
)

type PizzaSize string

const (
	PizzaSizeSmall      PizzaSize = "SMALL"
	PizzaSizeMedium     PizzaSize = "MEDIUM"
	PizzaSizeLarge      PizzaSize = "LARGE"
	PizzaSizeExtraLarge PizzaSize = "EXTRA_LARGE"
)

// PizzaSizes lists every accepted size in menu order.
var PizzaSizes = []PizzaSize{
	PizzaSizeSmall,
	PizzaSizeMedium,
	PizzaSizeLarge,
	PizzaSizeExtraLarge,
}

func (s PizzaSize) Valid() bool {
	for _, size := range PizzaSizes {
		if s == size {
			return true
		}
	}
	return false
}

type OrderStatus string

const (
	OrderStatusReceived       OrderStatus = "RECEIVED"
	OrderStatusProcessing     OrderStatus = "PROCESSING"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

// OrderStatuses lists every status, fulfilment chain first.
var OrderStatuses = []OrderStatus{
	OrderStatusReceived,
	OrderStatusProcessing,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, status := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type Order struct {
	ID        int64       `db:"id"`
	UserID    uuid.UUID   `db:"user_id"`
	PizzaSize PizzaSize   `db:"pizza_size"`
	Quantity  int         `db:"quantity"`
	Status    OrderStatus `db:"order_status"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}
