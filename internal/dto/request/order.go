package request

type CreateOrderRequest struct {
	PizzaSize string `json:"pizza_size" validate:"required,pizza_size"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

// UpdateOrderRequest changes size and/or quantity; omitted fields keep
// their current value. At least one field must be present.
type UpdateOrderRequest struct {
	PizzaSize *string `json:"pizza_size,omitempty" validate:"omitempty,pizza_size"`
	Quantity  *int    `json:"quantity,omitempty" validate:"omitempty,min=1"`
}

type UpdateOrderStatusRequest struct {
	OrderStatus string `json:"order_status" validate:"required,order_status"`
}

func (r UpdateOrderRequest) Empty() bool {
	return r.PizzaSize == nil && r.Quantity == nil
}
