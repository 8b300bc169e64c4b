package response

import "pizza-delivery/internal/data/entity"

type OrderResponse struct {
	ID          int64              `json:"id"`
	PizzaSize   entity.PizzaSize   `json:"pizza_size"`
	Quantity    int                `json:"quantity"`
	OrderStatus entity.OrderStatus `json:"order_status"`
}

func OrderToResponse(order *entity.Order) OrderResponse {
	return OrderResponse{
		ID:          order.ID,
		PizzaSize:   order.PizzaSize,
		Quantity:    order.Quantity,
		OrderStatus: order.Status,
	}
}

func OrdersToResponse(orders []*entity.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, order := range orders {
		out[i] = OrderToResponse(order)
	}
	return out
}
