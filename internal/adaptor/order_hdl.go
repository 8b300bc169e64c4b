package adaptor

import (
	"net/http"

	"pizza-delivery/internal/dto/request"
	"pizza-delivery/internal/usecase"
	"pizza-delivery/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type OrderHandler struct {
	service usecase.OrderService
	log     *zap.Logger
}

func NewOrderHandler(service usecase.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		log:     log.With(zap.String("handler", "order")),
	}
}

// Hello handles GET /orders/
func (h *OrderHandler) Hello(w http.ResponseWriter, r *http.Request) {
	username, ok := currentUsername(w, r)
	if !ok {
		return
	}

	utils.ResponseSuccess(w, "Hello "+username, nil)
}

// CreateOrder handles POST /orders/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	username, ok := currentUsername(w, r)
	if !ok {
		return
	}

	var req request.CreateOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.service.CreateOrder(r.Context(), username, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create order")
		return
	}

	utils.ResponseCreated(w, "Order created", order)
}

// ListAllOrders handles GET /orders/orders (staff only)
func (h *OrderHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	username, ok := currentUsername(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListAllOrders(r.Context(), username)
	if err != nil {
		writeServiceError(w, h.log, err, "list all orders")
		return
	}

	utils.ResponseSuccess(w, "Orders retrieved successfully", orders)
}

// GetOrderByID handles GET /orders/orders/{id} (staff only)
func (h *OrderHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	username, ok := currentUsername(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.GetOrderByID(r.Context(), username, id)
	if err != nil {
		writeServiceError(w, h.log, err, "get order")
		return
	}

	utils.ResponseSuccess(w, "Order retrieved successfully", order)
}

// ListOwnOrders handles GET /orders/user/orders
func (h *OrderHandler) ListOwnOrders(w http.ResponseWriter, r *http.Request) {
	username, ok := currentUsername(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListOwnOrders(r.Context(), username)
	if err != nil {
		writeServiceError(w, h.log, err, "list own orders")
		return
	}

	utils.ResponseSuccess(w, "Orders retrieved successfully", orders)
}

// GetOwnOrder handles GET /orders/user/orders/{id}
func (h *OrderHandler) GetOwnOrder(w http.ResponseWriter, r *http.Request) {
	username, ok := currentUsername(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.GetOwnOrder(r.Context(), username, id)
	if err != nil {
		writeServiceError(w, h.log, err, "get own order")
		return
	}

	utils.ResponseSuccess(w, "Order retrieved successfully", order)
}

// UpdateOrder handles PUT /orders/order/update/{id}
func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	username, ok := currentUsername(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req request.UpdateOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.service.UpdateOrder(r.Context(), username, id, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update order")
		return
	}

	utils.ResponseSuccess(w, "Order updated", order)
}

// SetOrderStatus handles PATCH /orders/order/update/{id} (staff only)
func (h *OrderHandler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	username, ok := currentUsername(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req request.UpdateOrderStatusRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	// The service checks the status value after the staff check
	order, err := h.service.SetOrderStatus(r.Context(), username, id, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "set order status")
		return
	}

	utils.ResponseSuccess(w, "Order status updated", order)
}

// DeleteOrder handles DELETE /orders/order/delete/{id}
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	username, ok := currentUsername(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteOrder(r.Context(), username, id); err != nil {
		writeServiceError(w, h.log, err, "delete order")
		return
	}

	utils.ResponseNoContent(w)
}
