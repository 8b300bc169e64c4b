package wire

import (
	"net/http"

	"pizza-delivery/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// Every order route needs a verified caller; staff checks happen in the
// order service.
func wireOrder(r chi.Router, orderHandler *adaptor.OrderHandler, authenticate func(http.Handler) http.Handler) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/", orderHandler.Hello)

		r.Post("/orders", orderHandler.CreateOrder)
		r.Get("/orders", orderHandler.ListAllOrders)
		r.Get("/orders/{id}", orderHandler.GetOrderByID)

		r.Get("/user/orders", orderHandler.ListOwnOrders)
		r.Get("/user/orders/{id}", orderHandler.GetOwnOrder)

		r.Put("/order/update/{id}", orderHandler.UpdateOrder)
		r.Patch("/order/update/{id}", orderHandler.SetOrderStatus)
		r.Delete("/order/delete/{id}", orderHandler.DeleteOrder)
	})
}
