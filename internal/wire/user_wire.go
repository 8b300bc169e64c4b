package wire

import (
	"net/http"

	"pizza-delivery/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireUser(r chi.Router, userHandler *adaptor.UserHandler, authenticate func(http.Handler) http.Handler) {
	r.With(authenticate).Get("/user/profile", userHandler.GetProfile)
}
