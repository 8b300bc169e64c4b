package wire

import (
	"net/http"

	"pizza-delivery/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler, authenticate func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)

		// ==================== PROTECTED ROUTES ====================
		r.With(authenticate).Post("/logout", authHandler.Logout)
	})
}
