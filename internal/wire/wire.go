package wire

import (
	"net/http"

	"pizza-delivery/internal/adaptor"
	"pizza-delivery/internal/data/repository"
	"pizza-delivery/internal/usecase"
	"pizza-delivery/pkg/middleware"
	"pizza-delivery/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the assembled HTTP application
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and routes
func Wiring(repo *repository.Repository, deps usecase.Deps, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, deps, config, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, service, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(handler *adaptor.Handler, service *usecase.Service, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	authenticate := middleware.Authenticate(service.Auth, logger)

	// Apply routes
	wireAuth(r, handler.Auth, authenticate)
	wireUser(r, handler.User, authenticate)
	wireOrder(r, handler.Order, authenticate)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
