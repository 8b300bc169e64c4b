package usecase

import (
	"pizza-delivery/internal/data/repository"
	"pizza-delivery/internal/domain/policy"
	"pizza-delivery/pkg/cache"
	"pizza-delivery/pkg/events"
	"pizza-delivery/pkg/token"
	"pizza-delivery/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth  AuthService
	User  UserService
	Order OrderService
}

// Deps are the collaborators that are not backed by the repository.
type Deps struct {
	Tokens    *token.Manager
	Denylist  cache.TokenDenylist
	Publisher events.Publisher
}

func NewService(repo *repository.Repository, deps Deps, config *utils.Config, log *zap.Logger) *Service {
	authz := policy.NewAuthorizer(policy.Options{
		PermissiveMutations: config.Order.PermissiveMutations,
	})

	return &Service{
		Auth:  NewAuthService(repo, deps.Tokens, deps.Denylist, config.Order.StaffUsernames, log),
		User:  NewUserService(repo.User, log),
		Order: NewOrderService(repo, authz, deps.Publisher, log),
	}
}
