package usecase

import (
	"context"
	"fmt"

	"pizza-delivery/internal/data/repository"
	domainErr "pizza-delivery/internal/domain/errors"
	"pizza-delivery/internal/dto/response"

	"go.uber.org/zap"
)

type UserService interface {
	GetProfile(ctx context.Context, username string) (*response.UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log.With(zap.String("service", "user")),
	}
}

func (us *userService) GetProfile(ctx context.Context, username string) (*response.UserResponse, error) {
	user, err := us.userRepo.FindByUsername(ctx, username)
	if err != nil {
		us.log.Error("Failed to find user", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, fmt.Errorf("%s: %w", username, domainErr.ErrUserNotFound)
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}
