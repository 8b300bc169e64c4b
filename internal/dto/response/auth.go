package response

import (
	"time"

	"pizza-delivery/internal/data/entity"
)

type AuthResponse struct {
	UserID           string    `json:"user_id"`
	Username         string    `json:"username"`
	IsStaff          bool      `json:"is_staff"`
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token,omitempty"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at,omitempty"`
	TokenType        string    `json:"token_type"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsStaff   bool      `json:"is_staff"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		IsStaff:   user.IsStaff,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}
