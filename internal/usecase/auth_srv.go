package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pizza-delivery/internal/data/entity"
	"pizza-delivery/internal/data/repository"
	domainErr "pizza-delivery/internal/domain/errors"
	"pizza-delivery/internal/dto/request"
	"pizza-delivery/internal/dto/response"
	"pizza-delivery/pkg/cache"
	"pizza-delivery/pkg/token"
	"pizza-delivery/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const tokenTypeBearer = "Bearer"

// dummyHash is compared against when the username is unknown so a failed
// login costs the same bcrypt round either way.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoO5Vw1uK8yZbGx3ZkVQn0FQ1oS4S6mJ4u"

// ClientMeta is recorded on the refresh session created at login.
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

type AuthService interface {
	Signup(ctx context.Context, req *request.SignupRequest) (*response.UserResponse, error)
	Login(ctx context.Context, req *request.LoginRequest, meta ClientMeta) (*response.AuthResponse, error)
	Refresh(ctx context.Context, req *request.RefreshRequest) (*response.AuthResponse, error)
	Logout(ctx context.Context, identity *token.Identity, req *request.LogoutRequest) error
	// Verify turns a bearer credential into an identity. Every rejection
	// wraps ErrUnauthenticated.
	Verify(ctx context.Context, raw string) (*token.Identity, error)
}

type authService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   *token.Manager
	denylist cache.TokenDenylist
	staff    map[string]struct{}
	now      func() time.Time
	log      *zap.Logger
}

func NewAuthService(
	repo *repository.Repository,
	tokens *token.Manager,
	denylist cache.TokenDenylist,
	staffUsernames []string,
	log *zap.Logger,
) AuthService {
	if denylist == nil {
		denylist = cache.NewMemoryDenylist()
	}

	staff := make(map[string]struct{}, len(staffUsernames))
	for _, name := range staffUsernames {
		if name = strings.TrimSpace(name); name != "" {
			staff[name] = struct{}{}
		}
	}

	return &authService{
		users:    repo.User,
		sessions: repo.Session,
		tokens:   tokens,
		denylist: denylist,
		staff:    staff,
		now:      time.Now,
		log:      log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Signup(ctx context.Context, req *request.SignupRequest) (*response.UserResponse, error) {
	// 1. Validate input
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Signup validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", domainErr.ErrValidation, utils.FormatValidationErrors(errs))
	}

	// 2. Reject taken email or username
	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("email %s: %w", req.Email, domainErr.ErrConflict)
	}

	existing, err = s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("username %s: %w", req.Username, domainErr.ErrConflict)
	}

	// 3. Hash password
	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// 4. Save user
	_, isStaff := s.staff[req.Username]
	now := s.now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		IsStaff:      isStaff,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domainErr.ErrConflict) {
			return nil, err
		}
		s.log.Error("Failed to create user", zap.Error(err), zap.String("username", req.Username))
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.log.Info("User signed up",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.Bool("is_staff", user.IsStaff),
	)

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest, meta ClientMeta) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Login validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", domainErr.ErrValidation, utils.FormatValidationErrors(errs))
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	// Unknown user and wrong password are reported the same way
	if user == nil {
		utils.CheckPasswordHash(req.Password, dummyHash)
		s.log.Warn("Login for unknown user", zap.String("username", req.Username))
		return nil, domainErr.ErrInvalidCredentials
	}
	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Warn("Invalid password", zap.String("user_id", user.ID.String()))
		return nil, domainErr.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.log.Warn("Inactive user tried to login", zap.String("user_id", user.ID.String()))
		return nil, domainErr.ErrAccountInactive
	}

	access, err := s.tokens.IssueAccess(user.Username)
	if err != nil {
		s.log.Error("Failed to issue access token", zap.Error(err))
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(user.Username)
	if err != nil {
		s.log.Error("Failed to issue refresh token", zap.Error(err))
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	session := &entity.Session{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: s.now(),
		},
		UserID:    user.ID,
		TokenID:   refresh.TokenID,
		UserAgent: optional(meta.UserAgent),
		IPAddress: optional(meta.IPAddress),
		ExpiresAt: refresh.ExpiresAt,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		s.log.Error("Failed to create session", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)

	resp := authResponse(user, access)
	resp.RefreshToken = refresh.Token
	resp.RefreshExpiresAt = refresh.ExpiresAt
	return resp, nil
}

func (s *authService) Refresh(ctx context.Context, req *request.RefreshRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", domainErr.ErrValidation, utils.FormatValidationErrors(errs))
	}

	identity, err := s.tokens.Parse(req.RefreshToken, token.KindRefresh)
	if err != nil {
		s.log.Warn("Invalid refresh token", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domainErr.ErrUnauthenticated, err)
	}

	session, err := s.sessions.FindValidSession(ctx, identity.TokenID)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if session == nil {
		s.log.Warn("Refresh with revoked or expired session",
			zap.String("token_id", identity.TokenID.String()),
		)
		return nil, fmt.Errorf("%w: session revoked", domainErr.ErrUnauthenticated)
	}

	user, err := s.users.FindByUsername(ctx, identity.Username)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil || !user.IsActive || user.ID != session.UserID {
		return nil, fmt.Errorf("%w: no active account", domainErr.ErrUnauthenticated)
	}

	access, err := s.tokens.IssueAccess(user.Username)
	if err != nil {
		s.log.Error("Failed to issue access token", zap.Error(err))
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	s.log.Info("Access token refreshed", zap.String("username", user.Username))
	return authResponse(user, access), nil
}

func (s *authService) Logout(ctx context.Context, identity *token.Identity, req *request.LogoutRequest) error {
	if identity == nil {
		return domainErr.ErrUnauthenticated
	}
	if req == nil {
		req = &request.LogoutRequest{}
	}

	// 1. Denylist the access token for the rest of its lifetime
	ttl := identity.ExpiresAt.Sub(s.now())
	if err := s.denylist.Revoke(ctx, identity.TokenID.String(), ttl); err != nil {
		s.log.Error("Failed to denylist access token", zap.Error(err))
		return fmt.Errorf("revoke access token: %w", err)
	}

	// 2. Revoke the refresh session, but only one that belongs to the caller
	if req.RefreshToken != "" {
		refresh, err := s.tokens.Parse(req.RefreshToken, token.KindRefresh)
		switch {
		case err != nil:
			s.log.Warn("Logout with invalid refresh token", zap.Error(err))
		case refresh.Username != identity.Username:
			s.log.Warn("Logout with foreign refresh token", zap.String("username", identity.Username))
		default:
			if err := s.sessions.Revoke(ctx, refresh.TokenID); err != nil {
				return fmt.Errorf("revoke session: %w", err)
			}
		}
	}

	// 3. Optionally drop every session of the user
	if req.AllSessions {
		user, err := s.users.FindByUsername(ctx, identity.Username)
		if err != nil {
			return fmt.Errorf("find user: %w", err)
		}
		if user != nil {
			if err := s.sessions.RevokeAllUserSessions(ctx, user.ID); err != nil {
				return fmt.Errorf("revoke sessions: %w", err)
			}
		}
	}

	s.log.Info("User logged out",
		zap.String("username", identity.Username),
		zap.Bool("all_sessions", req.AllSessions),
	)
	return nil
}

func (s *authService) Verify(ctx context.Context, raw string) (*token.Identity, error) {
	identity, err := s.tokens.Parse(raw, token.KindAccess)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainErr.ErrUnauthenticated, err)
	}

	revoked, err := s.denylist.IsRevoked(ctx, identity.TokenID.String())
	if err != nil {
		s.log.Error("Failed to check token denylist", zap.Error(err))
		return nil, fmt.Errorf("check denylist: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", domainErr.ErrUnauthenticated)
	}

	return identity, nil
}

// ==================== HELPER METHODS ====================

func authResponse(user *entity.User, access *token.Issued) *response.AuthResponse {
	return &response.AuthResponse{
		UserID:          user.ID.String(),
		Username:        user.Username,
		IsStaff:         user.IsStaff,
		AccessToken:     access.Token,
		AccessExpiresAt: access.ExpiresAt,
		TokenType:       tokenTypeBearer,
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
