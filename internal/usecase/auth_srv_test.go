package usecase

import (
	"context"
	"testing"
	"time"

	domainErr "pizza-delivery/internal/domain/errors"
	"pizza-delivery/internal/dto/request"
	"pizza-delivery/pkg/cache"
	"pizza-delivery/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthService(t *testing.T, f *fixture, staff ...string) AuthService {
	t.Helper()
	tokens, err := token.NewManager("test-secret", "pizza-test", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	return NewAuthService(f.repo, tokens, cache.NewMemoryDenylist(), staff, zap.NewNop())
}

func signup(t *testing.T, svc AuthService, username string) {
	t.Helper()
	_, err := svc.Signup(context.Background(), &request.SignupRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
}

func TestSignup(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := newAuthService(t, f, "bob")

	alice, err := svc.Signup(ctx, &request.SignupRequest{Username: "alice", Email: "alice@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.False(t, alice.IsStaff)
	assert.True(t, alice.IsActive)

	bob, err := svc.Signup(ctx, &request.SignupRequest{Username: "bob", Email: "bob@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.True(t, bob.IsStaff)

	stored, err := f.users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)

	_, err = svc.Signup(ctx, &request.SignupRequest{Username: "alice", Email: "other@example.com", Password: "correct-horse"})
	require.ErrorIs(t, err, domainErr.ErrConflict)

	_, err = svc.Signup(ctx, &request.SignupRequest{Username: "alice2", Email: "alice@example.com", Password: "correct-horse"})
	require.ErrorIs(t, err, domainErr.ErrConflict)

	_, err = svc.Signup(ctx, &request.SignupRequest{Username: "al", Email: "bad", Password: "short"})
	require.ErrorIs(t, err, domainErr.ErrValidation)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := newAuthService(t, f)
	signup(t, svc, "alice")

	resp, err := svc.Login(ctx, &request.LoginRequest{Username: "alice", Password: "correct-horse"},
		ClientMeta{UserAgent: "curl/8", IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Len(t, f.sessions.sessions, 1)

	identity, err := svc.Verify(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Username)

	_, err = svc.Login(ctx, &request.LoginRequest{Username: "alice", Password: "wrong-password"}, ClientMeta{})
	require.ErrorIs(t, err, domainErr.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &request.LoginRequest{Username: "nobody", Password: "correct-horse"}, ClientMeta{})
	require.ErrorIs(t, err, domainErr.ErrInvalidCredentials)
}

func TestLogin_InactiveAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := newAuthService(t, f)
	signup(t, svc, "alice")

	for _, u := range f.users.users {
		u.IsActive = false
	}

	_, err := svc.Login(ctx, &request.LoginRequest{Username: "alice", Password: "correct-horse"}, ClientMeta{})
	require.ErrorIs(t, err, domainErr.ErrAccountInactive)
}

func TestVerify_RejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := newAuthService(t, f)
	signup(t, svc, "alice")

	_, err := svc.Verify(ctx, "not-a-token")
	require.ErrorIs(t, err, domainErr.ErrUnauthenticated)

	resp, err := svc.Login(ctx, &request.LoginRequest{Username: "alice", Password: "correct-horse"}, ClientMeta{})
	require.NoError(t, err)

	// A refresh token is not an access token
	_, err = svc.Verify(ctx, resp.RefreshToken)
	require.ErrorIs(t, err, domainErr.ErrUnauthenticated)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := newAuthService(t, f)
	signup(t, svc, "alice")

	login, err := svc.Login(ctx, &request.LoginRequest{Username: "alice", Password: "correct-horse"}, ClientMeta{})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, &request.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.AccessToken, refreshed.AccessToken)
	assert.Empty(t, refreshed.RefreshToken)

	_, err = svc.Refresh(ctx, &request.RefreshRequest{RefreshToken: login.AccessToken})
	require.ErrorIs(t, err, domainErr.ErrUnauthenticated)

	_, err = svc.Refresh(ctx, &request.RefreshRequest{})
	require.ErrorIs(t, err, domainErr.ErrValidation)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := newAuthService(t, f)
	signup(t, svc, "alice")

	login, err := svc.Login(ctx, &request.LoginRequest{Username: "alice", Password: "correct-horse"}, ClientMeta{})
	require.NoError(t, err)
	identity, err := svc.Verify(ctx, login.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, identity, &request.LogoutRequest{RefreshToken: login.RefreshToken}))

	_, err = svc.Verify(ctx, login.AccessToken)
	require.ErrorIs(t, err, domainErr.ErrUnauthenticated)

	_, err = svc.Refresh(ctx, &request.RefreshRequest{RefreshToken: login.RefreshToken})
	require.ErrorIs(t, err, domainErr.ErrUnauthenticated)

	require.ErrorIs(t, svc.Logout(ctx, nil, nil), domainErr.ErrUnauthenticated)
}

func TestLogout_AllSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := newAuthService(t, f)
	signup(t, svc, "alice")

	first, err := svc.Login(ctx, &request.LoginRequest{Username: "alice", Password: "correct-horse"}, ClientMeta{})
	require.NoError(t, err)
	second, err := svc.Login(ctx, &request.LoginRequest{Username: "alice", Password: "correct-horse"}, ClientMeta{})
	require.NoError(t, err)

	identity, err := svc.Verify(ctx, second.AccessToken)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, identity, &request.LogoutRequest{AllSessions: true}))

	_, err = svc.Refresh(ctx, &request.RefreshRequest{RefreshToken: first.RefreshToken})
	require.ErrorIs(t, err, domainErr.ErrUnauthenticated)

	// The other device keeps its access token until it expires
	_, err = svc.Verify(ctx, first.AccessToken)
	require.NoError(t, err)
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.users.add("alice", false)
	svc := NewUserService(f.users, zap.NewNop())

	profile, err := svc.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "alice@example.com", profile.Email)

	_, err = svc.GetProfile(ctx, "nobody")
	require.ErrorIs(t, err, domainErr.ErrUserNotFound)
}
