package utils

import (
	"context"

	"pizza-delivery/pkg/token"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
	TokenKey    contextKey = "token"
)

// SetIdentityContext stores the verified caller identity.
func SetIdentityContext(ctx context.Context, identity *token.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// GetIdentityFromContext returns the identity set by the auth middleware.
func GetIdentityFromContext(ctx context.Context) (*token.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*token.Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

// GetTokenFromContext returns the raw bearer token of the request.
func GetTokenFromContext(ctx context.Context) (string, bool) {
	tokenVal := ctx.Value(TokenKey)
	if tokenVal == nil {
		return "", false
	}

	raw, ok := tokenVal.(string)
	return raw, ok
}

// SetTokenContext stores the raw bearer token.
func SetTokenContext(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, TokenKey, raw)
}
