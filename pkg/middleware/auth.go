package middleware

import (
	"context"
	"errors"
	"net/http"

	domainErr "pizza-delivery/internal/domain/errors"
	"pizza-delivery/pkg/token"
	"pizza-delivery/pkg/utils"

	"go.uber.org/zap"
)

// Verifier turns a bearer credential into an identity.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*token.Identity, error)
}

// Authenticate rejects requests without a valid access token and stores the
// verified identity and raw token in the request context.
func Authenticate(verifier Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			raw, ok := utils.BearerToken(authHeader)
			if !ok {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			identity, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				if errors.Is(err, domainErr.ErrUnauthenticated) {
					logger.Warn("Rejected access token",
						zap.Error(err),
						zap.String("path", r.URL.Path))
					utils.ResponseUnauthorized(w, "Invalid or expired token")
					return
				}
				logger.Error("Failed to verify token", zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}

			ctx := utils.SetIdentityContext(r.Context(), identity)
			ctx = utils.SetTokenContext(ctx, raw)
			recordIdentity(ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
