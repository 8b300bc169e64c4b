package middleware

import (
	"context"
	"net/http"
	"time"

	"pizza-delivery/pkg/utils"

	"go.uber.org/zap"
)

// responseWriter captures the status code and body size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// Logger writes one access log line per request. The caller's username is
// added when the request was authenticated.
func Logger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			// Authenticate runs deeper in the chain; read the identity back
			// through a holder shared with the downstream request.
			holder := &identityHolder{}
			next.ServeHTTP(rw, r.WithContext(withIdentityHolder(r.Context(), holder)))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", rw.statusCode),
				zap.Int("bytes", rw.bytesWritten),
				zap.Duration("duration", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
			}
			if holder.username != "" {
				fields = append(fields, zap.String("username", holder.username))
			}

			switch {
			case rw.statusCode >= http.StatusInternalServerError:
				logger.Error("HTTP request", fields...)
			case rw.statusCode >= http.StatusBadRequest:
				logger.Warn("HTTP request", fields...)
			default:
				logger.Info("HTTP request", fields...)
			}
		})
	}
}

type identityHolderKey struct{}

type identityHolder struct {
	username string
}

func withIdentityHolder(ctx context.Context, holder *identityHolder) context.Context {
	return context.WithValue(ctx, identityHolderKey{}, holder)
}

// recordIdentity is called by Authenticate once the caller is known.
func recordIdentity(ctx context.Context) {
	holder, ok := ctx.Value(identityHolderKey{}).(*identityHolder)
	if !ok {
		return
	}
	if identity, ok := utils.GetIdentityFromContext(ctx); ok {
		holder.username = identity.Username
	}
}
