package auth

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

type contextKey struct{}

// Middleware rejects requests without a valid stream token with 401.
// Validated claims are stored in the request context.
func Middleware(manager *JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := ExtractJWTFromRequest(r)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Stream request without token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := manager.ValidateToken(tokenString)
			if err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("Invalid stream token")
				http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims returns a context carrying claims
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// ClaimsFromContext returns the claims stored by Middleware, if any
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	return claims, ok
}
