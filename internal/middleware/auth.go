package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mja2001/SolCipher-Cronos/internal/auth"
	"github.com/mja2001/SolCipher-Cronos/internal/response"
)

type contextKey string

const claimsKey contextKey = "caller_claims"

// Auth validates the bearer token and stores the caller claims in the request
// context. Handlers bind all ownership checks to these claims, never to a
// request parameter.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext returns the authenticated caller claims.
func CallerFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}
