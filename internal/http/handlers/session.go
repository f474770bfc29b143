package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/jitsports/sportsroom/internal/http/response"
	"github.com/jitsports/sportsroom/pkg/auth"
	"github.com/jitsports/sportsroom/pkg/logger"
)

type ctxKey string

const ctxClaims ctxKey = "claims"

// RequireSession guards the protected booking operations. The session is an
// explicit token on every request; nothing is looked up server side.
func RequireSession(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "missing or invalid authorization header")
				return
			}

			raw := strings.TrimPrefix(authz, "Bearer ")
			claims, err := auth.Parse(raw, secret)
			if err != nil {
				response.Unauthorized(w, "invalid session token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxClaims, claims)
			ctx = context.WithValue(ctx, logger.IdentityIDKey, claims.Sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionClaims(r *http.Request) *auth.Claims {
	v := r.Context().Value(ctxClaims)
	if v == nil {
		return nil
	}
	return v.(*auth.Claims)
}
