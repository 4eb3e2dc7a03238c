package middleware

import (
	"net/http"
	"strings"

	"github.com/tokengate/tokengate/internal/auth"
)

// AdminAuth creates a middleware that validates admin session tokens
func (m *Middleware) AdminAuth(sessions *auth.AdminSessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
					tokenString = parts[1]
				}
			}

			if tokenString == "" {
				http.Error(w, `{"error":{"code":"unauthorized","message":"Authentication required"}}`, http.StatusUnauthorized)
				return
			}

			if err := sessions.Validate(tokenString); err != nil {
				m.log.Debug().Err(err).Msg("admin session validation failed")
				http.Error(w, `{"error":{"code":"token_expired","message":"The session token is invalid or expired"}}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
