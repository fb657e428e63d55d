package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/mcoot/tkserver/internal/api/apierr"
)

// Auth creates bearer token middleware. An empty token disables the check.
func Auth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := extractToken(r)
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken gets the token from the Authorization header
func extractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return parts[1]
}
