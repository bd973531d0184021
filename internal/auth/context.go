package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

type contextKey string

const adminScopeKey contextKey = "adminScope"

// ContextWithAdminScope returns a new context that carries the authenticated
// admin scope.
func ContextWithAdminScope(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, adminScopeKey, true)
}

// IsAdmin reports whether the context carries an authenticated admin scope.
func IsAdmin(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	value, ok := ctx.Value(adminScopeKey).(bool)
	return ok && value
}

// RequireAdminKey guards a handler behind the configured admin key, read from
// the X-Admin-Key header or a bearer token. An empty configured key disables
// the endpoint rather than leaving it open.
func RequireAdminKey(key string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key == "" {
			http.Error(w, "admin endpoints are disabled", http.StatusForbidden)
			return
		}

		provided := strings.TrimSpace(r.Header.Get("X-Admin-Key"))
		if provided == "" {
			authz := r.Header.Get("Authorization")
			if strings.HasPrefix(authz, "Bearer ") {
				provided = strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
			}
		}

		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			http.Error(w, "invalid admin key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithAdminScope(r.Context())))
	})
}
