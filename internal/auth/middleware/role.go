package middleware

import (
	"net/http"

	"github.com/kodbank/backend/internal/models"
)

// RoleMiddleware checks that the role attached by AuthMiddleware is at least requiredRole.
// It must be mounted after AuthMiddleware.
func RoleMiddleware(requiredRole models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetRole(r.Context())
			if !ok {
				respondUnauthorized(w, "authentication required")
				return
			}

			if role.Level() < requiredRole.Level() {
				respond(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
