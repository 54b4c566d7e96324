package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kodbank/backend/internal/models"
)

// SessionCookieName is the cookie carrying the session token
const SessionCookieName = "token"

type contextKey string

const (
	subjectKey contextKey = "subject"
	roleKey    contextKey = "role"
)

// TokenValidator validates a session token and resolves it to a subject and role
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (string, models.Role, error)
}

// AuthMiddleware validates the session token and attaches subject and role to the context.
// Rejected requests never reach the wrapped handler.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			// If no token found, return 401
			if token == "" {
				respondUnauthorized(w, "Unauthorized: No token provided")
				return
			}

			subject, role, err := validator.ValidateAccessToken(token)
			if err != nil {
				respondUnauthorized(w, "Unauthorized: Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), subject, role)))
		})
	}
}

// ExtractToken reads the session token from the cookie, falling back to a Bearer header
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	// Expected format: "Bearer <token>"
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}

	return ""
}

// WithIdentity returns a copy of ctx carrying the authenticated subject and role
func WithIdentity(ctx context.Context, subject string, role models.Role) context.Context {
	ctx = context.WithValue(ctx, subjectKey, subject)
	return context.WithValue(ctx, roleKey, role)
}

// GetSubject retrieves the authenticated username from context
func GetSubject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok && subject != ""
}

// GetRole retrieves the authenticated role from context
func GetRole(ctx context.Context) (models.Role, bool) {
	role, ok := ctx.Value(roleKey).(models.Role)
	return role, ok
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	respond(w, http.StatusUnauthorized, message)
}

func respond(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
