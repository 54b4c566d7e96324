package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kodbank/backend/internal/auth/middleware"
	"github.com/kodbank/backend/internal/auth/service"
	"github.com/kodbank/backend/internal/models"
	"github.com/kodbank/backend/internal/services"
	"go.uber.org/zap"
)

// Client facing messages. They never say which part of a credential was wrong.
const (
	msgInvalidCredentials  = "Invalid username or password"
	msgDuplicateIdentity   = "Registration failed. Username or email might already exist."
	msgConfigurationError  = "Server configuration error"
	msgRegistrationFailed  = "Registration failed"
	msgLoginFailed         = "Login failed"
	msgWrongPassword       = "Current password is incorrect"
	msgPasswordChangeError = "Password change failed"
	msgUserNotFound        = "User not found"
	msgInvalidRequestBody  = "Invalid request body"
)

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Register validates the request, creates a Customer account and seeds its ledger.
	//
	// Returns the new user ID. Fails with models.ErrDuplicateIdentity when the username or email
	// is taken and with services.ErrValidation on invalid input.
	Register(ctx context.Context, req *models.RegisterRequest) (int, error)
	// Method Login verifies credentials and issues a session token.
	//
	// Any credential mismatch is reported as services.ErrInvalidCredentials.
	Login(ctx context.Context, req *models.LoginRequest) (*services.LoginResult, error)
	// Method ChangePassword rotates the password of "username".
	//
	// Fails with services.ErrWrongPassword when the current password does not match.
	ChangePassword(ctx context.Context, username string, req *models.ChangePasswordRequest) error
	// Method Profile returns the profile of "username" or models.ErrUserNotFound.
	Profile(ctx context.Context, username string) (*models.ProfileResponse, error)
	// Method Logout records the end of a session.
	Logout(ctx context.Context, username string)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService   AuthService
	validator     middleware.TokenValidator
	sessionExpiry time.Duration
	cookieSecure  bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService AuthService,
	validator middleware.TokenValidator,
	sessionExpiry time.Duration,
	cookieSecure bool,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		authService:   authService,
		validator:     validator,
		sessionExpiry: sessionExpiry,
		cookieSecure:  cookieSecure,
	}
}

// RegisterRoutes registers all auth handler routes.
// credentialLimiter guards the routes that accept passwords from anonymous callers.
func (h *AuthHandler) RegisterRoutes(r chi.Router, authMiddleware, credentialLimiter func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(credentialLimiter)
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})
		r.Post("/logout", h.Logout)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/change-password", h.ChangePassword)
			r.Get("/profile", h.Profile)
		})
	})
}

// Register handles POST /auth/register
// @Summary Register a new customer
// @Description Creates a Customer account with the opening balance and seeds its ledger with the opening entries.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration request"
// @Success 201 {object} map[string]any "Registration successful"
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 409 {object} map[string]string "Username or email might already exist"
// @Failure 500 {object} map[string]string "Registration failed"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, msgInvalidRequestBody)
		return
	}

	userID, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			h.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, models.ErrDuplicateIdentity):
			h.RespondError(w, http.StatusConflict, msgDuplicateIdentity)
		case errors.Is(err, service.ErrConfiguration):
			h.LogError(r, "server is not configured for registration", err)
			h.RespondError(w, http.StatusInternalServerError, msgConfigurationError)
		default:
			h.LogError(r, "failed to register user", err)
			h.RespondError(w, http.StatusInternalServerError, msgRegistrationFailed)
		}
		return
	}

	h.RespondJSON(w, http.StatusCreated, map[string]any{
		"message": "Registration successful",
		"userId":  userID,
	})
}

// Login handles POST /auth/login
// @Summary Login
// @Description Verifies the username and password and sets the session token as an HTTP-only cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} map[string]string "Login successful"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Invalid username or password"
// @Failure 500 {object} map[string]string "Login failed"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, msgInvalidRequestBody)
		return
	}

	result, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			h.RespondError(w, http.StatusUnauthorized, msgInvalidCredentials)
		case errors.Is(err, service.ErrConfiguration):
			h.LogError(r, "server is not configured for login", err)
			h.RespondError(w, http.StatusInternalServerError, msgConfigurationError)
		default:
			h.LogError(r, "failed to login user", err)
			h.RespondError(w, http.StatusInternalServerError, msgLoginFailed)
		}
		return
	}

	h.setSessionCookie(w, result.Token)

	h.RespondJSON(w, http.StatusOK, map[string]string{
		"message":  "Login successful",
		"username": result.Username,
		"role":     string(result.Role),
	})
}

// Logout handles POST /auth/logout
// @Summary Logout
// @Description Clears the session cookie. The signed token itself stays valid until it expires.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logged out"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.ExtractToken(r); token != "" {
		if subject, _, err := h.validator.ValidateAccessToken(token); err == nil {
			h.authService.Logout(r.Context(), subject)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// ChangePassword handles POST /auth/change-password
// @Summary Change password
// @Description Rotates the password of the authenticated user after checking the current one.
// @Tags auth
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body models.ChangePasswordRequest true "Change password request"
// @Success 200 {object} map[string]string "Password changed"
// @Failure 400 {object} map[string]string "Invalid request body or new password"
// @Failure 401 {object} map[string]string "Unauthorized or current password is incorrect"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Password change failed"
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetSubject(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "Unauthorized: No token provided")
		return
	}

	var req models.ChangePasswordRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, msgInvalidRequestBody)
		return
	}

	err := h.authService.ChangePassword(r.Context(), username, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWrongPassword):
			h.RespondError(w, http.StatusUnauthorized, msgWrongPassword)
		case errors.Is(err, services.ErrValidation):
			h.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, models.ErrUserNotFound):
			h.RespondError(w, http.StatusNotFound, msgUserNotFound)
		default:
			h.LogError(r, "failed to change password", err)
			h.RespondError(w, http.StatusInternalServerError, msgPasswordChangeError)
		}
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// Profile handles GET /auth/profile
// @Summary Get own profile
// @Description Returns the profile of the authenticated user with its ledger size.
// @Tags auth
// @Produce json
// @Security CookieAuth
// @Success 200 {object} models.ProfileResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetSubject(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "Unauthorized: No token provided")
		return
	}

	profile, err := h.authService.Profile(r.Context(), username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			h.RespondError(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		h.LogError(r, "failed to get profile", err)
		h.RespondError(w, http.StatusInternalServerError, "Profile lookup failed")
		return
	}

	h.RespondJSON(w, http.StatusOK, profile)
}

// setSessionCookie sets the session token as an HTTP-only cookie
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionExpiry.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
