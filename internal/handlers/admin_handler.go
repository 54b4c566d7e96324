package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kodbank/backend/internal/models"
	"go.uber.org/zap"
)

// AdminService is the interface that wraps read-only lookups over any account
type AdminService interface {
	GetUser(ctx context.Context, username string) (*models.ProfileResponse, error)
	ListUserTransactions(ctx context.Context, username string, limit int) ([]*models.Transaction, error)
}

// AdminHandler handles staff requests about other users
type AdminHandler struct {
	BaseHandler
	adminService AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		adminService: adminService,
	}
}

// RegisterRoutes registers admin routes.
// The router must already be guarded by the auth and role middlewares.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/admin/users/{username}", func(r chi.Router) {
		r.Get("/", h.GetUser)
		r.Get("/transactions", h.ListUserTransactions)
	})
}

// GetUser handles GET /admin/users/{username}
// @Summary Get user profile
// @Description Returns the profile of any user. Requires Manager or Admin role.
// @Tags admin
// @Produce json
// @Security CookieAuth
// @Param username path string true "Username"
// @Success 200 {object} models.ProfileResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/users/{username} [get]
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	profile, err := h.adminService.GetUser(r.Context(), username)
	if err != nil {
		h.respondLookupError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, profile)
}

// ListUserTransactions handles GET /admin/users/{username}/transactions
// @Summary List user transactions
// @Description Returns the newest ledger entries of any user without recording a view. Requires Manager or Admin role.
// @Tags admin
// @Produce json
// @Security CookieAuth
// @Param username path string true "Username"
// @Param limit query int false "Maximum number of entries (default 10, max 100)"
// @Success 200 {array} models.Transaction
// @Failure 400 {object} map[string]string "Invalid limit"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/users/{username}/transactions [get]
func (h *AdminHandler) ListUserTransactions(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	limit, err := parseLimit(r)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	entries, err := h.adminService.ListUserTransactions(r.Context(), username, limit)
	if err != nil {
		h.respondLookupError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, entries)
}

func (h *AdminHandler) respondLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, models.ErrUserNotFound) {
		h.RespondError(w, http.StatusNotFound, msgUserNotFound)
		return
	}
	h.LogError(r, "admin lookup failed", err)
	h.RespondError(w, http.StatusInternalServerError, "internal server error")
}
