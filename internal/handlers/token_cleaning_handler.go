package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ExpiredTokenRepository deletes session audit records past their expiry
type ExpiredTokenRepository interface {
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error)
}

// TokenCleaningHandler handles token cleaning requests
type TokenCleaningHandler struct {
	BaseHandler
	userTokenRepo ExpiredTokenRepository
	now           func() time.Time
}

// NewTokenCleaningHandler creates a new token cleaning handler
func NewTokenCleaningHandler(userTokenRepo ExpiredTokenRepository, logger *zap.Logger) *TokenCleaningHandler {
	return &TokenCleaningHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		userTokenRepo: userTokenRepo,
		now:           time.Now,
	}
}

// RegisterRoutes registers token cleaning handler routes
func (h *TokenCleaningHandler) RegisterRoutes(r chi.Router) {
	r.Delete("/tokens/expired", h.CleanTokens)
}

// CleanTokens handles DELETE /tokens/expired
// @Summary Purge expired session records
// @Description Removes session audit records whose expiry has passed. Validation never reads these records.
// @Tags tokens
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]int "Number of deleted records"
// @Failure 401 {object} map[string]string "Invalid API key"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /tokens/expired [delete]
func (h *TokenCleaningHandler) CleanTokens(w http.ResponseWriter, r *http.Request) {
	deletedCount, err := h.userTokenRepo.DeleteExpiredTokens(r.Context(), h.now())
	if err != nil {
		h.LogError(r, "failed to delete expired tokens", err)
		h.RespondError(w, http.StatusInternalServerError, "token cleaning failed")
		return
	}

	// 0 deleted rows is not an error
	h.Logger.Info("token cleaning completed", zap.Int("deletedCount", deletedCount))
	h.RespondJSON(w, http.StatusOK, map[string]int{"deleted": deletedCount})
}
