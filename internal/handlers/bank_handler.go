package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kodbank/backend/internal/auth/middleware"
	"github.com/kodbank/backend/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BankService is the interface that wraps the ledger operations
type BankService interface {
	// RecordBalanceView returns the balance and appends the verification ledger entry
	RecordBalanceView(ctx context.Context, username string) (decimal.Decimal, error)
	// ListRecent returns the newest ledger entries, empty for an identity without a user row
	ListRecent(ctx context.Context, username string, limit int) ([]*models.Transaction, error)
}

// BankHandler handles balance and ledger requests
type BankHandler struct {
	BaseHandler
	bankService BankService
}

// NewBankHandler creates a new bank handler
func NewBankHandler(bankService BankService, logger *zap.Logger) *BankHandler {
	return &BankHandler{
		BaseHandler: BaseHandler{Logger: logger},
		bankService: bankService,
	}
}

// RegisterRoutes registers bank routes behind the auth middleware
func (h *BankHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/bank", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/balance", h.GetBalance)
		r.Get("/transactions", h.ListTransactions)
	})
}

// GetBalance handles GET /bank/balance
// @Summary Check balance
// @Description Returns the balance of the authenticated user. Every check appends a zero-amount verification entry to the ledger.
// @Tags bank
// @Produce json
// @Security CookieAuth
// @Success 200 {object} models.BalanceResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Balance check failed"
// @Router /bank/balance [get]
func (h *BankHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetSubject(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "Unauthorized: No token provided")
		return
	}

	balance, err := h.bankService.RecordBalanceView(r.Context(), username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			h.RespondError(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		h.LogError(r, "failed to check balance", err)
		h.RespondError(w, http.StatusInternalServerError, "Balance check failed")
		return
	}

	h.RespondJSON(w, http.StatusOK, models.BalanceResponse{Balance: balance})
}

// ListTransactions handles GET /bank/transactions
// @Summary List recent transactions
// @Description Returns the newest ledger entries of the authenticated user, newest first.
// @Tags bank
// @Produce json
// @Security CookieAuth
// @Param limit query int false "Maximum number of entries (default 10, max 100)"
// @Success 200 {array} models.Transaction
// @Failure 400 {object} map[string]string "Invalid limit"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Transaction lookup failed"
// @Router /bank/transactions [get]
func (h *BankHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetSubject(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "Unauthorized: No token provided")
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	entries, err := h.bankService.ListRecent(r.Context(), username, limit)
	if err != nil {
		h.LogError(r, "failed to list transactions", err)
		h.RespondError(w, http.StatusInternalServerError, "Transaction lookup failed")
		return
	}

	h.RespondJSON(w, http.StatusOK, entries)
}

// parseLimit reads the optional limit query parameter, 0 when absent
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.New("invalid limit")
	}
	return limit, nil
}
