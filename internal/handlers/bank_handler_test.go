package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kodbank/backend/internal/auth/middleware"
	"github.com/kodbank/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBankService is a mock implementation of BankService
type mockBankService struct {
	balance    decimal.Decimal
	balanceErr error
	entries    []*models.Transaction
	listErr    error

	views     int
	lastLimit int
}

func (m *mockBankService) RecordBalanceView(ctx context.Context, username string) (decimal.Decimal, error) {
	m.views++
	if m.balanceErr != nil {
		return decimal.Zero, m.balanceErr
	}
	return m.balance, nil
}

func (m *mockBankService) ListRecent(ctx context.Context, username string, limit int) ([]*models.Transaction, error) {
	m.lastLimit = limit
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.entries, nil
}

func mountBank(h *BankHandler) func(r chi.Router) {
	return func(r chi.Router) {
		h.RegisterRoutes(r, middleware.AuthMiddleware(newTestTokenGenerator()))
	}
}

func TestBankHandler_GetBalance(t *testing.T) {
	tests := []struct {
		name           string
		authenticated  bool
		svc            *mockBankService
		expectedStatus int
		expectedBody   string
		expectedViews  int
	}{
		{
			name:           "success",
			authenticated:  true,
			svc:            &mockBankService{balance: decimal.RequireFromString("100000.00")},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"balance":100000}`,
			expectedViews:  1,
		},
		{
			name:           "fractional balance",
			authenticated:  true,
			svc:            &mockBankService{balance: decimal.RequireFromString("1200.50")},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"balance":1200.5}`,
			expectedViews:  1,
		},
		{
			name:           "no cookie",
			svc:            &mockBankService{},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"Unauthorized: No token provided"}`,
		},
		{
			name:           "no backing user",
			authenticated:  true,
			svc:            &mockBankService{balanceErr: models.ErrUserNotFound},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"User not found"}`,
			expectedViews:  1,
		},
		{
			name:           "store failure",
			authenticated:  true,
			svc:            &mockBankService{balanceErr: errors.New("failed to record balance view: deadlock")},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Balance check failed"}`,
			expectedViews:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/bank/balance", nil)
			if tt.authenticated {
				req = withSession(t, req, "alice", models.RoleCustomer)
			}

			w := serve(mountBank(NewBankHandler(tt.svc, newTestLogger())), req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			assert.Equal(t, tt.expectedViews, tt.svc.views)
		})
	}
}

func TestBankHandler_GetBalance_ExpiredToken(t *testing.T) {
	svc := &mockBankService{balance: decimal.NewFromInt(1)}
	req := httptest.NewRequest(http.MethodGet, "/bank/balance", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "not-a-jwt"})

	w := serve(mountBank(NewBankHandler(svc, newTestLogger())), req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized: Invalid or expired token"}`, w.Body.String())
	assert.Zero(t, svc.views)
}

func TestBankHandler_ListTransactions(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []*models.Transaction{
		{ID: 4, UserID: 1, Kind: models.TransactionCredit, Amount: decimal.Zero, Description: models.BalanceViewDescription, Status: models.TransactionCompleted, CreatedAt: created},
		{ID: 3, UserID: 1, Kind: models.TransactionCredit, Amount: decimal.RequireFromString("1200.50"), Description: "Dividend Payout", Status: models.TransactionCompleted, CreatedAt: created},
	}

	tests := []struct {
		name           string
		query          string
		svc            *mockBankService
		expectedStatus int
		expectedLimit  int
		expectedLen    int
	}{
		{
			name:           "default limit",
			svc:            &mockBankService{entries: entries},
			expectedStatus: http.StatusOK,
			expectedLimit:  0,
			expectedLen:    2,
		},
		{
			name:           "explicit limit",
			query:          "?limit=25",
			svc:            &mockBankService{entries: entries},
			expectedStatus: http.StatusOK,
			expectedLimit:  25,
			expectedLen:    2,
		},
		{
			name:           "empty ledger",
			svc:            &mockBankService{entries: []*models.Transaction{}},
			expectedStatus: http.StatusOK,
			expectedLen:    0,
		},
		{
			name:           "invalid limit",
			query:          "?limit=abc",
			svc:            &mockBankService{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negative limit",
			query:          "?limit=-1",
			svc:            &mockBankService{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "store failure",
			svc:            &mockBankService{listErr: errors.New("database error")},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withSession(t, httptest.NewRequest(http.MethodGet, "/bank/transactions"+tt.query, nil), "alice", models.RoleCustomer)

			w := serve(mountBank(NewBankHandler(tt.svc, newTestLogger())), req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			assert.Equal(t, tt.expectedLimit, tt.svc.lastLimit)
			var body []map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Len(t, body, tt.expectedLen)
			if tt.expectedLen > 0 {
				assert.Equal(t, "Credit", body[0]["type"])
				assert.EqualValues(t, 0, body[0]["amount"])
				assert.Equal(t, models.BalanceViewDescription, body[0]["description"])
				assert.EqualValues(t, 1200.5, body[1]["amount"])
			}
		})
	}
}

func TestBankHandler_DirectCallWithoutIdentity(t *testing.T) {
	h := NewBankHandler(&mockBankService{}, newTestLogger())
	w := httptest.NewRecorder()

	h.GetBalance(w, httptest.NewRequest(http.MethodGet, "/bank/balance", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	h.ListTransactions(w, withIdentity(httptest.NewRequest(http.MethodGet, "/bank/transactions", nil), "alice", models.RoleCustomer))
	assert.Equal(t, http.StatusOK, w.Code)
}
