package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kodbank/backend/internal/auth/middleware"
	"github.com/kodbank/backend/internal/auth/service"
	"github.com/kodbank/backend/internal/models"
	"github.com/kodbank/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAuthService is a mock implementation of AuthService
type mockAuthService struct {
	registerID  int
	registerErr error
	loginResult *services.LoginResult
	loginErr    error
	changeErr   error
	profile     *models.ProfileResponse
	profileErr  error
	loggedOut   []string
	changedFor  string
}

func (m *mockAuthService) Register(ctx context.Context, req *models.RegisterRequest) (int, error) {
	return m.registerID, m.registerErr
}

func (m *mockAuthService) Login(ctx context.Context, req *models.LoginRequest) (*services.LoginResult, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.loginResult, nil
}

func (m *mockAuthService) ChangePassword(ctx context.Context, username string, req *models.ChangePasswordRequest) error {
	m.changedFor = username
	return m.changeErr
}

func (m *mockAuthService) Profile(ctx context.Context, username string) (*models.ProfileResponse, error) {
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	return m.profile, nil
}

func (m *mockAuthService) Logout(ctx context.Context, username string) {
	m.loggedOut = append(m.loggedOut, username)
}

func mountAuth(h *AuthHandler) func(r chi.Router) {
	return func(r chi.Router) {
		h.RegisterRoutes(r, middleware.AuthMiddleware(newTestTokenGenerator()), passthrough)
	}
}

func newTestAuthHandler(svc *mockAuthService) *AuthHandler {
	return NewAuthHandler(svc, newTestTokenGenerator(), newTestTokenGenerator().Expiry(), false, newTestLogger())
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		svc            *mockAuthService
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "success",
			body:           `{"username":"alice","email":"alice@x.com","password":"pw123","phone":"555-1111"}`,
			svc:            &mockAuthService{registerID: 7},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "malformed body",
			body:           `{"username":`,
			svc:            &mockAuthService{},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
		{
			name:           "validation error",
			body:           `{"username":"alice","email":"bad","password":"pw123"}`,
			svc:            &mockAuthService{registerErr: fmt.Errorf("%w: invalid email format", services.ErrValidation)},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "validation failed: invalid email format",
		},
		{
			name:           "duplicate identity",
			body:           `{"username":"alice","email":"alice@x.com","password":"pw123"}`,
			svc:            &mockAuthService{registerErr: models.ErrDuplicateIdentity},
			expectedStatus: http.StatusConflict,
			expectedError:  "Registration failed. Username or email might already exist.",
		},
		{
			name:           "configuration error",
			body:           `{"username":"alice","email":"alice@x.com","password":"pw123"}`,
			svc:            &mockAuthService{registerErr: service.ErrConfiguration},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Server configuration error",
		},
		{
			name:           "store failure is not leaked",
			body:           `{"username":"alice","email":"alice@x.com","password":"pw123"}`,
			svc:            &mockAuthService{registerErr: errors.New("Error 1045: Access denied for user 'root'")},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Registration failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tt.body))

			w := serve(mountAuth(newTestAuthHandler(tt.svc)), req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decodeBody(t, w)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, body["error"])
				return
			}
			assert.Equal(t, "Registration successful", body["message"])
			assert.EqualValues(t, 7, body["userId"])
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		svc            *mockAuthService
		expectedStatus int
		expectedError  string
	}{
		{
			name: "success",
			body: `{"username":"alice","password":"pw123"}`,
			svc: &mockAuthService{loginResult: &services.LoginResult{
				Token:    "signed-token",
				Username: "alice",
				Role:     models.RoleCustomer,
			}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid credentials",
			body:           `{"username":"alice","password":"wrong"}`,
			svc:            &mockAuthService{loginErr: services.ErrInvalidCredentials},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid username or password",
		},
		{
			name:           "malformed body",
			body:           `not json`,
			svc:            &mockAuthService{},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
		{
			name:           "configuration error",
			body:           `{"username":"alice","password":"pw123"}`,
			svc:            &mockAuthService{loginErr: service.ErrConfiguration},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Server configuration error",
		},
		{
			name:           "store failure",
			body:           `{"username":"alice","password":"pw123"}`,
			svc:            &mockAuthService{loginErr: errors.New("connection refused")},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Login failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body))

			w := serve(mountAuth(newTestAuthHandler(tt.svc)), req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decodeBody(t, w)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, body["error"])
				assert.Empty(t, w.Result().Cookies())
				return
			}

			assert.Equal(t, "Login successful", body["message"])
			assert.Equal(t, "alice", body["username"])
			assert.Equal(t, "Customer", body["role"])

			cookies := w.Result().Cookies()
			require.Len(t, cookies, 1)
			cookie := cookies[0]
			assert.Equal(t, middleware.SessionCookieName, cookie.Name)
			assert.Equal(t, "signed-token", cookie.Value)
			assert.True(t, cookie.HttpOnly)
			assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
			assert.Equal(t, 3600, cookie.MaxAge)
			assert.Equal(t, "/", cookie.Path)
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("with valid session", func(t *testing.T) {
		svc := &mockAuthService{}
		req := withSession(t, httptest.NewRequest(http.MethodPost, "/auth/logout", nil), "alice", models.RoleCustomer)

		w := serve(mountAuth(newTestAuthHandler(svc)), req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Logged out", decodeBody(t, w)["message"])
		assert.Equal(t, []string{"alice"}, svc.loggedOut)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, middleware.SessionCookieName, cookies[0].Name)
		assert.Empty(t, cookies[0].Value)
		assert.Less(t, cookies[0].MaxAge, 0)
	})

	t.Run("without session", func(t *testing.T) {
		svc := &mockAuthService{}
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)

		w := serve(mountAuth(newTestAuthHandler(svc)), req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, svc.loggedOut)
	})

	t.Run("with invalid token", func(t *testing.T) {
		svc := &mockAuthService{}
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "garbage"})

		w := serve(mountAuth(newTestAuthHandler(svc)), req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, svc.loggedOut)
	})
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	tests := []struct {
		name           string
		authenticated  bool
		body           string
		svc            *mockAuthService
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "success",
			authenticated:  true,
			body:           `{"currentPassword":"pw123","newPassword":"newpw456"}`,
			svc:            &mockAuthService{},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "no session",
			body:           `{"currentPassword":"pw123","newPassword":"newpw456"}`,
			svc:            &mockAuthService{},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Unauthorized: No token provided",
		},
		{
			name:           "wrong current password",
			authenticated:  true,
			body:           `{"currentPassword":"nope","newPassword":"newpw456"}`,
			svc:            &mockAuthService{changeErr: services.ErrWrongPassword},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Current password is incorrect",
		},
		{
			name:           "invalid new password",
			authenticated:  true,
			body:           `{"currentPassword":"pw123","newPassword":"x"}`,
			svc:            &mockAuthService{changeErr: fmt.Errorf("%w: too short", services.ErrValidation)},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "user gone",
			authenticated:  true,
			body:           `{"currentPassword":"pw123","newPassword":"newpw456"}`,
			svc:            &mockAuthService{changeErr: models.ErrUserNotFound},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "malformed body",
			authenticated:  true,
			body:           `[`,
			svc:            &mockAuthService{},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/change-password", strings.NewReader(tt.body))
			if tt.authenticated {
				req = withSession(t, req, "alice", models.RoleCustomer)
			}

			w := serve(mountAuth(newTestAuthHandler(tt.svc)), req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeBody(t, w)["error"])
			}
			if !tt.authenticated {
				assert.Empty(t, tt.svc.changedFor)
			}
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "alice", tt.svc.changedFor)
			}
		})
	}
}

func TestAuthHandler_Profile(t *testing.T) {
	profile := &models.ProfileResponse{Username: "alice", Email: "alice@x.com", Role: models.RoleCustomer, TransactionCount: 3}

	t.Run("success", func(t *testing.T) {
		req := withSession(t, httptest.NewRequest(http.MethodGet, "/auth/profile", nil), "alice", models.RoleCustomer)

		w := serve(mountAuth(newTestAuthHandler(&mockAuthService{profile: profile})), req)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "alice", body["username"])
		assert.EqualValues(t, 3, body["transactionCount"])
	})

	t.Run("no backing user", func(t *testing.T) {
		req := withSession(t, httptest.NewRequest(http.MethodGet, "/auth/profile", nil), "ghost", models.RoleCustomer)

		w := serve(mountAuth(newTestAuthHandler(&mockAuthService{profileErr: models.ErrUserNotFound})), req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("no session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)

		w := serve(mountAuth(newTestAuthHandler(&mockAuthService{profile: profile})), req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
