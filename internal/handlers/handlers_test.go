package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kodbank/backend/internal/auth/middleware"
	"github.com/kodbank/backend/internal/auth/service"
	"github.com/kodbank/backend/internal/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "handler-test-secret-key"

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func newTestTokenGenerator() *service.TokenGenerator {
	return service.NewTokenGenerator(testSecret, time.Hour)
}

// passthrough is a no-op middleware used in place of rate limiters
func passthrough(next http.Handler) http.Handler {
	return next
}

// jsonBody encodes v as a request body
func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

// decodeBody decodes a JSON response body into a generic map
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// withSession adds a session cookie for username to req
func withSession(t *testing.T, req *http.Request, username string, role models.Role) *http.Request {
	t.Helper()
	token, _, err := newTestTokenGenerator().GenerateToken(username, role)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	return req
}

// withIdentity injects an authenticated identity, bypassing the gate
func withIdentity(req *http.Request, username string, role models.Role) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), username, role))
}

// serve routes req through a chi router set up by mount
func serve(mount func(r chi.Router), req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	mount(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	return m.err
}
