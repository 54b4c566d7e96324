package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kodbank/backend/internal/middlewares"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// DecodeJSON decodes the request body into dst
func (h *BaseHandler) DecodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// LogError logs a failed request with its request ID.
// The error stays server side: clients only get a generic message.
func (h *BaseHandler) LogError(r *http.Request, msg string, err error) {
	h.Logger.Error(msg,
		zap.String("request_id", middlewares.GetRequestID(r.Context())),
		zap.Error(err),
	)
}
