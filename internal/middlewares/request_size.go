package middlewares

import (
	"net/http"

	"go.uber.org/zap"
)

// DefaultMaxRequestSize bounds JSON request bodies; credential and ledger payloads are tiny
const DefaultMaxRequestSize int64 = 1 << 20

// RequestSizeLimitMiddleware rejects bodies declared larger than maxRequestSize with 413
// and caps undeclared (chunked) bodies while they are read.
// A non-positive maxRequestSize falls back to DefaultMaxRequestSize.
func RequestSizeLimitMiddleware(maxRequestSize int64, logger *zap.Logger) func(http.Handler) http.Handler {
	if maxRequestSize <= 0 {
		maxRequestSize = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxRequestSize {
				logger.Warn("request body too large",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int64("content_length", r.ContentLength),
					zap.Int64("limit", maxRequestSize),
				)
				writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}

			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSONError writes the {"error": message} body every handler answers with
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
