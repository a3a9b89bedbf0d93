package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID assigns each request a short id (reusing one supplied by an
// upstream proxy if present), attaches it to the request context via
// logger.WithRequestID, and echoes it back in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = newRequestID()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := logger.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request id a handler can use for correlated
// logging, returning "" if none was attached.
func GetRequestID(r *http.Request) string {
	id, _ := logger.RequestIDFromContext(r.Context())
	return id
}

func newRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
