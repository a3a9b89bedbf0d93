package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/distindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/metrics"
)

// Timeout bounds request handling to timeout, returning the same
// {"detail": ...} error envelope as the handler package's own writeErr
// instead of an ad hoc body, so a timed-out request looks like any other
// failed request to a client. m may be nil, in which case no metric is
// recorded (tests wiring a router without a metrics registry).
func Timeout(timeout time.Duration, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			done := make(chan struct{})
			tw := &timeoutWriter{ResponseWriter: w}
			go func() {
				next.ServeHTTP(tw, r.WithContext(ctx))
				close(done)
			}()
			select {
			case <-done:
			case <-ctx.Done():
				if !tw.written {
					slog.Warn("request timed out", "method", r.Method, "path", r.URL.Path, "timeout", timeout)
					if m != nil {
						m.RequestTimeoutsTotal.Inc()
					}
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(apperrors.HTTPStatusCode(apperrors.ErrRequestTimeout))
					json.NewEncoder(w).Encode(map[string]string{"detail": apperrors.ErrRequestTimeout.Error()})
				}
			}
		})
	}
}

type timeoutWriter struct {
	http.ResponseWriter
	written bool
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.written = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.written = true
	return tw.ResponseWriter.Write(b)
}
