package coordinator

import (
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/middleware"
)

// NewRouter builds the full coordinator HTTP handler: the fixed route table
// plus the ambient /readyz and /metrics additions, wrapped in the standard
// middleware chain.
//
// Middleware chain (outermost first):
//
//	RequestID → AccessLog → Recover → Metrics → Timeout → mux
func NewRouter(h *Handler, checker *health.Checker, m *metrics.Metrics, requestTimeout time.Duration) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /trigger-local-indexing/", h.TriggerLocalIndexing)
	mux.HandleFunc("POST /search/", h.Search)
	mux.HandleFunc("GET /index-status/", h.IndexStatus)
	mux.HandleFunc("POST /index/save/", h.SaveIndex)
	mux.HandleFunc("POST /index/load/", h.LoadIndex)
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /workers/status/", h.WorkersStatus)

	mux.HandleFunc("GET /readyz", checker.ReadyHandler())
	mux.Handle("GET /metrics", metrics.Handler())

	var chain http.Handler = mux
	chain = middleware.Timeout(requestTimeout, m)(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.Recover(chain)
	chain = middleware.AccessLog(chain)
	chain = middleware.RequestID(chain)

	return chain
}
