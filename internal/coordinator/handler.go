// Package coordinator implements C9: the HTTP surface and boot/shutdown
// orchestration that ties the dispatcher, merger, index, query engine, and
// status aggregator together into one process.
package coordinator

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/distindex/internal/dispatch"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/index"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/pending"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/query"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/status"
	apperrors "github.com/Adithya-Monish-Kumar-K/distindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/tracing"
)

// Handler implements the coordinator's HTTP endpoints.
type Handler struct {
	dispatcher   *dispatch.Dispatcher
	query        *query.Engine
	status       *status.Aggregator
	index        *index.Index
	pending      *pending.Set
	uploadsPath  string
	snapshotPath string
	logger       *slog.Logger
}

// NewHandler wires a Handler from the coordinator's component set.
func NewHandler(d *dispatch.Dispatcher, q *query.Engine, s *status.Aggregator, idx *index.Index, pendingSet *pending.Set, uploadsPath, snapshotPath string) *Handler {
	return &Handler{
		dispatcher:   d,
		query:        q,
		status:       s,
		index:        idx,
		pending:      pendingSet,
		uploadsPath:  uploadsPath,
		snapshotPath: snapshotPath,
		logger:       slog.Default().With("component", "coordinator-handler"),
	}
}

// TriggerLocalIndexing handles POST /trigger-local-indexing/.
func (h *Handler) TriggerLocalIndexing(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartSpan(r.Context(), "trigger_local_indexing", middleware.GetRequestID(r))
	defer func() { span.End(); span.Log() }()

	path := r.FormValue("path")
	if path == "" {
		path = h.uploadsPath
	}
	span.SetAttr("path", path)

	report, err := h.dispatcher.TriggerLocalIndexing(ctx, path)
	if err != nil {
		span.SetError(err)
		h.writeErr(w, err)
		return
	}

	failedFiles := make([][2]string, 0, len(report.FailedFiles))
	for _, f := range report.FailedFiles {
		failedFiles = append(failedFiles, [2]string{f.Name, f.Reason})
	}
	span.SetAttr("successful_dispatches", len(report.SuccessfulDispatches))
	span.SetAttr("failed_files", len(failedFiles))

	h.writeJSON(w, http.StatusAccepted, map[string]any{
		"message": "indexing triggered",
		"details": map[string]any{
			"successful_dispatches": report.SuccessfulDispatches,
			"failed_files":          failedFiles,
			"docs_currently_pending": report.PendingCount,
		},
	})
}

type searchRequest struct {
	Term string `json:"term"`
}

// Search handles POST /search/.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErr(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "malformed request body"))
		return
	}
	if strings.TrimSpace(req.Term) == "" {
		h.writeErr(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "term must not be empty"))
		return
	}

	ctx, span := tracing.StartSpan(r.Context(), "search", middleware.GetRequestID(r))
	span.SetAttr("term", req.Term)
	defer func() { span.End(); span.Log() }()

	postings, err := h.query.Search(ctx, req.Term)
	if err != nil {
		span.SetError(err)
		h.writeErr(w, err)
		return
	}
	span.SetAttr("result_count", len(postings))

	docs := make([][2]any, 0, len(postings))
	for _, p := range postings {
		docs = append(docs, [2]any{p.DocID, p.Frequency})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"docs": docs})
}

// IndexStatus handles GET /index-status/.
func (h *Handler) IndexStatus(w http.ResponseWriter, r *http.Request) {
	details := map[string]any{
		"total_terms_in_index":      h.index.TermCount(),
		"documents_pending_results": h.pending.Len(),
	}
	if age, ok := h.pending.OldestAge(); ok {
		details["oldest_pending_age_seconds"] = age.Seconds()
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "index status",
		"details": details,
	})
}

// SaveIndex handles POST /index/save/.
func (h *Handler) SaveIndex(w http.ResponseWriter, r *http.Request) {
	if err := h.index.Save(h.snapshotPath); err != nil {
		h.writeErr(w, apperrors.Newf(apperrors.ErrPersistenceFailure, http.StatusInternalServerError, "saving index: %v", err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "index saved"})
}

// LoadIndex handles POST /index/load/.
func (h *Handler) LoadIndex(w http.ResponseWriter, r *http.Request) {
	if err := h.index.Load(h.snapshotPath); err != nil {
		h.writeErr(w, apperrors.Newf(apperrors.ErrPersistenceFailure, http.StatusInternalServerError, "loading index: %v", err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "index loaded"})
}

// Healthz handles GET /healthz with the fixed, bit-exact response shape.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "coordinator is running",
	})
}

// WorkersStatus handles GET /workers/status/.
func (h *Handler) WorkersStatus(w http.ResponseWriter, r *http.Request) {
	records, err := h.status.ListWorkers(r.Context())
	if err != nil {
		h.writeErr(w, apperrors.Newf(apperrors.ErrBrokerUnavailable, http.StatusServiceUnavailable, "listing workers: %v", err))
		return
	}

	workers := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		workers = append(workers, map[string]any{
			"worker_id":         rec.WorkerID,
			"cpu_percent":       rec.CPUPercent,
			"ram_percent":       rec.RAMPercent,
			"status_ttl_seconds": rec.TTLRemaining.Seconds(),
			"queue_length":      rec.QueueLength,
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"workers": workers})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	h.writeJSON(w, status, map[string]string{"detail": err.Error()})
}
