// Package integration contains tests that verify the interaction between
// multiple coordinator components. These tests use an httptest server with
// real handler and router wiring but a fake in-memory broker, so they
// exercise the full HTTP surface without a live Redis.
//
// Run with:
//
//	go test -v ./test/integration/...
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/distindex/internal/broker"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/coordinator"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/dispatch"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/index"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/merge"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/pending"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/query"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/status"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/health"
)

// testCoordinator wires a full coordinator HTTP handler over a fake broker
// and a live merger goroutine, the same set of components coordinator.Boot
// assembles, minus the Redis dial.
type testCoordinator struct {
	server       *httptest.Server
	fake         *broker.Fake
	idx          *index.Index
	cancelMerger context.CancelFunc
}

func newTestCoordinator(t *testing.T) *testCoordinator {
	t.Helper()

	fake := broker.NewFake()
	idx := index.New()
	pendingSet := pending.New()
	uploadsDir := t.TempDir()
	snapshotPath := filepath.Join(t.TempDir(), "index.gz")

	merger := merge.New(fake, idx, pendingSet, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go merger.Run(ctx)

	handler := coordinator.NewHandler(
		dispatch.New(fake, pendingSet, time.Second, nil),
		query.New(idx, config.English, nil),
		status.New(fake, 2*time.Second, time.Second, nil),
		idx, pendingSet, uploadsDir, snapshotPath,
	)
	checker := health.NewChecker()
	checker.Register("broker", func(ctx context.Context) health.ComponentHealth {
		if err := fake.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	router := coordinator.NewRouter(handler, checker, nil, 5*time.Second)

	srv := httptest.NewServer(router)
	t.Cleanup(func() { srv.Close(); cancel() })

	return &testCoordinator{server: srv, fake: fake, idx: idx, cancelMerger: cancel}
}

func (tc *testCoordinator) waitForSubscriber(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if tc.fake.SubscriberCount() > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("merger never subscribed")
}

// TestHealthzAndReadyz verifies both ambient and spec-fixed health endpoints
// respond without requiring any request body.
func TestHealthzAndReadyz(t *testing.T) {
	tc := newTestCoordinator(t)

	resp, err := http.Get(tc.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz: expected 200, got %d", resp.StatusCode)
	}

	resp2, err := http.Get(tc.server.URL + "/readyz")
	if err != nil {
		t.Fatalf("readyz request failed: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Errorf("readyz: expected 200 with a reachable broker, got %d", resp2.StatusCode)
	}
}

// TestTriggerIndexingWithNoWorkersReturns503 verifies the coordinator's HTTP
// surface surfaces a whole-request 503 rather than a partial 202 when no
// worker heartbeats are present.
func TestTriggerIndexingWithNoWorkersReturns503(t *testing.T) {
	tc := newTestCoordinator(t)

	resp, err := http.Post(tc.server.URL+"/trigger-local-indexing/", "application/json", nil)
	if err != nil {
		t.Fatalf("trigger request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

// TestWorkerStatusAndSearchEndToEnd simulates a worker reporting a heartbeat
// and publishing a partial result, then verifies the coordinator's
// /workers/status/ and /search/ endpoints reflect it.
func TestWorkerStatusAndSearchEndToEnd(t *testing.T) {
	tc := newTestCoordinator(t)
	ctx := context.Background()

	if err := tc.fake.SetWorkerStatus(ctx, "worker-1", broker.WorkerStatus{CPUPercent: 3, RAMPercent: 7}, time.Minute); err != nil {
		t.Fatalf("SetWorkerStatus: %v", err)
	}

	resp, err := http.Get(tc.server.URL + "/workers/status/")
	if err != nil {
		t.Fatalf("workers status request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var workersResp struct {
		Workers []map[string]any `json:"workers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&workersResp); err != nil {
		t.Fatalf("decoding workers response: %v", err)
	}
	if len(workersResp.Workers) != 1 {
		t.Fatalf("workers = %v, want 1 entry", workersResp.Workers)
	}

	tc.waitForSubscriber(t)
	partial := broker.NewPartialIndexResult("worker-1", "report.txt", map[string]int{"quarter": 4, "revenu": 2})
	if err := tc.fake.PublishPartial(ctx, partial); err != nil {
		t.Fatalf("PublishPartial: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && tc.idx.TermCount() == 0 {
		time.Sleep(5 * time.Millisecond)
	}

	body, _ := json.Marshal(map[string]string{"term": "quarterly"})
	searchResp, err := http.Post(tc.server.URL+"/search/", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("search request failed: %v", err)
	}
	defer searchResp.Body.Close()
	if searchResp.StatusCode != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", searchResp.StatusCode)
	}
	var searchBody struct {
		Docs [][2]any `json:"docs"`
	}
	if err := json.NewDecoder(searchResp.Body).Decode(&searchBody); err != nil {
		t.Fatalf("decoding search response: %v", err)
	}
	if len(searchBody.Docs) != 1 || searchBody.Docs[0][0] != "report.txt" {
		t.Errorf("docs = %v, want [[report.txt 4]]", searchBody.Docs)
	}
}

// TestSaveAndLoadIndexOverHTTP exercises the snapshot round trip through the
// HTTP surface rather than calling index.Save/Load directly.
func TestSaveAndLoadIndexOverHTTP(t *testing.T) {
	tc := newTestCoordinator(t)
	tc.idx.Merge("budget", "doc.txt", 5)

	resp, err := http.Post(tc.server.URL+"/index/save/", "application/json", nil)
	if err != nil {
		t.Fatalf("save request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save: expected 200, got %d", resp.StatusCode)
	}

	tc.idx.Merge("other", "doc2.txt", 9) // mutate after save

	resp2, err := http.Post(tc.server.URL+"/index/load/", "application/json", nil)
	if err != nil {
		t.Fatalf("load request failed: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("load: expected 200, got %d", resp2.StatusCode)
	}
	if tc.idx.TermCount() != 1 {
		t.Errorf("TermCount() after reload = %d, want 1", tc.idx.TermCount())
	}
}
