package broker

import "testing"

func TestTaskQueueKey(t *testing.T) {
	got := TaskQueueKey("worker-1")
	want := "doc_processing_tasks:worker-1"
	if got != want {
		t.Errorf("TaskQueueKey() = %q, want %q", got, want)
	}
}

func TestWorkerStatusKey(t *testing.T) {
	got := WorkerStatusKey("worker-1")
	want := "worker_status:worker-1"
	if got != want {
		t.Errorf("WorkerStatusKey() = %q, want %q", got, want)
	}
}

func TestWorkerIDFromStatusKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"worker_status:worker-1", "worker-1"},
		{"worker_status:", ""},
		{"worker_status", ""},
		{"garbage", ""},
	}
	for _, tt := range tests {
		if got := WorkerIDFromStatusKey(tt.key); got != tt.want {
			t.Errorf("WorkerIDFromStatusKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestPartialIndexResultFrequencies(t *testing.T) {
	result := NewPartialIndexResult("worker-1", "doc-1", map[string]int{
		"search": 3,
		"index":  1,
	})
	freqs := result.Frequencies()
	if freqs["search"] != 3 || freqs["index"] != 1 {
		t.Errorf("Frequencies() = %v, want search:3 index:1", freqs)
	}
	for term, byDoc := range result.Partial {
		if _, ok := byDoc["doc-1"]; !ok {
			t.Errorf("Partial[%q] missing doc-1 key", term)
		}
	}
}
