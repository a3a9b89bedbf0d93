package status

import (
	"context"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/distindex/internal/broker"
)

func TestListWorkersLexicographicOrder(t *testing.T) {
	ctx := context.Background()
	fake := broker.NewFake()
	fake.SetWorkerStatus(ctx, "worker-z", broker.WorkerStatus{CPUPercent: 1, RAMPercent: 1}, time.Minute)
	fake.SetWorkerStatus(ctx, "worker-a", broker.WorkerStatus{CPUPercent: 2, RAMPercent: 2}, time.Minute)

	a := New(fake, 2*time.Second, time.Second, nil)
	records, err := a.ListWorkers(ctx)
	if err != nil {
		t.Fatalf("ListWorkers: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ListWorkers() returned %d records, want 2", len(records))
	}
	if records[0].WorkerID != "worker-a" || records[1].WorkerID != "worker-z" {
		t.Errorf("ListWorkers() order = [%s, %s], want [worker-a, worker-z]", records[0].WorkerID, records[1].WorkerID)
	}
}

func TestListWorkersEmpty(t *testing.T) {
	fake := broker.NewFake()
	a := New(fake, 2*time.Second, time.Second, nil)
	records, err := a.ListWorkers(context.Background())
	if err != nil {
		t.Fatalf("ListWorkers: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("ListWorkers() = %v, want empty", records)
	}
}
