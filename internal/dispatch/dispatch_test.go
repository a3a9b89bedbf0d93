package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/distindex/internal/broker"
	"github.com/Adithya-Monish-Kumar-K/distindex/internal/pending"
)

func TestDispatchNoWorkersAvailable(t *testing.T) {
	fake := broker.NewFake()
	d := New(fake, pending.New(), time.Second, nil)
	_, err := d.Dispatch(context.Background(), broker.DocumentTask{DocID: "a.txt", Content: "hello"})
	if err == nil {
		t.Fatal("expected NoWorkersAvailable error, got nil")
	}
}

func TestDispatchPicksLowestScore(t *testing.T) {
	ctx := context.Background()
	fake := broker.NewFake()
	// worker-a: idle but higher CPU; worker-b: one queued task already.
	fake.SetWorkerStatus(ctx, "worker-a", broker.WorkerStatus{CPUPercent: 80, RAMPercent: 10}, time.Minute)
	fake.SetWorkerStatus(ctx, "worker-b", broker.WorkerStatus{CPUPercent: 5, RAMPercent: 5}, time.Minute)
	fake.EnqueueTask(ctx, "worker-b", broker.DocumentTask{DocID: "existing.txt", Content: "x"})

	d := New(fake, pending.New(), time.Second, nil)
	// worker-a score: 0*10 + 80*0.5 + 10*0.3 = 43
	// worker-b score: 1*10 + 5*0.5 + 5*0.3 = 10.0 + 2.5 + 1.5 = 14
	chosen, err := d.Dispatch(ctx, broker.DocumentTask{DocID: "new.txt", Content: "y"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if chosen != "worker-b" {
		t.Errorf("Dispatch chose %q, want worker-b", chosen)
	}
}

func TestDispatchTieBreaksByWorkerIDAscending(t *testing.T) {
	ctx := context.Background()
	fake := broker.NewFake()
	fake.SetWorkerStatus(ctx, "worker-z", broker.WorkerStatus{CPUPercent: 10, RAMPercent: 10}, time.Minute)
	fake.SetWorkerStatus(ctx, "worker-a", broker.WorkerStatus{CPUPercent: 10, RAMPercent: 10}, time.Minute)

	d := New(fake, pending.New(), time.Second, nil)
	chosen, err := d.Dispatch(ctx, broker.DocumentTask{DocID: "new.txt", Content: "y"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if chosen != "worker-a" {
		t.Errorf("Dispatch chose %q, want worker-a (lexicographically first)", chosen)
	}
}

func TestTriggerLocalIndexingSkipsEmptyFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "cats and dogs")
	writeFile(t, dir, "empty.txt", "   \n\t")
	writeFile(t, dir, "ignored.md", "not a txt file")

	fake := broker.NewFake()
	fake.SetWorkerStatus(ctx, "worker-a", broker.WorkerStatus{CPUPercent: 1, RAMPercent: 1}, time.Minute)

	d := New(fake, pending.New(), time.Second, nil)
	report, err := d.TriggerLocalIndexing(ctx, dir)
	if err != nil {
		t.Fatalf("TriggerLocalIndexing: %v", err)
	}
	if len(report.SuccessfulDispatches) != 1 || report.SuccessfulDispatches[0] != "a.txt" {
		t.Errorf("SuccessfulDispatches = %v, want [a.txt]", report.SuccessfulDispatches)
	}
	if len(report.FailedFiles) != 1 || report.FailedFiles[0].Name != "empty.txt" {
		t.Errorf("FailedFiles = %v, want [empty.txt]", report.FailedFiles)
	}
	if report.PendingCount != 1 {
		t.Errorf("PendingCount = %d, want 1", report.PendingCount)
	}
}

func TestTriggerLocalIndexingNoWorkersFailsUpfront(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "content")

	fake := broker.NewFake()
	d := New(fake, pending.New(), time.Second, nil)
	_, err := d.TriggerLocalIndexing(ctx, dir)
	if err == nil {
		t.Fatal("expected NoWorkersAvailable error when no live workers exist")
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}
