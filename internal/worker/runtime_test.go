package worker

import (
	"context"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/distindex/internal/broker"
	"github.com/Adithya-Monish-Kumar-K/distindex/pkg/config"
)

func TestRuntimeIDIsStable(t *testing.T) {
	fake := broker.NewFake()
	r1 := New(fake, "worker", config.English, 2*time.Second)
	r2 := New(fake, "worker", config.English, 2*time.Second)
	if r1.ID() != r2.ID() {
		t.Errorf("ID() not stable across instances in the same process: %q != %q", r1.ID(), r2.ID())
	}
}

func TestProcessTaskPublishesPartialResult(t *testing.T) {
	ctx := context.Background()
	fake := broker.NewFake()
	r := New(fake, "worker", config.English, 2*time.Second)

	sub, err := fake.SubscribePartials(ctx)
	if err != nil {
		t.Fatalf("SubscribePartials: %v", err)
	}
	defer sub.Close()

	r.processTask(ctx, broker.DocumentTask{DocID: "a.txt", Content: "Cats and dogs and cats"})

	result, ok, err := sub.Next(ctx)
	if err != nil || !ok {
		t.Fatalf("Next() = (%v, %v, %v), want a delivered result", result, ok, err)
	}
	if result.DocID != "a.txt" || result.WorkerID != r.ID() {
		t.Errorf("result = %+v, want doc a.txt from %s", result, r.ID())
	}
	freqs := result.Frequencies()
	if freqs["cat"] != 2 || freqs["dog"] != 1 {
		t.Errorf("Frequencies() = %v, want cat:2 dog:1", freqs)
	}
}

func TestProcessTaskEmptyContentPublishesEmptyPartial(t *testing.T) {
	ctx := context.Background()
	fake := broker.NewFake()
	r := New(fake, "worker", config.English, 2*time.Second)

	sub, err := fake.SubscribePartials(ctx)
	if err != nil {
		t.Fatalf("SubscribePartials: %v", err)
	}
	defer sub.Close()

	r.processTask(ctx, broker.DocumentTask{DocID: "empty.txt", Content: "and the"})

	result, ok, err := sub.Next(ctx)
	if err != nil || !ok {
		t.Fatalf("Next() = (%v, %v, %v), want a delivered result", result, ok, err)
	}
	if result.DocID != "empty.txt" {
		t.Errorf("DocID = %q, want empty.txt", result.DocID)
	}
	if len(result.Partial) != 0 {
		t.Errorf("Partial = %v, want empty", result.Partial)
	}
}

func TestHeartbeatLoopPublishesStatus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fake := broker.NewFake()
	r := New(fake, "worker", config.English, 20*time.Millisecond)

	go r.runHeartbeatLoop(ctx)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		status, err := fake.GetWorkerStatus(ctx, r.ID())
		if err == nil && status != nil {
			cancel()
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	t.Fatal("heartbeat loop never published a worker status")
}
