package gateway

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"novacall/internal/engine"
	"novacall/internal/store"
	"novacall/internal/task"
	"novacall/internal/transcript"
)

// nopScheduler accepts work without executing it.
type nopScheduler struct {
	enqueued []string
	err      error
}

func (s *nopScheduler) Enqueue(callID string) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, callID)
	return nil
}

func TestSubmitReturnsQueued(t *testing.T) {
	mem := store.NewMemory()
	tasks := task.NewRepository(mem)
	sched := &nopScheduler{}
	gw := New(tasks, sched, slog.Default())

	res, err := gw.Submit(context.Background(), task.NewCallTask{
		TargetPhone:  "+15551234567",
		Intent:       "confirm appointment",
		VoiceModelID: "v1",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if res.ID == "" {
		t.Fatalf("expected non-empty id")
	}
	if res.Status != StatusQueued {
		t.Fatalf("expected %q, got %q", StatusQueued, res.Status)
	}
	if len(sched.enqueued) != 1 || sched.enqueued[0] != res.ID {
		t.Fatalf("expected run scheduled for %q, got %v", res.ID, sched.enqueued)
	}

	got, err := tasks.Get(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != task.StatusPending {
		t.Fatalf("expected pending before execution, got %q", got.Status)
	}
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	gw := New(task.NewRepository(store.NewMemory()), &nopScheduler{}, slog.Default())

	_, err := gw.Submit(context.Background(), task.NewCallTask{Intent: "confirm appointment"})
	if !errors.Is(err, task.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSubmitSurfacesQueueSaturation(t *testing.T) {
	gw := New(task.NewRepository(store.NewMemory()), &nopScheduler{err: engine.ErrQueueFull}, slog.Default())

	_, err := gw.Submit(context.Background(), task.NewCallTask{
		TargetPhone:  "+15551234567",
		Intent:       "confirm appointment",
		VoiceModelID: "v1",
	})
	if !errors.Is(err, engine.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

// End-to-end through the real dispatcher and engine against the memory store.
func TestSubmitThroughDispatcher(t *testing.T) {
	mem := store.NewMemory()
	tasks := task.NewRepository(mem)
	transcripts := transcript.NewRepository(mem)

	eng := engine.New(tasks, transcripts, engine.Config{StepInterval: time.Millisecond})
	d := engine.NewDispatcher(eng, nil, engine.DispatcherConfig{Workers: 2, QueueSize: 8}, slog.Default())
	d.Start(context.Background())

	gw := New(tasks, d, slog.Default())

	res, err := gw.Submit(context.Background(), task.NewCallTask{
		TargetPhone:  "+15551234567",
		Intent:       "confirm appointment",
		VoiceModelID: "v1",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// observed statuses must only move forward through the lifecycle
	order := map[task.Status]int{
		task.StatusPending:    0,
		task.StatusInProgress: 1,
		task.StatusCompleted:  2,
	}
	seen := -1
	deadline := time.Now().Add(5 * time.Second)
	for {
		got, err := tasks.Get(context.Background(), res.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		rank, ok := order[got.Status]
		if !ok {
			t.Fatalf("unexpected status %q", got.Status)
		}
		if rank < seen {
			t.Fatalf("status went backwards: %q after rank %d", got.Status, seen)
		}
		seen = rank
		if got.Status == task.StatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("task did not complete, stuck at %q", got.Status)
		}
		time.Sleep(2 * time.Millisecond)
	}

	d.Stop()

	entries, err := transcripts.ListByCall(context.Background(), res.ID, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) < 5 {
		t.Fatalf("expected at least 5 entries, got %d", len(entries))
	}
	if entries[len(entries)-1].Outcome != string(task.StatusCompleted) {
		t.Fatalf("expected completed outcome on final entry, got %q", entries[len(entries)-1].Outcome)
	}
}
