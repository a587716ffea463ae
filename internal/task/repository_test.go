package task

import (
	"context"
	"errors"
	"testing"

	"novacall/internal/store"
)

func TestCreateRejectsInvalidInput(t *testing.T) {
	repo := NewRepository(store.NewMemory())
	ctx := context.Background()

	cases := []NewCallTask{
		{Intent: "confirm appointment", VoiceModelID: "v1"},
		{TargetPhone: "+15551234567", VoiceModelID: "v1"},
		{TargetPhone: "+15551234567", Intent: "confirm appointment"},
	}
	for i, in := range cases {
		if _, err := repo.Create(ctx, in); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	repo := NewRepository(store.NewMemory())
	ctx := context.Background()

	id, err := repo.Create(ctx, NewCallTask{
		TargetPhone:        "+15551234567",
		Intent:             "confirm appointment",
		Script:             "Hi, calling to confirm.",
		TalkingPoints:      []string{"date", "time"},
		FallbackConditions: []string{"callee asks for a human"},
		VoiceModelID:       "v1",
		ConsentRequired:    true,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != id {
		t.Fatalf("expected id %q, got %q", id, got.ID)
	}
	if got.Status != StatusPending {
		t.Fatalf("expected status pending, got %q", got.Status)
	}
	if got.TargetPhone != "+15551234567" || got.Intent != "confirm appointment" || got.VoiceModelID != "v1" {
		t.Fatalf("unexpected task: %+v", got)
	}
	if len(got.TalkingPoints) != 2 || got.TalkingPoints[0] != "date" {
		t.Fatalf("unexpected talking points: %v", got.TalkingPoints)
	}
	if len(got.FallbackConditions) != 1 {
		t.Fatalf("unexpected fallback conditions: %v", got.FallbackConditions)
	}
	if !got.ConsentRequired {
		t.Fatalf("expected consent_required to round-trip")
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be stamped")
	}
}

func TestGetUnknownID(t *testing.T) {
	repo := NewRepository(store.NewMemory())

	_, err := repo.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	repo := NewRepository(store.NewMemory())
	ctx := context.Background()

	id, err := repo.Create(ctx, NewCallTask{TargetPhone: "+15551234567", Intent: "confirm appointment", VoiceModelID: "v1"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.UpdateStatus(ctx, id, StatusInProgress); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != StatusInProgress {
		t.Fatalf("expected in_progress, got %q", got.Status)
	}
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	repo := NewRepository(store.NewMemory())
	ctx := context.Background()

	id, err := repo.Create(ctx, NewCallTask{TargetPhone: "+15551234567", Intent: "confirm appointment", VoiceModelID: "v1"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.UpdateStatus(ctx, id, Status("ringing")); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestUpdateStatusUnknownID(t *testing.T) {
	repo := NewRepository(store.NewMemory())

	err := repo.UpdateStatus(context.Background(), "nope", StatusCompleted)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
