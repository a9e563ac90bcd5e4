// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/server/event"
)

func newTestUpdater(t *testing.T) (*Updater, *InMemoryStore, *event.EventQueue) {
	t.Helper()

	store := NewInMemoryStore()
	queue := event.NewEventQueue()
	u, err := NewUpdater(store, queue, a2a.NewTask("ctx"))
	if err != nil {
		t.Fatalf("NewUpdater failed: %v", err)
	}
	return u, store, queue
}

// drain closes queue and returns the event types and states it held.
func drain(t *testing.T, queue *event.EventQueue) []string {
	t.Helper()

	queue.Close()
	var got []string
	for {
		ev, err := queue.DequeueEvent(t.Context())
		if errors.Is(err, event.ErrQueueClosed) {
			return got
		}
		if err != nil {
			t.Fatalf("DequeueEvent failed: %v", err)
		}
		switch e := ev.(type) {
		case *event.TaskStatusUpdateEvent:
			got = append(got, string(e.Status.State))
		case *event.TaskArtifactUpdateEvent:
			got = append(got, "artifact:"+e.Artifact.Text())
		}
	}
}

func TestNewUpdater(t *testing.T) {
	store := NewInMemoryStore()
	queue := event.NewEventQueue()

	if _, err := NewUpdater(nil, queue, a2a.NewTask("")); err == nil {
		t.Error("NewUpdater(nil store) = nil error")
	}
	if _, err := NewUpdater(store, nil, a2a.NewTask("")); err == nil {
		t.Error("NewUpdater(nil queue) = nil error")
	}
	if _, err := NewUpdater(store, queue, &a2a.Task{}); err == nil {
		t.Error("NewUpdater(no id) = nil error")
	}
}

func TestUpdater_Lifecycle(t *testing.T) {
	ctx := t.Context()
	u, store, queue := newTestUpdater(t)

	steps := []func() error{
		func() error { return u.Submit(ctx) },
		func() error { return u.StartWork(ctx) },
		func() error { return u.StartWork(ctx) },
		func() error { return u.AddArtifact(ctx, a2a.NewTextPart("Echo: hi")) },
		func() error { return u.Complete(ctx) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
	}

	want := []string{"submitted", "working", "artifact:Echo: hi", "completed"}
	if diff := cmp.Diff(want, drain(t, queue)); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	stored, err := store.Get(ctx, u.TaskID())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Status.State != a2a.TaskStateCompleted {
		t.Errorf("stored state = %s, want completed", stored.Status.State)
	}
	if diff := cmp.Diff(a2a.Parts{a2a.NewTextPart("Echo: hi")}, a2a.FirstArtifactParts(stored)); diff != "" {
		t.Errorf("stored artifact mismatch (-want +got):\n%s", diff)
	}
	if !u.IsTerminal() {
		t.Error("IsTerminal() = false after Complete")
	}
}

func TestUpdater_FirstTerminalWins(t *testing.T) {
	ctx := t.Context()
	u, store, queue := newTestUpdater(t)

	if err := u.StartWork(ctx); err != nil {
		t.Fatalf("StartWork failed: %v", err)
	}
	if err := u.Cancel(ctx, "Cancelled by user"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if err := u.Complete(ctx); err != nil {
		t.Errorf("Complete after Cancel = %v, want nil", err)
	}
	if err := u.Fail(ctx, "late"); err != nil {
		t.Errorf("Fail after Cancel = %v, want nil", err)
	}

	want := []string{"working", "canceled"}
	if diff := cmp.Diff(want, drain(t, queue)); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	stored, _ := store.Get(ctx, u.TaskID())
	if stored.Status.State != a2a.TaskStateCanceled || stored.Status.Detail() != "Cancelled by user" {
		t.Errorf("stored status = %+v, want canceled with detail", stored.Status)
	}
}

func TestUpdater_Rejects(t *testing.T) {
	ctx := t.Context()

	t.Run("artifact before work", func(t *testing.T) {
		u, _, _ := newTestUpdater(t)
		var notUpdatable TaskNotUpdatableError
		if err := u.AddArtifact(ctx, a2a.NewTextPart("x")); !errors.As(err, &notUpdatable) {
			t.Errorf("AddArtifact error = %v, want TaskNotUpdatableError", err)
		}
	})

	t.Run("work after terminal", func(t *testing.T) {
		u, _, _ := newTestUpdater(t)
		if err := u.Fail(ctx, "boom"); err != nil {
			t.Fatalf("Fail failed: %v", err)
		}
		var notUpdatable TaskNotUpdatableError
		if err := u.StartWork(ctx); !errors.As(err, &notUpdatable) {
			t.Errorf("StartWork error = %v, want TaskNotUpdatableError", err)
		}
		if err := u.AddArtifact(ctx, a2a.NewTextPart("x")); !errors.As(err, &notUpdatable) {
			t.Errorf("AddArtifact error = %v, want TaskNotUpdatableError", err)
		}
	})

	t.Run("reserved state", func(t *testing.T) {
		u, _, _ := newTestUpdater(t)
		if err := u.UpdateStatus(ctx, a2a.TaskStateAuthRequired, ""); err == nil {
			t.Error("UpdateStatus(auth-required) = nil, want error")
		}
	})
}

func TestUpdater_ClosedQueueStillPersists(t *testing.T) {
	ctx := t.Context()
	u, store, queue := newTestUpdater(t)
	queue.Close()

	if err := u.Cancel(ctx, ""); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	stored, _ := store.Get(ctx, u.TaskID())
	if stored.Status.State != a2a.TaskStateCanceled {
		t.Errorf("stored state = %s, want canceled", stored.Status.State)
	}
}

func TestUpdater_ConcurrentTerminal(t *testing.T) {
	ctx := context.Background()
	u, _, queue := newTestUpdater(t)
	if err := u.StartWork(ctx); err != nil {
		t.Fatalf("StartWork failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); _ = u.Complete(ctx) }()
		go func() { defer wg.Done(); _ = u.Cancel(ctx, "") }()
	}
	wg.Wait()

	terminal := 0
	for _, ev := range drain(t, queue) {
		if a2a.TaskState(ev).IsTerminal() {
			terminal++
		}
	}
	if terminal != 1 {
		t.Errorf("terminal events = %d, want 1", terminal)
	}
}

func TestUpdater_AdoptsStoredTerminal(t *testing.T) {
	ctx := t.Context()
	store := NewInMemoryStore()
	submitted := a2a.NewTask("ctx")
	if err := store.Save(ctx, submitted); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	winnerQueue, loserQueue := event.NewEventQueue(), event.NewEventQueue()
	winner, err := NewUpdater(store, winnerQueue, submitted)
	if err != nil {
		t.Fatalf("NewUpdater failed: %v", err)
	}
	loser, err := NewUpdater(store, loserQueue, submitted)
	if err != nil {
		t.Fatalf("NewUpdater failed: %v", err)
	}

	if err := winner.StartWork(ctx); err != nil {
		t.Fatalf("StartWork failed: %v", err)
	}
	if err := loser.StartWork(ctx); err != nil {
		t.Fatalf("StartWork on a working record failed: %v", err)
	}
	if err := winner.Complete(ctx); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	var notUpdatable TaskNotUpdatableError
	if err := loser.AddArtifact(ctx, a2a.NewTextPart("late")); !errors.As(err, &notUpdatable) {
		t.Errorf("AddArtifact error = %v, want TaskNotUpdatableError", err)
	}
	if err := loser.Fail(ctx, "late"); err != nil {
		t.Errorf("Fail after another writer finished = %v, want nil", err)
	}
	if got := loser.State(); got != a2a.TaskStateCompleted {
		t.Errorf("loser state = %s, want the stored completed", got)
	}

	if diff := cmp.Diff([]string{"working", "completed"}, drain(t, winnerQueue)); diff != "" {
		t.Errorf("winner events mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"working"}, drain(t, loserQueue)); diff != "" {
		t.Errorf("loser events mismatch (-want +got):\n%s", diff)
	}
	stored, _ := store.Get(ctx, submitted.ID)
	if stored.Status.State != a2a.TaskStateCompleted || stored.Status.Detail() != "" {
		t.Errorf("stored status = %+v, want completed without detail", stored.Status)
	}
}
