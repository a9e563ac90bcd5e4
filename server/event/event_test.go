// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/go-a2a/a2a-agent"
)

func TestEventTypes(t *testing.T) {
	status := NewTaskStatusUpdateEvent("t-1", "c-1", a2a.NewTaskStatus(a2a.TaskStateWorking))
	if got := status.EventType(); got != a2a.KindStatusUpdate {
		t.Errorf("EventType() = %q, want %q", got, a2a.KindStatusUpdate)
	}
	if status.Final {
		t.Error("working status must not be final")
	}
	if IsFinalEvent(status) {
		t.Error("IsFinalEvent(working) = true, want false")
	}

	artifact := NewTaskArtifactUpdateEvent("t-1", "c-1", a2a.NewArtifact(a2a.NewTextPart("x")))
	if got := artifact.EventType(); got != a2a.KindArtifactUpdate {
		t.Errorf("EventType() = %q, want %q", got, a2a.KindArtifactUpdate)
	}
	if IsFinalEvent(artifact) {
		t.Error("IsFinalEvent(artifact) = true, want false")
	}

	done := NewTaskStatusUpdateEvent("t-1", "c-1", a2a.NewTaskStatus(a2a.TaskStateCompleted))
	if !done.Final || !IsFinalEvent(done) {
		t.Error("completed status must be final")
	}
}

func TestEventWire(t *testing.T) {
	art := a2a.NewArtifact(a2a.NewTextPart("out"))
	got := NewTaskArtifactUpdateEvent("t-1", "c-1", art).Wire()
	want := a2a.TaskArtifactUpdate{
		Kind:      a2a.KindArtifactUpdate,
		TaskID:    "t-1",
		ContextID: "c-1",
		Artifact:  art,
		LastChunk: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("artifact wire mismatch (-want +got):\n%s", diff)
	}

	status := a2a.NewTaskStatus(a2a.TaskStateFailed)
	gotStatus := NewTaskStatusUpdateEvent("t-1", "c-1", status).Wire()
	wantStatus := a2a.TaskStatusUpdate{
		Kind:      a2a.KindStatusUpdate,
		TaskID:    "t-1",
		ContextID: "c-1",
		Status:    status,
		Final:     true,
	}
	if diff := cmp.Diff(wantStatus, gotStatus); diff != "" {
		t.Errorf("status wire mismatch (-want +got):\n%s", diff)
	}
}

func TestEventValidate(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{"valid status", NewTaskStatusUpdateEvent("t", "c", a2a.NewTaskStatus(a2a.TaskStateWorking)), false},
		{"status without task", &TaskStatusUpdateEvent{Status: a2a.NewTaskStatus(a2a.TaskStateWorking)}, true},
		{"status without state", &TaskStatusUpdateEvent{TaskID: "t"}, true},
		{"valid artifact", NewTaskArtifactUpdateEvent("t", "c", a2a.NewArtifact()), false},
		{"artifact without id", &TaskArtifactUpdateEvent{TaskID: "t"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.event.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEventQueue_Order(t *testing.T) {
	q := NewEventQueue()
	ctx := t.Context()

	events := []Event{
		NewTaskStatusUpdateEvent("t", "c", a2a.NewTaskStatus(a2a.TaskStateSubmitted)),
		NewTaskStatusUpdateEvent("t", "c", a2a.NewTaskStatus(a2a.TaskStateWorking)),
		NewTaskArtifactUpdateEvent("t", "c", a2a.NewArtifact(a2a.NewTextPart("x"))),
		NewTaskStatusUpdateEvent("t", "c", a2a.NewTaskStatus(a2a.TaskStateCompleted)),
	}
	for _, ev := range events {
		if err := q.EnqueueEvent(ctx, ev); err != nil {
			t.Fatalf("EnqueueEvent failed: %v", err)
		}
	}
	if got := q.Len(); got != len(events) {
		t.Errorf("Len() = %d, want %d", got, len(events))
	}
	q.Close()

	for i, want := range events {
		got, err := q.DequeueEvent(ctx)
		if err != nil {
			t.Fatalf("DequeueEvent #%d failed: %v", i, err)
		}
		if got != want {
			t.Errorf("DequeueEvent #%d = %v, want %v", i, got, want)
		}
	}

	if _, err := q.DequeueEvent(ctx); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("DequeueEvent after drain error = %v, want %v", err, ErrQueueClosed)
	}
}

func TestEventQueue_Closed(t *testing.T) {
	q := NewEventQueue()
	q.Close()
	if !q.IsClosed() {
		t.Fatal("IsClosed() = false after Close")
	}

	ev := NewTaskStatusUpdateEvent("t", "c", a2a.NewTaskStatus(a2a.TaskStateWorking))
	if err := q.EnqueueEvent(t.Context(), ev); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("EnqueueEvent on closed queue error = %v, want %v", err, ErrQueueClosed)
	}
	if err := q.EnqueueEvent(t.Context(), nil); err == nil {
		t.Error("EnqueueEvent(nil) = nil, want error")
	}
}

func TestEventQueue_DequeueBlocks(t *testing.T) {
	q := NewEventQueue()

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	if _, err := q.DequeueEvent(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("DequeueEvent on empty queue error = %v, want %v", err, context.DeadlineExceeded)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(10 * time.Millisecond)
		_ = q.EnqueueEvent(context.Background(), NewTaskStatusUpdateEvent("t", "c", a2a.NewTaskStatus(a2a.TaskStateWorking)))
	}()

	ev, err := q.DequeueEvent(t.Context())
	if err != nil {
		t.Fatalf("DequeueEvent failed: %v", err)
	}
	if ev.EventType() != a2a.KindStatusUpdate {
		t.Errorf("EventType() = %q, want %q", ev.EventType(), a2a.KindStatusUpdate)
	}
	wg.Wait()
}
