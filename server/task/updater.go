// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/internal/telemetry"
	"github.com/go-a2a/a2a-agent/server/event"
)

// Updater moves one task through its lifecycle.
//
// Every step first checks the move against the stored record, then enqueues
// the matching event and then persists the whole task record. A mutex
// serializes steps so that the first terminal step wins; a later terminal step
// is discarded without emitting anything. When the store already holds a
// terminal record written by another updater, the updater adopts it and emits
// nothing further.
type Updater struct {
	store  Store
	queue  *event.EventQueue
	logger *slog.Logger

	mu   sync.Mutex
	task *a2a.Task
}

// UpdaterOption configures an [Updater].
type UpdaterOption func(*Updater)

// WithUpdaterLogger sets the logger of the updater.
func WithUpdaterLogger(logger *slog.Logger) UpdaterOption {
	return func(u *Updater) {
		u.logger = logger
	}
}

// NewUpdater creates an Updater for t that emits to queue and persists to store.
// The updater keeps its own copy of t.
func NewUpdater(store Store, queue *event.EventQueue, t *a2a.Task, opts ...UpdaterOption) (*Updater, error) {
	if store == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if queue == nil {
		return nil, fmt.Errorf("event queue cannot be nil")
	}
	if t == nil || t.ID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	u := &Updater{
		store:  store,
		queue:  queue,
		logger: slog.Default(),
		task:   t.Clone(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// TaskID returns the ID of the task this updater drives.
func (u *Updater) TaskID() string {
	return u.task.ID
}

// ContextID returns the context ID of the task this updater drives.
func (u *Updater) ContextID() string {
	return u.task.ContextID
}

// Queue returns the event queue the updater emits to.
func (u *Updater) Queue() *event.EventQueue {
	return u.queue
}

// Task returns a copy of the updater's current view of the task.
func (u *Updater) Task() *a2a.Task {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.task.Clone()
}

// State returns the current task state.
func (u *Updater) State() a2a.TaskState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.task.Status.State
}

// IsTerminal reports whether the task has reached a terminal state.
func (u *Updater) IsTerminal() bool {
	return u.State().IsTerminal()
}

// Submit persists the task as SUBMITTED.
func (u *Updater) Submit(ctx context.Context) error {
	return u.UpdateStatus(ctx, a2a.TaskStateSubmitted, "")
}

// StartWork moves the task to WORKING. It is a no-op if the task is already working.
func (u *Updater) StartWork(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.syncLocked(ctx); err != nil {
		return err
	}
	if u.task.Status.State == a2a.TaskStateWorking {
		return nil
	}
	return u.updateStatusLocked(ctx, a2a.TaskStateWorking, "")
}

// Complete moves the task to COMPLETED.
func (u *Updater) Complete(ctx context.Context) error {
	return u.UpdateStatus(ctx, a2a.TaskStateCompleted, "")
}

// Fail moves the task to FAILED with detail as the status message.
func (u *Updater) Fail(ctx context.Context, detail string) error {
	return u.UpdateStatus(ctx, a2a.TaskStateFailed, detail)
}

// Cancel moves the task to CANCELED with detail as the status message.
func (u *Updater) Cancel(ctx context.Context, detail string) error {
	return u.UpdateStatus(ctx, a2a.TaskStateCanceled, detail)
}

// UpdateStatus moves the task to state. A non-empty detail becomes the agent
// message of the new status.
//
// A terminal target on an already terminal task is discarded and returns nil.
// Any other disallowed move returns [TaskNotUpdatableError].
func (u *Updater) UpdateStatus(ctx context.Context, state a2a.TaskState, detail string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.updateStatusLocked(ctx, state, detail)
}

func (u *Updater) updateStatusLocked(ctx context.Context, state a2a.TaskState, detail string) error {
	if err := u.syncLocked(ctx); err != nil {
		return err
	}
	cur := u.task.Status.State
	if cur.IsTerminal() && state.IsTerminal() {
		u.logger.DebugContext(ctx, "discarding terminal update",
			"task_id", u.task.ID, "state", cur, "discarded", state)
		return nil
	}
	if !cur.CanTransitionTo(state) {
		return NewTaskNotUpdatableError(u.task.ID, cur, state)
	}

	next := u.task.Clone()
	next.Status = a2a.NewTaskStatus(state)
	next.Status.Message = a2a.NewStatusMessage(next.ContextID, next.ID, detail)

	if err := u.emit(ctx, event.NewTaskStatusUpdateEvent(next.ID, next.ContextID, next.Status)); err != nil {
		return NewTaskUpdaterError("update status", next.ID, err)
	}
	if err := u.persistLocked(ctx, next); err != nil {
		return NewTaskUpdaterError("update status", next.ID, err)
	}
	u.task = next

	telemetry.RecordTransition(ctx, string(state))
	u.logger.DebugContext(ctx, "task status updated", "task_id", next.ID, "from", cur, "to", state)
	return nil
}

// AddArtifact attaches one artifact holding parts to the working task.
func (u *Updater) AddArtifact(ctx context.Context, parts ...a2a.Part) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.syncLocked(ctx); err != nil {
		return err
	}
	if st := u.task.Status.State; st != a2a.TaskStateWorking {
		return NewTaskNotUpdatableError(u.task.ID, st, st)
	}

	artifact := a2a.NewArtifact(parts...)
	next := u.task.Clone()
	next.Artifacts = append(next.Artifacts, artifact)

	if err := u.emit(ctx, event.NewTaskArtifactUpdateEvent(next.ID, next.ContextID, artifact.Clone())); err != nil {
		return NewTaskUpdaterError("add artifact", next.ID, err)
	}
	if err := u.persistLocked(ctx, next); err != nil {
		return NewTaskUpdaterError("add artifact", next.ID, err)
	}
	u.task = next

	u.logger.DebugContext(ctx, "artifact added",
		"task_id", next.ID, "artifact_id", artifact.ArtifactID, "parts", len(parts))
	return nil
}

// syncLocked adopts the stored record when it is terminal and the updater's
// own view is not. A task that was never stored is left alone.
func (u *Updater) syncLocked(ctx context.Context) error {
	if u.task.Status.State.IsTerminal() {
		return nil
	}
	stored, err := u.store.Get(ctx, u.task.ID)
	if err != nil {
		var notFound a2a.TaskNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return NewTaskUpdaterError("load", u.task.ID, err)
	}
	if stored.Status.State.IsTerminal() {
		u.logger.DebugContext(ctx, "adopting terminal record written elsewhere",
			"task_id", u.task.ID, "state", stored.Status.State, "local", u.task.Status.State)
		u.task = stored
	}
	return nil
}

// persistLocked saves next. A transition refused by the store means another
// writer moved the task, so the stored record is adopted before returning.
func (u *Updater) persistLocked(ctx context.Context, next *a2a.Task) error {
	err := u.store.Save(ctx, next)
	var conflict TaskNotUpdatableError
	if errors.As(err, &conflict) {
		if syncErr := u.syncLocked(ctx); syncErr != nil {
			return errors.Join(err, syncErr)
		}
	}
	return err
}

// emit enqueues ev. A closed queue is not an error: nobody is listening any
// more, but the record must still be persisted.
func (u *Updater) emit(ctx context.Context, ev event.Event) error {
	err := u.queue.EnqueueEvent(ctx, ev)
	if errors.Is(err, event.ErrQueueClosed) {
		u.logger.DebugContext(ctx, "event queue closed, event dropped", "task_id", u.task.ID, "event", ev.String())
		return nil
	}
	return err
}
