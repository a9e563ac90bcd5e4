// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/internal/telemetry"
	"github.com/go-a2a/a2a-agent/server/event"
	"github.com/go-a2a/a2a-agent/server/task"
)

// ErrTaskRunning reports that an execution of the task is already in flight.
var ErrTaskRunning = errors.New("task is already running")

// Executor runs a [Lifecycle] against a task and guarantees that every
// execution ends in a terminal state.
type Executor struct {
	lifecycle Lifecycle
	store     task.Store
	logger    *slog.Logger
	tracer    trace.Tracer

	mu      sync.Mutex
	running map[string]*task.Updater
}

// Option represents an option for configuring the [Executor].
type Option func(*Executor)

// WithLogger sets the [*slog.Logger] for the [Executor].
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithTracer sets the [trace.Tracer] for the [Executor].
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// NewExecutor creates an Executor for lifecycle persisting to store.
func NewExecutor(lifecycle Lifecycle, store task.Store, opts ...Option) *Executor {
	e := &Executor{
		lifecycle: lifecycle,
		store:     store,
		logger:    slog.Default(),
		tracer:    otel.GetTracerProvider().Tracer(telemetry.InstrumentationName),
		running:   make(map[string]*task.Updater),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the task store the executor persists to.
func (e *Executor) Store() task.Store {
	return e.store
}

// Execute runs one request to completion, emitting every lifecycle event to
// queue, and closes queue before returning.
//
// Lifecycle errors and panics are turned into a FAILED task rather than
// returned; the returned error only reports that the task could not be driven.
// At most one execution or cancellation drives a task at a time; a second one
// returns [ErrTaskRunning] without emitting anything.
//
// The request message is appended to the task history before the first step,
// so the SUBMITTED record of a new task already carries it.
func (e *Executor) Execute(ctx context.Context, rc *RequestContext, queue *event.EventQueue) (err error) {
	ctx, span := e.tracer.Start(ctx, "a2a.executor.Execute",
		trace.WithAttributes(
			attribute.String("a2a.task_id", rc.TaskID()),
			attribute.String("a2a.context_id", rc.ContextID()),
		))
	defer span.End()
	defer queue.Close()

	current := rc.CurrentTask()
	t := current
	if t == nil {
		t = &a2a.Task{
			ID:        rc.TaskID(),
			ContextID: rc.ContextID(),
			Status:    a2a.NewTaskStatus(a2a.TaskStateSubmitted),
			Kind:      a2a.TaskKind,
		}
	}
	t.History = append(t.History, rc.Message())

	u, err := task.NewUpdater(e.store, queue, t, task.WithUpdaterLogger(e.logger))
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := e.track(u); err != nil {
		span.RecordError(err)
		return err
	}
	defer e.untrack(u)

	start := time.Now()
	defer func() {
		state := u.State()
		telemetry.RecordExecution(ctx, time.Since(start), string(state))
		span.SetAttributes(attribute.String("a2a.state", string(state)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if current == nil {
		if err := u.Submit(ctx); err != nil {
			return e.fail(ctx, u, err)
		}
		e.logger.InfoContext(ctx, "task created", "task_id", u.TaskID(), "context_id", u.ContextID())
	}

	if runErr := e.run(ctx, rc, u); runErr != nil {
		e.logger.WarnContext(ctx, "task execution failed", "task_id", u.TaskID(), "error", runErr)
		return e.fail(ctx, u, runErr)
	}
	return nil
}

// run performs the WORKING, execute and complete steps.
func (e *Executor) run(ctx context.Context, rc *RequestContext, u *task.Updater) error {
	if err := u.StartWork(ctx); err != nil {
		return err
	}

	parts, err := e.invoke(ctx, rc.UserInput(UserInputDelimiter), u)
	if err != nil {
		return err
	}

	if u.IsTerminal() {
		e.logger.InfoContext(ctx, "task finished during execution", "task_id", u.TaskID(), "state", u.State())
		return nil
	}

	if len(parts) > 0 {
		if err := u.AddArtifact(ctx, parts...); err != nil {
			return err
		}
	}
	if err := e.guard(ctx, "OnComplete", func() error { return onComplete(ctx, e.lifecycle, u) }); err != nil {
		return err
	}
	if err := u.Complete(ctx); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "task completed", "task_id", u.TaskID(), "parts", len(parts))
	return nil
}

func (e *Executor) invoke(ctx context.Context, input string, u *task.Updater) (parts []a2a.Part, err error) {
	err = e.guard(ctx, "Execute", func() error {
		var execErr error
		parts, execErr = e.lifecycle.Execute(ctx, input, u)
		return execErr
	})
	return parts, err
}

// fail routes cause to the error hook and forces FAILED if the hook left the
// task running. Terminal writes do not depend on ctx still being live.
//
// When the store refuses the terminal write, the updater has adopted the
// stored terminal record and nothing more is attempted.
func (e *Executor) fail(ctx context.Context, u *task.Updater, cause error) error {
	ctx = context.WithoutCancel(ctx)

	if err := e.guard(ctx, "OnError", func() error { return onError(ctx, e.lifecycle, cause, u) }); err != nil {
		e.logger.ErrorContext(ctx, "error hook failed", "task_id", u.TaskID(), "error", err)
	}
	if u.IsTerminal() {
		return nil
	}
	if err := u.Fail(ctx, cause.Error()); err != nil {
		if u.IsTerminal() {
			e.logger.WarnContext(ctx, "task finished elsewhere", "task_id", u.TaskID(), "state", u.State(), "error", err)
			return nil
		}
		return fmt.Errorf("failing task %s: %w", u.TaskID(), errors.Join(cause, err))
	}
	return nil
}

// guard runs fn, converting a panic into an error.
func (e *Executor) guard(ctx context.Context, hook string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "lifecycle hook panicked", "hook", hook, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("%s panicked: %v", hook, r)
		}
	}()
	return fn()
}

// Cancel cancels the task with taskID.
//
// A running execution is cancelled through its own updater so that the
// cancellation and the execution share one ordering. Cancelling a task that
// already reached a terminal state is a no-op.
func (e *Executor) Cancel(ctx context.Context, taskID string) error {
	ctx, span := e.tracer.Start(ctx, "a2a.executor.Cancel",
		trace.WithAttributes(attribute.String("a2a.task_id", taskID)))
	defer span.End()

	u, release, err := e.updaterFor(ctx, taskID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer release()

	if u.IsTerminal() {
		e.logger.DebugContext(ctx, "cancel ignored for finished task", "task_id", taskID, "state", u.State())
		return nil
	}

	if err := e.guard(ctx, "Cancel", func() error { return onCancel(ctx, e.lifecycle, u) }); err != nil {
		span.RecordError(err)
		return err
	}
	e.logger.InfoContext(ctx, "task canceled", "task_id", taskID, "state", u.State())
	return nil
}

// Running reports whether an execution of taskID is in flight.
func (e *Executor) Running(taskID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.running[taskID]
	return ok
}

// updaterFor returns the in-flight updater of taskID, or registers a fresh one
// over the stored task. release must be called once the caller is done.
func (e *Executor) updaterFor(ctx context.Context, taskID string) (*task.Updater, func(), error) {
	noop := func() {}

	e.mu.Lock()
	u, ok := e.running[taskID]
	e.mu.Unlock()
	if ok {
		return u, noop, nil
	}

	t, err := e.store.Get(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	queue := event.NewEventQueue()
	fresh, err := task.NewUpdater(e.store, queue, t, task.WithUpdaterLogger(e.logger))
	if err != nil {
		queue.Close()
		return nil, nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if u, ok := e.running[taskID]; ok {
		queue.Close()
		return u, noop, nil
	}
	e.running[taskID] = fresh
	return fresh, func() {
		e.untrack(fresh)
		queue.Close()
	}, nil
}

func (e *Executor) track(u *task.Updater) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.running[u.TaskID()]; ok {
		return fmt.Errorf("task %s: %w", u.TaskID(), ErrTaskRunning)
	}
	e.running[u.TaskID()] = u
	return nil
}

func (e *Executor) untrack(u *task.Updater) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running[u.TaskID()] == u {
		delete(e.running, u.TaskID())
	}
}
