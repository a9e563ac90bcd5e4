// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package handler dispatches A2A protocol calls onto the task machinery.
//
// [RequestHandler] is the protocol-neutral surface, one method per RPC.
// [JSONRPCHandler] adapts JSON-RPC envelopes to it and maps failures onto
// JSON-RPC error codes.
package handler

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/server/agent_execution"
	"github.com/go-a2a/a2a-agent/server/event"
	"github.com/go-a2a/a2a-agent/server/task"
)

// RequestHandler defines the protocol operations of an A2A server.
type RequestHandler interface {
	// OnSubmitTask creates a SUBMITTED task without executing it.
	OnSubmitTask(ctx context.Context, params *a2a.SubmitTaskParams) (*a2a.SubmitTaskResult, error)

	// OnSendMessage runs the task addressed by params to a terminal state and
	// returns the aggregated agent reply.
	OnSendMessage(ctx context.Context, params *a2a.SendMessageParams) (*a2a.SendMessageResult, error)

	// OnSendMessageStream runs the task addressed by params and yields one
	// artifact update per emitted artifact followed by a final status update.
	OnSendMessageStream(ctx context.Context, params *a2a.SendMessageParams) (iter.Seq2[event.Event, error], error)

	// OnGetTask looks up a task.
	OnGetTask(ctx context.Context, params *a2a.GetTaskParams) (*a2a.GetTaskResult, error)

	// OnCancelTask cancels a task. It is a server-side hook with no RPC.
	OnCancelTask(ctx context.Context, taskID string) error
}

// DefaultRequestHandler implements [RequestHandler] on top of an
// [*agent_execution.Executor].
type DefaultRequestHandler struct {
	executor *agent_execution.Executor
	builder  agent_execution.RequestContextBuilder
	store    task.Store
	timeout  time.Duration
	logger   *slog.Logger
}

var _ RequestHandler = (*DefaultRequestHandler)(nil)

// RequestHandlerOption configures a [DefaultRequestHandler].
type RequestHandlerOption func(*DefaultRequestHandler)

// WithRequestContextBuilder replaces the builder that resolves task and
// context ids for incoming messages.
func WithRequestContextBuilder(builder agent_execution.RequestContextBuilder) RequestHandlerOption {
	return func(h *DefaultRequestHandler) {
		h.builder = builder
	}
}

// WithTimeout sets how long a blocking send waits for a terminal status.
// Non-positive values select [task.DefaultTimeout].
func WithTimeout(timeout time.Duration) RequestHandlerOption {
	return func(h *DefaultRequestHandler) {
		h.timeout = timeout
	}
}

// WithRequestHandlerLogger sets the [*slog.Logger] for the handler.
func WithRequestHandlerLogger(logger *slog.Logger) RequestHandlerOption {
	return func(h *DefaultRequestHandler) {
		h.logger = logger
	}
}

// NewDefaultRequestHandler returns a handler driving executor.
func NewDefaultRequestHandler(executor *agent_execution.Executor, opts ...RequestHandlerOption) *DefaultRequestHandler {
	if executor == nil {
		panic("executor cannot be nil")
	}

	h := &DefaultRequestHandler{
		executor: executor,
		store:    executor.Store(),
		timeout:  task.DefaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.builder == nil {
		h.builder = agent_execution.NewSimpleRequestContextBuilder(h.store)
	}
	return h
}

// OnSubmitTask implements [RequestHandler].
func (h *DefaultRequestHandler) OnSubmitTask(ctx context.Context, params *a2a.SubmitTaskParams) (*a2a.SubmitTaskResult, error) {
	t := a2a.NewTask(params.ContextID)
	if err := h.store.Save(ctx, t); err != nil {
		return nil, err
	}
	h.logger.InfoContext(ctx, "task submitted", "task_id", t.ID, "context_id", t.ContextID)

	return &a2a.SubmitTaskResult{
		TaskID:    t.ID,
		ContextID: t.ContextID,
	}, nil
}

// OnSendMessage implements [RequestHandler].
//
// The execution is detached from ctx: a caller that stops waiting, or a
// timeout, ends the wait but not the task.
func (h *DefaultRequestHandler) OnSendMessage(ctx context.Context, params *a2a.SendMessageParams) (*a2a.SendMessageResult, error) {
	rc, queue, err := h.start(ctx, params)
	if err != nil {
		return nil, err
	}

	parts, err := task.Collect(ctx, queue, h.timeout)
	if err != nil {
		return nil, err
	}

	msg := a2a.NewAgentMessage(rc.ContextID(), rc.TaskID(), parts...)
	return &a2a.SendMessageResult{Message: &msg}, nil
}

// OnSendMessageStream implements [RequestHandler].
func (h *DefaultRequestHandler) OnSendMessageStream(ctx context.Context, params *a2a.SendMessageParams) (iter.Seq2[event.Event, error], error) {
	rc, queue, err := h.start(ctx, params)
	if err != nil {
		return nil, err
	}

	taskID, contextID := rc.TaskID(), rc.ContextID()
	return func(yield func(event.Event, error) bool) {
		for parts, err := range task.Stream(ctx, queue) {
			if err != nil {
				var failed *task.ExecutionFailedError
				if !errors.As(err, &failed) {
					yield(nil, err)
					return
				}
				status := a2a.NewTaskStatus(failed.State)
				status.Message = a2a.NewStatusMessage(contextID, taskID, failed.Detail)
				yield(event.NewTaskStatusUpdateEvent(taskID, contextID, status), nil)
				return
			}
			if !yield(event.NewTaskArtifactUpdateEvent(taskID, contextID, a2a.NewArtifact(parts...)), nil) {
				return
			}
		}
		yield(event.NewTaskStatusUpdateEvent(taskID, contextID, a2a.NewTaskStatus(a2a.TaskStateCompleted)), nil)
	}, nil
}

// OnGetTask implements [RequestHandler].
func (h *DefaultRequestHandler) OnGetTask(ctx context.Context, params *a2a.GetTaskParams) (*a2a.GetTaskResult, error) {
	id := params.ResolvedTaskID()
	if id == "" {
		return nil, &InvalidParamsError{Detail: "taskId is required"}
	}

	t, err := h.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &a2a.GetTaskResult{Task: t}, nil
}

// OnCancelTask implements [RequestHandler].
func (h *DefaultRequestHandler) OnCancelTask(ctx context.Context, taskID string) error {
	return h.executor.Cancel(ctx, taskID)
}

// start resolves the request context and launches the execution in its own
// goroutine, returning the queue it emits to.
func (h *DefaultRequestHandler) start(ctx context.Context, params *a2a.SendMessageParams) (*agent_execution.RequestContext, *event.EventQueue, error) {
	if params.Message != nil {
		if err := params.Message.Validate(); err != nil {
			return nil, nil, err
		}
	}
	rc, err := h.builder.Build(ctx, params)
	if err != nil {
		return nil, nil, err
	}
	if h.executor.Running(rc.TaskID()) {
		return nil, nil, fmt.Errorf("task %s: %w", rc.TaskID(), agent_execution.ErrTaskRunning)
	}

	queue := event.NewEventQueue()
	execCtx := context.WithoutCancel(ctx)
	go func() {
		if err := h.executor.Execute(execCtx, rc, queue); err != nil {
			h.logger.ErrorContext(execCtx, "execution could not be driven", "task_id", rc.TaskID(), "error", err)
		}
	}()
	return rc, queue, nil
}
