// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent_execution bridges agent business logic to the task lifecycle.
//
// A [Lifecycle] turns user input into response parts. The [Executor] wraps it
// with the SUBMITTED, WORKING and terminal transitions, so business logic
// never has to drive the task state machine itself.
package agent_execution

import (
	"context"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/server/task"
)

// Lifecycle is the business hook of an agent.
//
// Execute receives the user input and may attach artifacts or change status
// through updater. The returned parts become the task's artifact.
type Lifecycle interface {
	Execute(ctx context.Context, userInput string, updater *task.Updater) ([]a2a.Part, error)
}

// LifecycleFunc adapts a function to the [Lifecycle] interface.
type LifecycleFunc func(ctx context.Context, userInput string, updater *task.Updater) ([]a2a.Part, error)

// Execute calls f.
func (f LifecycleFunc) Execute(ctx context.Context, userInput string, updater *task.Updater) ([]a2a.Part, error) {
	return f(ctx, userInput, updater)
}

// Completer is implemented by lifecycles that want a hook after a successful
// Execute and before the task is completed. The default is a no-op.
type Completer interface {
	OnComplete(ctx context.Context, updater *task.Updater) error
}

// ErrorHandler is implemented by lifecycles that handle execution failures.
// The default fails the task with the error text as detail.
type ErrorHandler interface {
	OnError(ctx context.Context, err error, updater *task.Updater) error
}

// Canceler is implemented by lifecycles that customize cancellation.
// The default cancels the task.
type Canceler interface {
	Cancel(ctx context.Context, updater *task.Updater) error
}

func onComplete(ctx context.Context, l Lifecycle, u *task.Updater) error {
	if c, ok := l.(Completer); ok {
		return c.OnComplete(ctx, u)
	}
	return nil
}

func onError(ctx context.Context, l Lifecycle, err error, u *task.Updater) error {
	if h, ok := l.(ErrorHandler); ok {
		return h.OnError(ctx, err, u)
	}
	return u.Fail(ctx, err.Error())
}

func onCancel(ctx context.Context, l Lifecycle, u *task.Updater) error {
	if c, ok := l.(Canceler); ok {
		return c.Cancel(ctx, u)
	}
	return u.Cancel(ctx, "")
}
