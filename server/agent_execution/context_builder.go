// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/server/task"
)

// RequestContextBuilder defines the interface for building RequestContext instances.
//
// Implementations are responsible for resolving the task and context
// identifiers of an incoming sendMessage request.
type RequestContextBuilder interface {
	Build(ctx context.Context, params *a2a.SendMessageParams) (*RequestContext, error)
}

// SimpleRequestContextBuilder resolves identifiers against a task store.
//
// The task ID is taken from the params, then from the message, and is
// generated otherwise. The context ID is taken from the message, then from the
// params, then from the stored task, and is generated otherwise.
type SimpleRequestContextBuilder struct {
	store task.Store
}

var _ RequestContextBuilder = (*SimpleRequestContextBuilder)(nil)

// NewSimpleRequestContextBuilder creates a new SimpleRequestContextBuilder.
func NewSimpleRequestContextBuilder(store task.Store) *SimpleRequestContextBuilder {
	return &SimpleRequestContextBuilder{
		store: store,
	}
}

// Build creates a RequestContext from params.
// It fails if the referenced task already reached a terminal state.
func (b *SimpleRequestContextBuilder) Build(ctx context.Context, params *a2a.SendMessageParams) (*RequestContext, error) {
	if params == nil || params.Message == nil {
		return nil, errors.New("message cannot be nil")
	}
	msg := *params.Message
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	taskID := firstNonEmpty(params.TaskID, msg.TaskID)
	var current *a2a.Task
	if taskID == "" {
		taskID = uuid.NewString()
	} else {
		t, err := b.store.Get(ctx, taskID)
		var notFound a2a.TaskNotFoundError
		switch {
		case errors.As(err, &notFound):
		case err != nil:
			return nil, err
		default:
			current = t
		}
	}

	if current != nil && current.IsTerminal() {
		return nil, task.NewTaskNotUpdatableError(current.ID, current.Status.State, a2a.TaskStateWorking)
	}

	contextID := firstNonEmpty(msg.ContextID, params.ContextID)
	if contextID == "" && current != nil {
		contextID = current.ContextID
	}
	if contextID == "" {
		contextID = uuid.NewString()
	}

	return NewRequestContext(msg, taskID, contextID, current), nil
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
