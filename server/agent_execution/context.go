// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"github.com/go-a2a/a2a-agent"
)

// UserInputDelimiter joins the text parts of the user message into the input
// handed to a [Lifecycle].
const UserInputDelimiter = " "

// RequestContext holds information about the request being executed: the
// incoming message, the resolved task and context identifiers, and the stored
// task if one already exists.
//
// A RequestContext is immutable once built.
type RequestContext struct {
	message     a2a.Message
	taskID      string
	contextID   string
	currentTask *a2a.Task
}

// NewRequestContext creates a new RequestContext. The message is copied and
// stamped with taskID and contextID.
func NewRequestContext(message a2a.Message, taskID, contextID string, currentTask *a2a.Task) *RequestContext {
	return &RequestContext{
		message:     message.WithIDs(contextID, taskID),
		taskID:      taskID,
		contextID:   contextID,
		currentTask: currentTask.Clone(),
	}
}

// Message returns a copy of the incoming message.
func (rc *RequestContext) Message() a2a.Message {
	return rc.message.Clone()
}

// TaskID returns the ID of the task.
func (rc *RequestContext) TaskID() string {
	return rc.taskID
}

// ContextID returns the ID of the conversation context.
func (rc *RequestContext) ContextID() string {
	return rc.contextID
}

// CurrentTask returns a copy of the stored task, or nil for a new task.
func (rc *RequestContext) CurrentTask() *a2a.Task {
	return rc.currentTask.Clone()
}

// UserInput returns the text parts of the message joined by delimiter,
// or by [UserInputDelimiter] when delimiter is empty.
func (rc *RequestContext) UserInput(delimiter string) string {
	if delimiter == "" {
		delimiter = UserInputDelimiter
	}
	return a2a.JoinText(rc.message.Parts, delimiter)
}
