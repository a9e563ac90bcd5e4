// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"time"

	"github.com/google/uuid"
)

// TaskState represents the state of a Task.
type TaskState string

const (
	// TaskStateSubmitted indicates the task has been submitted.
	TaskStateSubmitted TaskState = "submitted"

	// TaskStateWorking indicates the task is being worked on.
	TaskStateWorking TaskState = "working"

	// TaskStateCompleted indicates the task has been completed.
	TaskStateCompleted TaskState = "completed"

	// TaskStateFailed indicates the task has failed.
	TaskStateFailed TaskState = "failed"

	// TaskStateCanceled indicates the task has been canceled.
	TaskStateCanceled TaskState = "canceled"
)

// Reserved task states. They are part of the protocol vocabulary but no
// transition ever enters them.
const (
	TaskStateInputRequired TaskState = "input-required"
	TaskStateAuthRequired  TaskState = "auth-required"
	TaskStateRejected      TaskState = "rejected"
)

// IsTerminal reports whether no further transition is valid from s.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateCanceled:
		return true
	default:
		return false
	}
}

// IsReserved reports whether s is a documented but never-entered state.
func (s TaskState) IsReserved() bool {
	switch s {
	case TaskStateInputRequired, TaskStateAuthRequired, TaskStateRejected:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether a task in state s may move to next.
//
// Replacing a non-terminal record with the same state is allowed, which is
// how artifacts are attached while a task is working.
func (s TaskState) CanTransitionTo(next TaskState) bool {
	if next.IsReserved() || s.IsTerminal() {
		return false
	}
	switch s {
	case TaskStateSubmitted:
		return next == TaskStateSubmitted || next == TaskStateWorking || next.IsTerminal()
	case TaskStateWorking:
		return next == TaskStateWorking || next.IsTerminal()
	default:
		return false
	}
}

// TaskStatus is the current state of a task plus an optional detail message.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// NewTaskStatus returns a [TaskStatus] in state stamped with the current time.
func NewTaskStatus(state TaskState) TaskStatus {
	return TaskStatus{
		State:     state,
		Timestamp: time.Now().UTC(),
	}
}

// Detail returns the text of the status message, or "" if there is none.
func (s TaskStatus) Detail() string {
	if s.Message == nil {
		return ""
	}
	return s.Message.Text()
}

// Task is a unit of work with an identity and a lifecycle state.
type Task struct {
	ID        string     `json:"id"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	History   []Message  `json:"history,omitempty"`
	Kind      string     `json:"kind,omitempty"`
}

// TaskKind is the "kind" discriminator of a [Task] on the wire.
const TaskKind = "task"

// NewTask returns a submitted [Task] with a fresh ID.
// An empty contextID is replaced by a fresh one.
func NewTask(contextID string) *Task {
	if contextID == "" {
		contextID = uuid.NewString()
	}
	return &Task{
		ID:        uuid.NewString(),
		ContextID: contextID,
		Status:    NewTaskStatus(TaskStateSubmitted),
		Kind:      TaskKind,
	}
}

// IsTerminal reports whether the task has reached a terminal state.
func (t *Task) IsTerminal() bool {
	return t.Status.State.IsTerminal()
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.Status.Message != nil {
		msg := t.Status.Message.Clone()
		c.Status.Message = &msg
	}
	if t.Artifacts != nil {
		c.Artifacts = make([]Artifact, len(t.Artifacts))
		for i, a := range t.Artifacts {
			c.Artifacts[i] = a.Clone()
		}
	}
	if t.History != nil {
		c.History = make([]Message, len(t.History))
		for i, m := range t.History {
			c.History[i] = m.Clone()
		}
	}
	return &c
}
