// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package event provides the task lifecycle events emitted during execution
// and the unbounded queue that carries them from producer to consumer.
package event

import (
	"fmt"

	"github.com/go-a2a/a2a-agent"
)

// Event is a task lifecycle event.
//
// Event is a closed sum type: its variants are [*TaskStatusUpdateEvent] and
// [*TaskArtifactUpdateEvent].
type Event interface {
	// EventType returns the type of the event ("status-update" or "artifact-update").
	EventType() string

	// Validate ensures the event is in a valid state.
	Validate() error

	// String returns a string representation of the event.
	String() string

	isEvent()
}

// TaskStatusUpdateEvent announces that a task entered a new state.
type TaskStatusUpdateEvent struct {
	TaskID    string
	ContextID string
	Status    a2a.TaskStatus
	Final     bool
}

var _ Event = (*TaskStatusUpdateEvent)(nil)

// NewTaskStatusUpdateEvent creates a new TaskStatusUpdateEvent.
// Final is derived from whether the status is terminal.
func NewTaskStatusUpdateEvent(taskID, contextID string, status a2a.TaskStatus) *TaskStatusUpdateEvent {
	return &TaskStatusUpdateEvent{
		TaskID:    taskID,
		ContextID: contextID,
		Status:    status,
		Final:     status.State.IsTerminal(),
	}
}

// EventType returns the event type for TaskStatusUpdateEvent.
func (e *TaskStatusUpdateEvent) EventType() string {
	return a2a.KindStatusUpdate
}

// Validate ensures the TaskStatusUpdateEvent is valid.
func (e *TaskStatusUpdateEvent) Validate() error {
	if e.TaskID == "" {
		return fmt.Errorf("task status update event task ID cannot be empty")
	}
	if e.Status.State == "" {
		return fmt.Errorf("task status update event state cannot be empty")
	}
	return nil
}

// String returns a string representation of the TaskStatusUpdateEvent.
func (e *TaskStatusUpdateEvent) String() string {
	return fmt.Sprintf("TaskStatusUpdateEvent{TaskID: %s, Status: %s, Final: %t}",
		e.TaskID, e.Status.State, e.Final)
}

// Wire returns the streamed-result form of the event.
func (e *TaskStatusUpdateEvent) Wire() a2a.TaskStatusUpdate {
	return a2a.TaskStatusUpdate{
		Kind:      a2a.KindStatusUpdate,
		TaskID:    e.TaskID,
		ContextID: e.ContextID,
		Status:    e.Status,
		Final:     e.Final,
	}
}

func (*TaskStatusUpdateEvent) isEvent() {}

// TaskArtifactUpdateEvent announces an artifact attached to a task.
type TaskArtifactUpdateEvent struct {
	TaskID    string
	ContextID string
	Artifact  a2a.Artifact
	Append    bool
	LastChunk bool
}

var _ Event = (*TaskArtifactUpdateEvent)(nil)

// NewTaskArtifactUpdateEvent creates a new TaskArtifactUpdateEvent.
func NewTaskArtifactUpdateEvent(taskID, contextID string, artifact a2a.Artifact) *TaskArtifactUpdateEvent {
	return &TaskArtifactUpdateEvent{
		TaskID:    taskID,
		ContextID: contextID,
		Artifact:  artifact,
		LastChunk: true,
	}
}

// EventType returns the event type for TaskArtifactUpdateEvent.
func (e *TaskArtifactUpdateEvent) EventType() string {
	return a2a.KindArtifactUpdate
}

// Validate ensures the TaskArtifactUpdateEvent is valid.
func (e *TaskArtifactUpdateEvent) Validate() error {
	if e.TaskID == "" {
		return fmt.Errorf("task artifact update event task ID cannot be empty")
	}
	if e.Artifact.ArtifactID == "" {
		return fmt.Errorf("task artifact update event artifact ID cannot be empty")
	}
	return nil
}

// String returns a string representation of the TaskArtifactUpdateEvent.
func (e *TaskArtifactUpdateEvent) String() string {
	return fmt.Sprintf("TaskArtifactUpdateEvent{TaskID: %s, Artifact: %s, Parts: %d}",
		e.TaskID, e.Artifact.ArtifactID, len(e.Artifact.Parts))
}

// Wire returns the streamed-result form of the event.
func (e *TaskArtifactUpdateEvent) Wire() a2a.TaskArtifactUpdate {
	return a2a.TaskArtifactUpdate{
		Kind:      a2a.KindArtifactUpdate,
		TaskID:    e.TaskID,
		ContextID: e.ContextID,
		Artifact:  e.Artifact,
		Append:    e.Append,
		LastChunk: e.LastChunk,
	}
}

func (*TaskArtifactUpdateEvent) isEvent() {}

// IsFinalEvent reports whether event ends the task's event stream.
func IsFinalEvent(event Event) bool {
	e, ok := event.(*TaskStatusUpdateEvent)
	return ok && (e.Final || e.Status.State.IsTerminal())
}
