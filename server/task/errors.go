// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-a2a/a2a-agent"
)

// ErrTimeout is matched by [*TimeoutError] through errors.Is.
var ErrTimeout = errors.New("execution timed out")

// TaskNotUpdatableError represents an error when a task cannot move from its
// current state to the requested one.
type TaskNotUpdatableError struct {
	TaskID string
	State  a2a.TaskState
	Target a2a.TaskState
}

// Error returns the error message.
func (e TaskNotUpdatableError) Error() string {
	return fmt.Sprintf("task %s in state %s cannot be updated to %s", e.TaskID, e.State, e.Target)
}

// TaskStoreError represents an error from the task store.
type TaskStoreError struct {
	Operation string
	TaskID    string
	Err       error
}

// Error returns the error message.
func (e TaskStoreError) Error() string {
	return fmt.Sprintf("task store %s operation failed for task %s: %v", e.Operation, e.TaskID, e.Err)
}

// Unwrap returns the underlying error.
func (e TaskStoreError) Unwrap() error {
	return e.Err
}

// TaskUpdaterError represents an error from the task updater.
type TaskUpdaterError struct {
	Operation string
	TaskID    string
	Err       error
}

// Error returns the error message.
func (e TaskUpdaterError) Error() string {
	return fmt.Sprintf("task updater %s operation failed for task %s: %v", e.Operation, e.TaskID, e.Err)
}

// Unwrap returns the underlying error.
func (e TaskUpdaterError) Unwrap() error {
	return e.Err
}

// ExecutionFailedError reports that a task ended FAILED or CANCELED.
type ExecutionFailedError struct {
	TaskID string
	State  a2a.TaskState
	// Detail is the text of the terminal status message, if any.
	Detail string
}

// Error returns the error message.
func (e *ExecutionFailedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("task ended with state: %s", e.State)
	}
	return fmt.Sprintf("task ended with state: %s: %s", e.State, e.Detail)
}

// TimeoutError reports that the blocking collector gave up waiting.
// The execution itself keeps running.
type TimeoutError struct {
	TaskID  string
	Timeout time.Duration
}

// Error returns the error message.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("agent execution timed out after %s", e.Timeout)
}

// Is reports whether target is [ErrTimeout].
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// NewTaskNotUpdatableError creates a new TaskNotUpdatableError.
func NewTaskNotUpdatableError(taskID string, state, target a2a.TaskState) TaskNotUpdatableError {
	return TaskNotUpdatableError{
		TaskID: taskID,
		State:  state,
		Target: target,
	}
}

// NewTaskStoreError creates a new TaskStoreError.
func NewTaskStoreError(operation, taskID string, err error) TaskStoreError {
	return TaskStoreError{
		Operation: operation,
		TaskID:    taskID,
		Err:       err,
	}
}

// NewTaskUpdaterError creates a new TaskUpdaterError.
func NewTaskUpdaterError(operation, taskID string, err error) TaskUpdaterError {
	return TaskUpdaterError{
		Operation: operation,
		TaskID:    taskID,
		Err:       err,
	}
}
