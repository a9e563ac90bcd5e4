// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package task provides task storage, the per-task updater that moves a task
// through its lifecycle, and the collectors that turn an event queue into a
// result.
package task

import (
	"context"

	"github.com/go-a2a/a2a-agent"
)

// Store defines the interface for task persistence operations.
type Store interface {
	// Save replaces the stored record for task.ID with a copy of task.
	// Returns TaskNotUpdatableError if the stored state cannot move to the new one.
	Save(ctx context.Context, task *a2a.Task) error

	// Get retrieves a copy of the task with the given ID.
	// Returns a2a.TaskNotFoundError if the task doesn't exist.
	Get(ctx context.Context, taskID string) (*a2a.Task, error)
}
