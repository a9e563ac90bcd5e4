// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-a2a/a2a-agent"
)

// InMemoryStore is an in-memory implementation of Store.
// Task data is lost when the server process stops.
//
// Each task has its own slot in a sync.Map, and Save swaps the whole record
// with compare-and-swap, so unrelated tasks never contend and readers never
// observe a partially written task.
type InMemoryStore struct {
	tasks sync.Map // map[string]*a2a.Task
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Save stores a copy of task, enforcing the task state machine against the
// currently stored record.
func (s *InMemoryStore) Save(ctx context.Context, task *a2a.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if task.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if task.Status.State.IsReserved() {
		return NewTaskNotUpdatableError(task.ID, "", task.Status.State)
	}

	next := task.Clone()
	for {
		if err := ctx.Err(); err != nil {
			return NewTaskStoreError("save", task.ID, err)
		}

		cur, ok := s.tasks.Load(task.ID)
		if !ok {
			if _, loaded := s.tasks.LoadOrStore(task.ID, next); !loaded {
				return nil
			}
			continue
		}

		prev := cur.(*a2a.Task)
		if !prev.Status.State.CanTransitionTo(next.Status.State) {
			return NewTaskNotUpdatableError(task.ID, prev.Status.State, next.Status.State)
		}
		if s.tasks.CompareAndSwap(task.ID, prev, next) {
			return nil
		}
	}
}

// Get retrieves a copy of the task with the given ID.
func (s *InMemoryStore) Get(ctx context.Context, taskID string) (*a2a.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	v, ok := s.tasks.Load(taskID)
	if !ok {
		return nil, a2a.TaskNotFoundError{TaskID: taskID}
	}
	return v.(*a2a.Task).Clone(), nil
}

// Len returns the number of stored tasks.
func (s *InMemoryStore) Len() int {
	n := 0
	s.tasks.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
