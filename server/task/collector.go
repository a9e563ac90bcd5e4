// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/server/event"
)

// DefaultTimeout is how long [Collect] waits for a terminal status by default.
const DefaultTimeout = 30 * time.Second

// Collect drains queue until a terminal status arrives and returns the parts
// of every artifact update in emission order.
//
// A FAILED or CANCELED task yields [*ExecutionFailedError]. If no terminal
// status arrives within timeout (DefaultTimeout when timeout <= 0), Collect
// returns [*TimeoutError]; the execution is not cancelled.
func Collect(ctx context.Context, queue *event.EventQueue, timeout time.Duration) ([]a2a.Part, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		parts  []a2a.Part
		taskID string
	)
	for {
		ev, err := queue.DequeueEvent(waitCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, &TimeoutError{TaskID: taskID, Timeout: timeout}
			}
			return nil, collectError(taskID, err)
		}

		switch e := ev.(type) {
		case *event.TaskArtifactUpdateEvent:
			taskID = e.TaskID
			parts = append(parts, e.Artifact.Parts...)
		case *event.TaskStatusUpdateEvent:
			taskID = e.TaskID
			if !e.Status.State.IsTerminal() {
				continue
			}
			if err := terminalError(e); err != nil {
				return nil, err
			}
			return parts, nil
		}
	}
}

// Stream returns a lazy, single-use sequence over queue that yields the parts
// of each artifact update as one unit.
//
// The sequence ends after a COMPLETED status. A FAILED or CANCELED status ends
// it with an [*ExecutionFailedError], and queue or context errors are yielded
// as the final element.
func Stream(ctx context.Context, queue *event.EventQueue) iter.Seq2[[]a2a.Part, error] {
	return func(yield func([]a2a.Part, error) bool) {
		var taskID string
		for {
			ev, err := queue.DequeueEvent(ctx)
			if err != nil {
				yield(nil, collectError(taskID, err))
				return
			}

			switch e := ev.(type) {
			case *event.TaskArtifactUpdateEvent:
				taskID = e.TaskID
				if !yield(a2a.CloneParts(e.Artifact.Parts), nil) {
					return
				}
			case *event.TaskStatusUpdateEvent:
				taskID = e.TaskID
				if !e.Status.State.IsTerminal() {
					continue
				}
				if err := terminalError(e); err != nil {
					yield(nil, err)
				}
				return
			}
		}
	}
}

func terminalError(e *event.TaskStatusUpdateEvent) error {
	if e.Status.State == a2a.TaskStateCompleted {
		return nil
	}
	return &ExecutionFailedError{
		TaskID: e.TaskID,
		State:  e.Status.State,
		Detail: e.Status.Detail(),
	}
}

func collectError(taskID string, err error) error {
	if errors.Is(err, event.ErrQueueClosed) {
		return fmt.Errorf("task %q: event stream ended without a terminal status: %w", taskID, err)
	}
	return err
}
