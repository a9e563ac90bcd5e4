// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-a2a/a2a-agent/internal/sink"
)

// ErrQueueClosed is returned when enqueueing to, or draining past the end of, a closed queue.
var ErrQueueClosed = errors.New("event queue is closed")

// EventQueue carries the events of one task execution from the producer to a
// single consumer.
//
// The queue is unbounded: events emitted before the consumer starts polling
// are buffered, never dropped, and EnqueueEvent never blocks the producer.
type EventQueue struct {
	buf *sink.Unbounded[Event]
}

// NewEventQueue creates a new, empty EventQueue.
func NewEventQueue() *EventQueue {
	return &EventQueue{
		buf: sink.New[Event](),
	}
}

// EnqueueEvent appends event to the queue.
// It returns an error if the event is invalid or the queue is closed.
func (q *EventQueue) EnqueueEvent(ctx context.Context, event Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("event validation failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := q.buf.Push(event); err != nil {
		return ErrQueueClosed
	}
	return nil
}

// DequeueEvent removes and returns the oldest event, blocking until one is
// available. Once the queue is closed and drained it returns [ErrQueueClosed].
func (q *EventQueue) DequeueEvent(ctx context.Context) (Event, error) {
	ev, err := q.buf.Pop(ctx)
	if errors.Is(err, io.EOF) {
		return nil, ErrQueueClosed
	}
	return ev, err
}

// Close stops further enqueues. Buffered events can still be dequeued.
func (q *EventQueue) Close() {
	q.buf.Close(nil)
}

// IsClosed reports whether Close has been called.
func (q *EventQueue) IsClosed() bool {
	return q.buf.Closed()
}

// Len returns the number of buffered events.
func (q *EventQueue) Len() int {
	return q.buf.Len()
}
