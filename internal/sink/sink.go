// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package sink provides an unbounded multi-producer, single-consumer queue.
package sink

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrClosed is returned by [Unbounded.Push] after the sink has been closed.
var ErrClosed = errors.New("sink: closed")

// Unbounded buffers every pushed value until it is popped.
//
// Any number of goroutines may Push; exactly one goroutine should Pop.
// Push never blocks, so producers are never slowed by a slow consumer.
type Unbounded[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	err    error
	notify chan struct{}
}

// New returns an empty [Unbounded].
func New[T any]() *Unbounded[T] {
	return &Unbounded[T]{
		notify: make(chan struct{}, 1),
	}
}

// Push appends v. It returns [ErrClosed] if the sink was closed.
func (u *Unbounded[T]) Push(v T) error {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return ErrClosed
	}
	u.items = append(u.items, v)
	u.mu.Unlock()

	u.signal()
	return nil
}

// Close marks the end of the sequence. Values already pushed remain
// poppable; once drained, Pop returns err, or [io.EOF] if err is nil.
// Only the first Close has any effect.
func (u *Unbounded[T]) Close(err error) {
	u.mu.Lock()
	if !u.closed {
		u.closed = true
		u.err = err
	}
	u.mu.Unlock()

	u.signal()
}

// Pop removes and returns the oldest value, blocking until one is available,
// the sink is closed and drained, or ctx is done.
func (u *Unbounded[T]) Pop(ctx context.Context) (T, error) {
	var zero T
	for {
		u.mu.Lock()
		if len(u.items) > 0 {
			v := u.items[0]
			u.items[0] = zero
			u.items = u.items[1:]
			u.mu.Unlock()
			return v, nil
		}
		if u.closed {
			err := u.err
			u.mu.Unlock()
			if err == nil {
				err = io.EOF
			}
			return zero, err
		}
		u.mu.Unlock()

		select {
		case <-u.notify:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of buffered values.
func (u *Unbounded[T]) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.items)
}

// Closed reports whether Close has been called.
func (u *Unbounded[T]) Closed() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.closed
}

func (u *Unbounded[T]) signal() {
	select {
	case u.notify <- struct{}{}:
	default:
	}
}
