// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestUnbounded_Order(t *testing.T) {
	s := New[int]()
	for i := range 5 {
		if err := s.Push(i); err != nil {
			t.Fatalf("Push(%d) failed: %v", i, err)
		}
	}
	s.Close(nil)

	if err := s.Push(9); !errors.Is(err, ErrClosed) {
		t.Errorf("Push after Close = %v, want ErrClosed", err)
	}

	ctx := context.Background()
	var got []int
	for {
		v, err := s.Pop(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Pop failed: %v", err)
		}
		got = append(got, v)
	}

	if diff := cmp.Diff([]int{0, 1, 2, 3, 4}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestUnbounded_CloseWithError(t *testing.T) {
	s := New[string]()
	boom := errors.New("boom")
	_ = s.Push("a")
	s.Close(boom)
	s.Close(nil)

	ctx := context.Background()
	if v, err := s.Pop(ctx); err != nil || v != "a" {
		t.Fatalf("Pop = %q, %v; want a, nil", v, err)
	}
	if _, err := s.Pop(ctx); !errors.Is(err, boom) {
		t.Errorf("Pop after drain = %v, want %v", err, boom)
	}
}

func TestUnbounded_PopBlocksUntilPush(t *testing.T) {
	s := New[int]()
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = s.Push(42)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	v, err := s.Pop(ctx)
	if err != nil || v != 42 {
		t.Errorf("Pop = %d, %v; want 42, nil", v, err)
	}
}

func TestUnbounded_PopContextDone(t *testing.T) {
	s := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := s.Pop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Pop = %v, want context.DeadlineExceeded", err)
	}
}

func TestUnbounded_ManyProducers(t *testing.T) {
	s := New[int]()
	const producers, each = 8, 100

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range each {
				_ = s.Push(p*each + i)
			}
		}()
	}
	go func() {
		wg.Wait()
		s.Close(nil)
	}()

	ctx := context.Background()
	var got []int
	for {
		v, err := s.Pop(ctx)
		if err != nil {
			break
		}
		got = append(got, v)
	}

	if len(got) != producers*each {
		t.Fatalf("popped %d values, want %d", len(got), producers*each)
	}
	sort.Ints(got)
	for i, v := range got {
		if v != i {
			t.Fatalf("value %d missing", i)
		}
	}
}
