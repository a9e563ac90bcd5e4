// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/server/event"
	"github.com/go-a2a/a2a-agent/server/task"
)

func newRequest(t *testing.T, store task.Store, text ...string) *RequestContext {
	t.Helper()

	parts := make([]a2a.Part, len(text))
	for i, s := range text {
		parts[i] = a2a.NewTextPart(s)
	}
	msg := a2a.NewMessage(a2a.RoleUser, parts...)
	rc, err := NewSimpleRequestContextBuilder(store).Build(t.Context(), &a2a.SendMessageParams{Message: &msg})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return rc
}

// statuses drains queue and returns the observed task states.
func statuses(t *testing.T, queue *event.EventQueue) []a2a.TaskState {
	t.Helper()

	var got []a2a.TaskState
	for {
		ev, err := queue.DequeueEvent(t.Context())
		if errors.Is(err, event.ErrQueueClosed) {
			return got
		}
		if err != nil {
			t.Fatalf("DequeueEvent failed: %v", err)
		}
		if e, ok := ev.(*event.TaskStatusUpdateEvent); ok {
			got = append(got, e.Status.State)
		}
	}
}

func TestExecutor_Echo(t *testing.T) {
	store := task.NewInMemoryStore()
	exec := NewExecutor(EchoLifecycle{}, store)
	rc := newRequest(t, store, "Hello,", "X")
	queue := event.NewEventQueue()

	if err := exec.Execute(t.Context(), rc, queue); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	parts, err := task.Collect(t.Context(), queue, time.Second)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := a2a.JoinText(parts, ""); got != "Echo: Hello, X" {
		t.Errorf("response = %q, want %q", got, "Echo: Hello, X")
	}

	stored, err := store.Get(t.Context(), rc.TaskID())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Status.State != a2a.TaskStateCompleted {
		t.Errorf("stored state = %s, want completed", stored.Status.State)
	}
	if len(stored.History) != 1 || stored.History[0].Text() != "Hello,X" {
		t.Errorf("history = %+v, want the user message", stored.History)
	}
	if exec.Running(rc.TaskID()) {
		t.Error("Running() = true after Execute returned")
	}
}

func TestExecutor_StatusSequence(t *testing.T) {
	boom := errors.New("boom")

	tests := map[string]struct {
		lifecycle Lifecycle
		want      []a2a.TaskState
	}{
		"success": {
			lifecycle: EchoLifecycle{},
			want:      []a2a.TaskState{a2a.TaskStateSubmitted, a2a.TaskStateWorking, a2a.TaskStateCompleted},
		},
		"no parts still completes": {
			lifecycle: LifecycleFunc(func(context.Context, string, *task.Updater) ([]a2a.Part, error) {
				return nil, nil
			}),
			want: []a2a.TaskState{a2a.TaskStateSubmitted, a2a.TaskStateWorking, a2a.TaskStateCompleted},
		},
		"error fails": {
			lifecycle: LifecycleFunc(func(context.Context, string, *task.Updater) ([]a2a.Part, error) {
				return nil, boom
			}),
			want: []a2a.TaskState{a2a.TaskStateSubmitted, a2a.TaskStateWorking, a2a.TaskStateFailed},
		},
		"panic fails": {
			lifecycle: LifecycleFunc(func(context.Context, string, *task.Updater) ([]a2a.Part, error) {
				panic("kaboom")
			}),
			want: []a2a.TaskState{a2a.TaskStateSubmitted, a2a.TaskStateWorking, a2a.TaskStateFailed},
		},
		"hook cancels itself": {
			lifecycle: LifecycleFunc(func(ctx context.Context, _ string, u *task.Updater) ([]a2a.Part, error) {
				return []a2a.Part{a2a.NewTextPart("ignored")}, u.Cancel(ctx, "")
			}),
			want: []a2a.TaskState{a2a.TaskStateSubmitted, a2a.TaskStateWorking, a2a.TaskStateCanceled},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			store := task.NewInMemoryStore()
			rc := newRequest(t, store, "hi")
			queue := event.NewEventQueue()

			if err := NewExecutor(tt.lifecycle, store).Execute(t.Context(), rc, queue); err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, statuses(t, queue)); diff != "" {
				t.Errorf("status sequence mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type hookedLifecycle struct {
	EchoLifecycle
	completed int
	errs      []error
}

func (h *hookedLifecycle) OnComplete(context.Context, *task.Updater) error {
	h.completed++
	return nil
}

func (h *hookedLifecycle) OnError(ctx context.Context, err error, u *task.Updater) error {
	h.errs = append(h.errs, err)
	return u.Fail(ctx, "handled: "+err.Error())
}

type failingLifecycle struct {
	hookedLifecycle
}

func (f *failingLifecycle) Execute(context.Context, string, *task.Updater) ([]a2a.Part, error) {
	return nil, errors.New("model down")
}

func TestExecutor_Hooks(t *testing.T) {
	t.Run("complete hook", func(t *testing.T) {
		store := task.NewInMemoryStore()
		h := &hookedLifecycle{}
		queue := event.NewEventQueue()
		if err := NewExecutor(h, store).Execute(t.Context(), newRequest(t, store, "hi"), queue); err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if h.completed != 1 || len(h.errs) != 0 {
			t.Errorf("hooks = (completed %d, errors %v), want (1, none)", h.completed, h.errs)
		}
	})

	t.Run("error hook sets detail", func(t *testing.T) {
		store := task.NewInMemoryStore()
		queue := event.NewEventQueue()
		rc := newRequest(t, store, "hi")

		exec := NewExecutor(&failingLifecycle{}, store)
		if err := exec.Execute(t.Context(), rc, queue); err != nil {
			t.Fatalf("Execute failed: %v", err)
		}

		_, err := task.Collect(t.Context(), queue, time.Second)
		var failed *task.ExecutionFailedError
		if !errors.As(err, &failed) || failed.Detail != "handled: model down" {
			t.Errorf("Collect error = %v, want handled detail", err)
		}
	})
}

func TestExecutor_CancelRunning(t *testing.T) {
	store := task.NewInMemoryStore()
	started := make(chan struct{})
	release := make(chan struct{})
	exec := NewExecutor(LifecycleFunc(func(ctx context.Context, _ string, _ *task.Updater) ([]a2a.Part, error) {
		close(started)
		<-release
		return []a2a.Part{a2a.NewTextPart("late")}, nil
	}), store)

	rc := newRequest(t, store, "hi")
	queue := event.NewEventQueue()
	done := make(chan error, 1)
	go func() { done <- exec.Execute(context.Background(), rc, queue) }()

	<-started
	if !exec.Running(rc.TaskID()) {
		t.Fatal("Running() = false during execution")
	}
	if err := exec.Cancel(t.Context(), rc.TaskID()); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := []a2a.TaskState{a2a.TaskStateSubmitted, a2a.TaskStateWorking, a2a.TaskStateCanceled}
	if diff := cmp.Diff(want, statuses(t, queue)); diff != "" {
		t.Errorf("status sequence mismatch (-want +got):\n%s", diff)
	}
	stored, _ := store.Get(t.Context(), rc.TaskID())
	if stored.Status.State != a2a.TaskStateCanceled || len(stored.Artifacts) != 0 {
		t.Errorf("stored task = %+v, want canceled without artifacts", stored.Status)
	}
}

func TestExecutor_CancelFinished(t *testing.T) {
	store := task.NewInMemoryStore()
	exec := NewExecutor(EchoLifecycle{}, store)
	rc := newRequest(t, store, "hi")
	if err := exec.Execute(t.Context(), rc, event.NewEventQueue()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if err := exec.Cancel(t.Context(), rc.TaskID()); err != nil {
		t.Fatalf("Cancel after completion = %v, want nil", err)
	}
	stored, _ := store.Get(t.Context(), rc.TaskID())
	if stored.Status.State != a2a.TaskStateCompleted {
		t.Errorf("state after cancel = %s, want completed", stored.Status.State)
	}

	var notFound a2a.TaskNotFoundError
	if err := exec.Cancel(t.Context(), "missing"); !errors.As(err, &notFound) {
		t.Errorf("Cancel(missing) error = %v, want TaskNotFoundError", err)
	}
}

func TestExecutor_CancelStored(t *testing.T) {
	store := task.NewInMemoryStore()
	submitted := a2a.NewTask("ctx")
	if err := store.Save(t.Context(), submitted); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := NewExecutor(EchoLifecycle{}, store).Cancel(t.Context(), submitted.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	stored, _ := store.Get(t.Context(), submitted.ID)
	if stored.Status.State != a2a.TaskStateCanceled {
		t.Errorf("state = %s, want canceled", stored.Status.State)
	}
}

func TestExecutor_ConcurrentTasks(t *testing.T) {
	store := task.NewInMemoryStore()
	exec := NewExecutor(LifecycleFunc(func(_ context.Context, input string, _ *task.Updater) ([]a2a.Part, error) {
		if input == "fail" {
			return nil, errors.New("asked to fail")
		}
		return []a2a.Part{a2a.NewTextPart(input)}, nil
	}), store)

	inputs := []string{"ok", "fail", "ok", "fail", "ok"}
	rcs := make([]*RequestContext, len(inputs))
	var wg sync.WaitGroup
	for i, in := range inputs {
		rcs[i] = newRequest(t, store, in)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = exec.Execute(context.Background(), rcs[i], event.NewEventQueue())
		}()
	}
	wg.Wait()

	for i, in := range inputs {
		stored, err := store.Get(t.Context(), rcs[i].TaskID())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		want := a2a.TaskStateCompleted
		if in == "fail" {
			want = a2a.TaskStateFailed
		}
		if stored.Status.State != want {
			t.Errorf("task %d state = %s, want %s", i, stored.Status.State, want)
		}
	}
}

// requestFor builds a request addressed to the stored task taskID.
func requestFor(t *testing.T, store task.Store, taskID, text string) *RequestContext {
	t.Helper()

	msg := a2a.NewTextMessage(a2a.RoleUser, text)
	rc, err := NewSimpleRequestContextBuilder(store).Build(t.Context(), &a2a.SendMessageParams{Message: &msg, TaskID: taskID})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return rc
}

func TestExecutor_SecondExecutionRejected(t *testing.T) {
	store := task.NewInMemoryStore()
	submitted := a2a.NewTask("ctx")
	if err := store.Save(t.Context(), submitted); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	exec := NewExecutor(LifecycleFunc(func(_ context.Context, input string, _ *task.Updater) ([]a2a.Part, error) {
		once.Do(func() { close(started) })
		<-release
		return []a2a.Part{a2a.NewTextPart(input)}, nil
	}), store)

	first := requestFor(t, store, submitted.ID, "first")
	second := requestFor(t, store, submitted.ID, "second")

	firstQueue := event.NewEventQueue()
	done := make(chan error, 1)
	go func() { done <- exec.Execute(context.Background(), first, firstQueue) }()
	<-started

	secondQueue := event.NewEventQueue()
	if err := exec.Execute(t.Context(), second, secondQueue); !errors.Is(err, ErrTaskRunning) {
		t.Errorf("second Execute error = %v, want ErrTaskRunning", err)
	}
	if got := statuses(t, secondQueue); len(got) != 0 {
		t.Errorf("second execution emitted %v, want nothing", got)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}
	want := []a2a.TaskState{a2a.TaskStateWorking, a2a.TaskStateCompleted}
	if diff := cmp.Diff(want, statuses(t, firstQueue)); diff != "" {
		t.Errorf("first status sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestExecutor_StaleExecutionAdoptsStoredTerminal(t *testing.T) {
	store := task.NewInMemoryStore()
	submitted := a2a.NewTask("ctx")
	if err := store.Save(t.Context(), submitted); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Both requests see the task as SUBMITTED; the executors share only the store.
	winner := requestFor(t, store, submitted.ID, "a")
	stale := requestFor(t, store, submitted.ID, "b")

	winnerQueue := event.NewEventQueue()
	if err := NewExecutor(EchoLifecycle{}, store).Execute(t.Context(), winner, winnerQueue); err != nil {
		t.Fatalf("winning Execute failed: %v", err)
	}
	staleQueue := event.NewEventQueue()
	if err := NewExecutor(EchoLifecycle{}, store).Execute(t.Context(), stale, staleQueue); err != nil {
		t.Fatalf("stale Execute = %v, want nil", err)
	}

	want := []a2a.TaskState{a2a.TaskStateWorking, a2a.TaskStateCompleted}
	if diff := cmp.Diff(want, statuses(t, winnerQueue)); diff != "" {
		t.Errorf("winning status sequence mismatch (-want +got):\n%s", diff)
	}
	if got := statuses(t, staleQueue); len(got) != 0 {
		t.Errorf("stale execution emitted %v, want nothing", got)
	}
	stored, _ := store.Get(t.Context(), submitted.ID)
	if stored.Status.State != a2a.TaskStateCompleted {
		t.Errorf("stored state = %s, want completed", stored.Status.State)
	}
}

func TestExecutor_CancelDuringStoredCancel(t *testing.T) {
	store := task.NewInMemoryStore()
	submitted := a2a.NewTask("ctx")
	if err := store.Save(t.Context(), submitted); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	exec := NewExecutor(cancelHook{entered: entered, release: release}, store)

	done := make(chan error, 1)
	go func() { done <- exec.Cancel(context.Background(), submitted.ID) }()
	<-entered

	if !exec.Running(submitted.ID) {
		t.Error("Running() = false while a cancellation drives the task")
	}
	rc := requestFor(t, store, submitted.ID, "late")
	queue := event.NewEventQueue()
	if err := exec.Execute(t.Context(), rc, queue); !errors.Is(err, ErrTaskRunning) {
		t.Errorf("Execute during cancel = %v, want ErrTaskRunning", err)
	}
	if got := statuses(t, queue); len(got) != 0 {
		t.Errorf("rejected execution emitted %v, want nothing", got)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if exec.Running(submitted.ID) {
		t.Error("Running() = true after the cancellation finished")
	}
	stored, _ := store.Get(t.Context(), submitted.ID)
	if stored.Status.State != a2a.TaskStateCanceled {
		t.Errorf("stored state = %s, want canceled", stored.Status.State)
	}
}

// cancelHook blocks inside its cancel hook until released.
type cancelHook struct {
	EchoLifecycle
	entered chan struct{}
	release chan struct{}
}

func (h cancelHook) Cancel(ctx context.Context, u *task.Updater) error {
	close(h.entered)
	<-h.release
	return u.Cancel(ctx, "")
}

type requestKey struct{}

// panicLog records the request value of every "lifecycle hook panicked" record.
type panicLog struct {
	mu   sync.Mutex
	seen []string
}

func (h *panicLog) Enabled(context.Context, slog.Level) bool { return true }

func (h *panicLog) Handle(ctx context.Context, r slog.Record) error {
	if r.Message != "lifecycle hook panicked" {
		return nil
	}
	v, _ := ctx.Value(requestKey{}).(string)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, v)
	return nil
}

func (h *panicLog) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *panicLog) WithGroup(string) slog.Handler      { return h }

func TestExecutor_PanicLoggedWithContext(t *testing.T) {
	store := task.NewInMemoryStore()
	logs := &panicLog{}
	exec := NewExecutor(LifecycleFunc(func(context.Context, string, *task.Updater) ([]a2a.Part, error) {
		panic("kaboom")
	}), store, WithLogger(slog.New(logs)))

	ctx := context.WithValue(t.Context(), requestKey{}, "req-1")
	if err := exec.Execute(ctx, newRequest(t, store, "hi"), event.NewEventQueue()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	logs.mu.Lock()
	defer logs.mu.Unlock()
	if diff := cmp.Diff([]string{"req-1"}, logs.seen); diff != "" {
		t.Errorf("panic log context mismatch (-want +got):\n%s", diff)
	}
}

func TestExecutor_HistoryCarriesRequest(t *testing.T) {
	store := task.NewInMemoryStore()
	var seen []a2a.Message
	exec := NewExecutor(LifecycleFunc(func(ctx context.Context, input string, u *task.Updater) ([]a2a.Part, error) {
		stored, err := store.Get(ctx, u.TaskID())
		if err != nil {
			return nil, err
		}
		seen = stored.History
		return []a2a.Part{a2a.NewTextPart(input)}, nil
	}), store)

	submitted := a2a.NewTask("ctx")
	if err := store.Save(t.Context(), submitted); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	for name, rc := range map[string]*RequestContext{
		"new task":       newRequest(t, store, "fresh"),
		"submitted task": requestFor(t, store, submitted.ID, "follow-up"),
	} {
		t.Run(name, func(t *testing.T) {
			if err := exec.Execute(t.Context(), rc, event.NewEventQueue()); err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if len(seen) != 1 || seen[0].Text() != rc.Message().Text() {
				t.Errorf("history while working = %v, want the request message", seen)
			}
		})
	}
}
