// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/go-a2a/a2a-agent"
)

// ClientEvent is a response observed by the client. It is either a
// [*MessageEvent] or a [*TaskEvent].
type ClientEvent interface {
	// Parts returns the content carried by the event.
	Parts() []a2a.Part
	// Terminal reports whether no further events follow for the call.
	Terminal() bool

	isClientEvent()
}

// MessageEvent carries a direct agent reply. It is always terminal.
type MessageEvent struct {
	Message *a2a.Message
}

var _ ClientEvent = (*MessageEvent)(nil)

// Parts implements [ClientEvent].
func (e *MessageEvent) Parts() []a2a.Part {
	if e.Message == nil {
		return nil
	}
	return a2a.CloneParts(e.Message.Parts)
}

// Terminal implements [ClientEvent].
func (*MessageEvent) Terminal() bool { return true }

func (*MessageEvent) isClientEvent() {}

// TaskEvent carries a snapshot of a remote task.
//
// In a stream, Artifact is the artifact whose arrival produced the event;
// it is nil for status changes and for whole-task results.
type TaskEvent struct {
	Task     *a2a.Task
	Artifact *a2a.Artifact
}

var _ ClientEvent = (*TaskEvent)(nil)

// Parts returns the parts of Artifact when set, and otherwise the parts of
// the task's first artifact.
func (e *TaskEvent) Parts() []a2a.Part {
	if e.Artifact != nil {
		return a2a.CloneParts(e.Artifact.Parts)
	}
	return a2a.FirstArtifactParts(e.Task)
}

// Terminal reports whether the task is COMPLETED, FAILED or CANCELED.
func (e *TaskEvent) Terminal() bool {
	return e.Task != nil && e.Task.IsTerminal()
}

func (*TaskEvent) isClientEvent() {}

// reply converts a terminal event into the message returned by a blocking send.
func reply(ev ClientEvent) *a2a.Message {
	switch e := ev.(type) {
	case *MessageEvent:
		return e.Message
	case *TaskEvent:
		msg := a2a.NewAgentMessage(e.Task.ContextID, e.Task.ID, a2a.FirstArtifactParts(e.Task)...)
		return &msg
	default:
		panic(fmt.Sprintf("unknown client event %T", ev))
	}
}

// resultProbe reads the members that select a result's variant.
type resultProbe struct {
	Kind    string         `json:"kind"`
	Message jsontext.Value `json:"message"`
	Task    jsontext.Value `json:"task"`
}

// decodeResult decodes a sendMessage result. Wrapped ({"message":...} or
// {"task":...}) and bare kind-tagged results are both accepted. Stream
// updates are returned as *a2a.TaskStatusUpdate or *a2a.TaskArtifactUpdate.
func decodeResult(raw jsontext.Value) (any, error) {
	var probe resultProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}

	switch {
	case len(probe.Message) > 0:
		return decodeAs[a2a.Message](probe.Message)
	case len(probe.Task) > 0:
		return decodeAs[a2a.Task](probe.Task)
	}

	switch probe.Kind {
	case a2a.KindMessage:
		return decodeAs[a2a.Message](raw)
	case a2a.KindTask:
		return decodeAs[a2a.Task](raw)
	case a2a.KindStatusUpdate:
		return decodeAs[a2a.TaskStatusUpdate](raw)
	case a2a.KindArtifactUpdate:
		return decodeAs[a2a.TaskArtifactUpdate](raw)
	default:
		return nil, fmt.Errorf("unrecognized result kind %q", probe.Kind)
	}
}

func decodeAs[T any](raw jsontext.Value) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("decoding %T: %w", v, err)
	}
	return v, nil
}

// taskFolder folds streamed updates into a running task snapshot.
type taskFolder struct {
	task *a2a.Task
}

// fold applies a decoded result and returns the event to publish.
func (f *taskFolder) fold(result any) (ClientEvent, error) {
	switch r := result.(type) {
	case *a2a.Message:
		return &MessageEvent{Message: r}, nil
	case *a2a.Task:
		f.task = r
		return &TaskEvent{Task: r.Clone()}, nil
	case *a2a.TaskArtifactUpdate:
		f.ensure(r.TaskID, r.ContextID)
		artifact := r.Artifact.Clone()
		f.task.Artifacts = append(f.task.Artifacts, artifact)
		return &TaskEvent{Task: f.task.Clone(), Artifact: &artifact}, nil
	case *a2a.TaskStatusUpdate:
		f.ensure(r.TaskID, r.ContextID)
		f.task.Status = r.Status
		return &TaskEvent{Task: f.task.Clone()}, nil
	default:
		return nil, fmt.Errorf("unexpected result %T", result)
	}
}

func (f *taskFolder) ensure(taskID, contextID string) {
	if f.task != nil {
		return
	}
	f.task = &a2a.Task{
		ID:        taskID,
		ContextID: contextID,
		Status:    a2a.NewTaskStatus(a2a.TaskStateWorking),
		Kind:      a2a.TaskKind,
	}
}
