// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// JSONRPCVersion is the only protocol version accepted in envelopes.
const JSONRPCVersion = "2.0"

// A2A RPC method names. Servers match them case-insensitively.
const (
	// MethodSubmitTask creates a task without executing it.
	MethodSubmitTask = "submitTask"
	// MethodSendMessage sends a message and runs the task to a terminal state.
	MethodSendMessage = "sendMessage"
	// MethodGetTask looks up a task by ID.
	MethodGetTask = "getTask"
)

// Result kinds carried in the "kind" member of streamed results.
const (
	KindMessage        = "message"
	KindTask           = TaskKind
	KindStatusUpdate   = "status-update"
	KindArtifactUpdate = "artifact-update"
)

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	// JSONRPC version, always "2.0".
	JSONRPC string `json:"jsonrpc"`
	// ID is echoed verbatim in the response. It may be a string, a number or absent.
	ID jsontext.Value `json:"id,omitempty"`
	// Method identifies the operation to perform.
	Method string `json:"method"`
	// Params contains parameters for the method.
	Params jsontext.Value `json:"params,omitempty"`
}

// NewJSONRPCRequest builds a request whose id and params are encoded from Go values.
func NewJSONRPCRequest(id any, method string, params any) (*JSONRPCRequest, error) {
	req := &JSONRPCRequest{
		JSONRPC: JSONRPCVersion,
		Method:  method,
	}
	if id != nil {
		raw, err := json.Marshal(id)
		if err != nil {
			return nil, fmt.Errorf("marshaling id: %w", err)
		}
		req.ID = raw
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshaling params: %w", err)
		}
		req.Params = raw
	}
	return req, nil
}

// Validate checks the envelope fields required by JSON-RPC 2.0.
func (r *JSONRPCRequest) Validate() error {
	if r.JSONRPC != JSONRPCVersion {
		return fmt.Errorf("unsupported jsonrpc version %q", r.JSONRPC)
	}
	if r.Method == "" {
		return fmt.Errorf("method is required")
	}
	return nil
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	// JSONRPC version, always "2.0".
	JSONRPC string `json:"jsonrpc"`
	// ID echoes the request ID, or null if it could not be read.
	ID jsontext.Value `json:"id"`
	// Result contains the successful result data.
	// Mutually exclusive with Error.
	Result jsontext.Value `json:"result,omitempty"`
	// Error contains an error object if the request failed.
	// Mutually exclusive with Result.
	Error *JSONRPCError `json:"error,omitempty"`
}

// NewSuccessResponse returns a response carrying result encoded as JSON.
func NewSuccessResponse(id jsontext.Value, result any) (*JSONRPCResponse, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      nullID(id),
		Result:  raw,
	}, nil
}

// NewErrorResponse returns a response carrying err.
func NewErrorResponse(id jsontext.Value, err *JSONRPCError) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      nullID(id),
		Error:   err,
	}
}

// DecodeResult unmarshals the response result into v, or returns the response error.
func (r *JSONRPCResponse) DecodeResult(v any) error {
	if r.Error != nil {
		return r.Error
	}
	return json.Unmarshal(r.Result, v)
}

func nullID(id jsontext.Value) jsontext.Value {
	if len(id) == 0 {
		return jsontext.Value("null")
	}
	return id
}

// SubmitTaskParams are the parameters of [MethodSubmitTask].
type SubmitTaskParams struct {
	ContextID string `json:"contextId,omitempty"`
}

// SubmitTaskResult is the result of [MethodSubmitTask].
type SubmitTaskResult struct {
	TaskID    string `json:"taskId"`
	ContextID string `json:"contextId,omitempty"`
}

// SendMessageParams are the parameters of [MethodSendMessage].
type SendMessageParams struct {
	Message   *Message `json:"message"`
	TaskID    string   `json:"taskId,omitempty"`
	ContextID string   `json:"contextId,omitempty"`
}

// SendMessageResult is the result of a blocking [MethodSendMessage].
type SendMessageResult struct {
	Message *Message `json:"message"`
}

// GetTaskParams are the parameters of [MethodGetTask].
// ID is accepted as an alias of TaskID.
type GetTaskParams struct {
	TaskID string `json:"taskId,omitempty"`
	ID     string `json:"id,omitempty"`
}

// ResolvedTaskID returns TaskID, falling back to ID.
func (p GetTaskParams) ResolvedTaskID() string {
	if p.TaskID != "" {
		return p.TaskID
	}
	return p.ID
}

// GetTaskResult is the result of [MethodGetTask].
type GetTaskResult struct {
	Task *Task `json:"task"`
}

// TaskStatusUpdate is a streamed result announcing a status change.
type TaskStatusUpdate struct {
	Kind      string     `json:"kind"`
	TaskID    string     `json:"taskId"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	Final     bool       `json:"final"`
}

// TaskArtifactUpdate is a streamed result carrying an artifact.
type TaskArtifactUpdate struct {
	Kind      string   `json:"kind"`
	TaskID    string   `json:"taskId"`
	ContextID string   `json:"contextId"`
	Artifact  Artifact `json:"artifact"`
	Append    bool     `json:"append,omitempty"`
	LastChunk bool     `json:"lastChunk,omitempty"`
}
