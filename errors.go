// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"
)

// JSON-RPC 2.0 error codes used by the protocol.
const (
	ErrorCodeJSONParse      = -32700
	ErrorCodeInvalidRequest = -32600
	ErrorCodeMethodNotFound = -32601
	ErrorCodeInvalidParams  = -32602
	ErrorCodeInternalError  = -32603
)

// JSONRPCError represents a JSON-RPC 2.0 error.
type JSONRPCError struct {
	// Code is the error code.
	Code int `json:"code"`
	// Message is a short description of the error.
	Message string `json:"message"`
	// Data contains optional additional error details.
	Data any `json:"data,omitempty"`
}

var _ error = (*JSONRPCError)(nil)

// NewJSONRPCError returns a [JSONRPCError] with a formatted message.
func NewJSONRPCError(code int, format string, args ...any) *JSONRPCError {
	return &JSONRPCError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *JSONRPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// TaskNotFoundError reports a lookup of an unknown task ID.
type TaskNotFoundError struct {
	TaskID string
}

// Error implements the error interface.
func (e TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// InvalidRoleError reports a role string that maps to no [Role].
type InvalidRoleError struct {
	Role string
}

// Error implements the error interface.
func (e *InvalidRoleError) Error() string {
	return fmt.Sprintf("unknown role %q", e.Role)
}

// UnsupportedPartError reports a part variant this package cannot represent.
type UnsupportedPartError struct {
	Kind string
}

// Error implements the error interface.
func (e *UnsupportedPartError) Error() string {
	if e.Kind == "" {
		return "Unsupported part type"
	}
	return fmt.Sprintf("Unsupported part type: %s", e.Kind)
}
