// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"errors"
	"fmt"

	"github.com/go-a2a/a2a-agent"
)

// InvalidParamsError reports method parameters that are missing or malformed.
type InvalidParamsError struct {
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *InvalidParamsError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid params: %s: %v", e.Detail, e.Err)
	}
	return "invalid params: " + e.Detail
}

// Unwrap returns the underlying decode error, if any.
func (e *InvalidParamsError) Unwrap() error {
	return e.Err
}

// NewMethodNotFoundError returns the -32601 error for method.
func NewMethodNotFoundError(method string) *a2a.JSONRPCError {
	return a2a.NewJSONRPCError(a2a.ErrorCodeMethodNotFound, "Method not found: %s", method)
}

// NewInternalError returns a -32603 error carrying detail.
func NewInternalError(detail any) *a2a.JSONRPCError {
	return a2a.NewJSONRPCError(a2a.ErrorCodeInternalError, "Internal error: %v", detail)
}

// toJSONRPCError maps err, raised while serving method, onto a JSON-RPC error.
//
// getTask distinguishes bad parameters and unknown tasks with -32602. Every
// other failure is -32603 with a method-specific prefix.
func toJSONRPCError(method string, err error) *a2a.JSONRPCError {
	var rpcErr *a2a.JSONRPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	switch method {
	case a2a.MethodGetTask:
		var invalid *InvalidParamsError
		if errors.As(err, &invalid) {
			return a2a.NewJSONRPCError(a2a.ErrorCodeInvalidParams, "Invalid params: %s", invalid.Detail)
		}
		var notFound a2a.TaskNotFoundError
		if errors.As(err, &notFound) {
			return a2a.NewJSONRPCError(a2a.ErrorCodeInvalidParams, "Task not found: %s", notFound.TaskID)
		}
		return NewInternalError(err)
	case a2a.MethodSendMessage:
		return a2a.NewJSONRPCError(a2a.ErrorCodeInternalError, "Error sending message: %v", err)
	case a2a.MethodSubmitTask:
		return a2a.NewJSONRPCError(a2a.ErrorCodeInternalError, "Error submitting task: %v", err)
	default:
		return NewInternalError(err)
	}
}
