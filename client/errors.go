// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDiscovery is matched by every [*DiscoveryError].
	ErrDiscovery = errors.New("agent card discovery failed")

	// ErrTimeout is matched by every [*TimeoutError].
	ErrTimeout = errors.New("timed out waiting for agent response")

	// ErrStreamEnded reports an event stream that closed before a terminal event.
	ErrStreamEnded = errors.New("event stream ended before a terminal event")
)

// RPCError represents a JSON-RPC 2.0 error returned by the agent.
type RPCError struct {
	// Code is the error code
	Code int `json:"code"`
	// Message is the error message
	Message string `json:"message"`
	// Data is optional additional information about the error
	Data any `json:"data,omitzero"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("rpc error: code = %d, message = %s, data = %v", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error: code = %d, message = %s", e.Code, e.Message)
}

// NewRPCError creates a new RPCError.
func NewRPCError(code int, message string, data any) *RPCError {
	return &RPCError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// IsRPCError checks if err is, or wraps, an RPCError with the specified code.
func IsRPCError(err error, code int) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == code
}

// DiscoveryError reports that the agent card could not be fetched or was
// unusable. It is returned by [NewClient] only.
type DiscoveryError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovering agent card at %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// Is reports whether target is [ErrDiscovery].
func (e *DiscoveryError) Is(target error) bool {
	return target == ErrDiscovery
}

// TimeoutError reports that no terminal response arrived in time. The remote
// execution is not cancelled, so the call may be retried.
type TimeoutError struct {
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no response from agent within %s", e.Timeout)
}

// Is reports whether target is [ErrTimeout].
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Temporary reports that the call may succeed if retried.
func (e *TimeoutError) Temporary() bool {
	return true
}
