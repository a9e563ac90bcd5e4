// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout is how long a blocking send waits for a terminal response.
const DefaultTimeout = 30 * time.Second

// EventHandler consumes every event a blocking send observes.
type EventHandler func(ctx context.Context, ev ClientEvent)

// Option represents an option for configuring the [Client].
type Option func(*Client)

// WithHTTPClient sets the [*http.Client] for the [Client].
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets how long [Client.SendMessage] waits for a terminal
// response. Non-positive values select [DefaultTimeout].
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithEventHandler registers an event consumer.
func WithEventHandler(handler EventHandler) Option {
	return func(c *Client) {
		c.handlers = append(c.handlers, handler)
	}
}

// WithInterceptors appends HTTP interceptors applied to every request,
// including the agent card fetch.
func WithInterceptors(interceptors ...Interceptor) Option {
	return func(c *Client) {
		c.interceptors = append(c.interceptors, interceptors...)
	}
}

// WithHeaders adds headers to every request.
func WithHeaders(headers http.Header) Option {
	return WithInterceptors(HeaderInterceptor(headers))
}

// WithBearerToken authenticates every request with token.
func WithBearerToken(token string) Option {
	return WithHeaders(http.Header{"Authorization": {"Bearer " + token}})
}

// WithLogger sets the [*slog.Logger] for the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTracer sets the [trace.Tracer] for the [Client].
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}
