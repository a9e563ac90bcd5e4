// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// Interceptor defines a middleware function that can intercept and modify requests/responses.
type Interceptor func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error)

// Invoker represents the next handler in the interceptor chain.
type Invoker func(ctx context.Context, req *http.Request) (*http.Response, error)

// contextKey is used for context values.
type contextKey string

const methodContextKey contextKey = "a2a_method"

// withMethod records the RPC method of an outgoing call in ctx.
func withMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, methodContextKey, method)
}

// MethodFromContext returns the RPC method of the call an interceptor is
// handling. Agent card fetches carry no method.
func MethodFromContext(ctx context.Context) (string, bool) {
	method, ok := ctx.Value(methodContextKey).(string)
	return method, ok
}

// chainInterceptors chains multiple interceptors together.
func chainInterceptors(interceptors []Interceptor, invoker Invoker) Invoker {
	if len(interceptors) == 0 {
		return invoker
	}

	// Build the chain from right to left
	for i := len(interceptors) - 1; i >= 0; i-- {
		interceptor := interceptors[i]
		next := invoker
		invoker = func(ctx context.Context, req *http.Request) (*http.Response, error) {
			return interceptor(ctx, req, next)
		}
	}

	return invoker
}

// LoggingInterceptor logs requests and responses.
func LoggingInterceptor(logger *slog.Logger) Interceptor {
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		method, _ := MethodFromContext(ctx)
		start := time.Now()

		resp, err := invoker(ctx, req)
		if err != nil {
			logger.WarnContext(ctx, "a2a request failed", "url", req.URL.String(), "method", method, "error", err)
			return resp, err
		}
		logger.DebugContext(ctx, "a2a request", "url", req.URL.String(), "method", method,
			"status", resp.StatusCode, "duration", time.Since(start))
		return resp, nil
	}
}

// RetryPolicy configures [RetryInterceptor].
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy retries three times with exponential backoff.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:  3,
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     2 * time.Second,
	Multiplier:   2,
}

// RetryInterceptor retries requests that failed in transport or with a
// retryable HTTP status. JSON-RPC errors arrive with status 200 and are never
// retried.
func RetryInterceptor(policy RetryPolicy) Interceptor {
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		var (
			resp    *http.Response
			lastErr error
		)
		for attempt := range max(policy.MaxAttempts, 1) {
			if attempt > 0 {
				delay := calculateDelay(policy, attempt-1)
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay):
				}
				if req.GetBody != nil {
					body, err := req.GetBody()
					if err != nil {
						return nil, fmt.Errorf("rewinding request body: %w", err)
					}
					req.Body = body
				}
			}

			resp, lastErr = invoker(ctx, req)
			if lastErr == nil && !shouldRetry(resp.StatusCode) {
				return resp, nil
			}
			if lastErr == nil && attempt < policy.MaxAttempts-1 {
				resp.Body.Close()
			}
		}

		return resp, lastErr
	}
}

// UserAgentInterceptor adds a user agent header to requests.
func UserAgentInterceptor(userAgent string) Interceptor {
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		req.Header.Set("User-Agent", userAgent)
		return invoker(ctx, req)
	}
}

// HeaderInterceptor adds custom headers to requests.
func HeaderInterceptor(headers http.Header) Interceptor {
	headers = headers.Clone()
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		for key, values := range headers {
			req.Header.Del(key)
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}
		return invoker(ctx, req)
	}
}

// shouldRetry determines if a response should be retried based on status code.
func shouldRetry(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusRequestTimeout || statusCode == http.StatusTooManyRequests
}

// calculateDelay calculates the delay for the next retry attempt.
func calculateDelay(policy RetryPolicy, attempt int) time.Duration {
	return min(time.Duration(float64(policy.InitialDelay)*math.Pow(policy.Multiplier, float64(attempt))), policy.MaxDelay)
}
