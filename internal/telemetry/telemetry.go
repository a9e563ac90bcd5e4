// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry holds the OpenTelemetry instruments shared by the server
// components.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// InstrumentationName is the meter and tracer name used by this module.
const InstrumentationName = "github.com/go-a2a/a2a-agent"

var (
	transitionCounter metric.Int64Counter
	requestCounter    metric.Int64Counter
	executionLatency  metric.Float64Histogram
)

var metricOnce sync.Once

// instruments are created on first use so the binary can install its
// MeterProvider before anything is recorded.
func newMetrics() {
	metricOnce.Do(func() {
		m := otel.GetMeterProvider().Meter(InstrumentationName)

		var err error
		transitionCounter, err = m.Int64Counter("a2a.task.transitions",
			metric.WithDescription("Count of persisted task state transitions"),
		)
		if err != nil {
			otel.Handle(err)
			transitionCounter = noop.Int64Counter{}
		}

		requestCounter, err = m.Int64Counter("a2a.rpc.requests",
			metric.WithDescription("Count of dispatched JSON-RPC requests"),
		)
		if err != nil {
			otel.Handle(err)
			requestCounter = noop.Int64Counter{}
		}

		executionLatency, err = m.Float64Histogram("a2a.execution.duration",
			metric.WithDescription("Duration of task executions"),
			metric.WithUnit("s"),
		)
		if err != nil {
			otel.Handle(err)
			executionLatency = noop.Float64Histogram{}
		}
	})
}

// RecordTransition counts a task entering state.
func RecordTransition(ctx context.Context, state string) {
	newMetrics()
	transitionCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("a2a.state", state)))
}

// RecordRequest counts one dispatched request. code is 0 on success.
func RecordRequest(ctx context.Context, method string, code int) {
	newMetrics()
	requestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("rpc.method", method),
		attribute.Int("rpc.jsonrpc.error_code", code),
	))
}

// RecordExecution records how long an execution took to reach state.
func RecordExecution(ctx context.Context, d time.Duration, state string) {
	newMetrics()
	executionLatency.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("a2a.state", state)))
}
