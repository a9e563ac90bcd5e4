// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { provider.Shutdown(context.Background()) })

	ctx := t.Context()
	RecordTransition(ctx, "working")
	RecordTransition(ctx, "working")
	RecordTransition(ctx, "completed")
	RecordRequest(ctx, "sendMessage", 0)
	RecordRequest(ctx, "getTask", -32602)
	RecordExecution(ctx, 250*time.Millisecond, "completed")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	sums := make(map[string]int64)
	var executions uint64
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != InstrumentationName {
			continue
		}
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					label := m.Name
					if v, ok := dp.Attributes.Value("a2a.state"); ok {
						label += "/" + v.AsString()
					}
					if v, ok := dp.Attributes.Value("rpc.method"); ok {
						label += "/" + v.AsString()
					}
					sums[label] += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					executions += dp.Count
				}
			}
		}
	}

	want := map[string]int64{
		"a2a.task.transitions/working":   2,
		"a2a.task.transitions/completed": 1,
		"a2a.rpc.requests/sendMessage":   1,
		"a2a.rpc.requests/getTask":       1,
	}
	if diff := cmp.Diff(want, sums); diff != "" {
		t.Errorf("counters mismatch (-want +got):\n%s", diff)
	}
	if executions != 1 {
		t.Errorf("execution histogram count = %d, want 1", executions)
	}
}
