package metrics_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"dronefield/internal/metrics"
	"dronefield/internal/sim"
)

func newRecorder(t *testing.T) (*metrics.Recorder, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	r, err := metrics.NewWithMeter(provider.Meter("test"))
	require.NoError(t, err)
	return r, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Sum[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Sum[int64]{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				out[m.Name] = sum
			}
		}
	}
	return out
}

func total(sum metricdata.Sum[int64]) int64 {
	var n int64
	for _, dp := range sum.DataPoints {
		n += dp.Value
	}
	return n
}

func TestWrapCountsAndForwards(t *testing.T) {
	r, reader := newRecorder(t)

	var crashes, snapshots int
	cb := r.Wrap(sim.Callbacks{
		OnCrash:    func(sim.Crash) { crashes++ },
		OnSnapshot: func(sim.Snapshot) { snapshots++ },
	})
	cb.OnCrash(sim.Crash{Cause: sim.CrashTree})
	cb.OnSnapshot(sim.Snapshot{})
	cb.OnSnapshot(sim.Snapshot{})
	cb.OnObjective(sim.Snapshot{})
	cb.OnRepair(sim.Repair{})

	assert.Equal(t, 1, crashes)
	assert.Equal(t, 2, snapshots)

	got := collect(t, reader)
	assert.Equal(t, int64(1), total(got["sim.crashes"]))
	assert.Equal(t, int64(2), total(got["sim.snapshots"]))
	assert.Equal(t, int64(1), total(got["sim.objectives"]))
	assert.Equal(t, int64(1), total(got["sim.repairs"]))

	require.Len(t, got["sim.crashes"].DataPoints, 1)
	cause, ok := got["sim.crashes"].DataPoints[0].Attributes.Value(attribute.Key("cause"))
	require.True(t, ok)
	assert.Equal(t, "tree", cause.AsString())
}

func TestStepsAndDropped(t *testing.T) {
	r, reader := newRecorder(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		r.Step(ctx)
	}
	r.Dropped(ctx, "sample")

	got := collect(t, reader)
	assert.Equal(t, int64(5), total(got["sim.steps"]))
	assert.Equal(t, int64(1), total(got["flightlog.dropped"]))
}

func TestNewUsesGlobalProvider(t *testing.T) {
	r, err := metrics.New()
	require.NoError(t, err)
	r.Step(context.Background())
}
