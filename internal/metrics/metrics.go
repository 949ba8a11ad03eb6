// Package metrics counts flight events with OpenTelemetry instruments. It uses
// the global meter provider, which is a no-op unless the binary installs one.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"dronefield/internal/sim"
)

const instrumentationName = "dronefield/internal/metrics"

type Recorder struct {
	steps      metric.Int64Counter
	crashes    metric.Int64Counter
	objectives metric.Int64Counter
	repairs    metric.Int64Counter
	snapshots  metric.Int64Counter
	dropped    metric.Int64Counter
}

// New creates a Recorder on the global meter provider.
func New() (*Recorder, error) {
	return NewWithMeter(otel.Meter(instrumentationName))
}

func NewWithMeter(m metric.Meter) (*Recorder, error) {
	r := &Recorder{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&r.steps, "sim.steps", "Simulation steps advanced"},
		{&r.crashes, "sim.crashes", "Flights ended by a crash"},
		{&r.objectives, "sim.objectives", "Objectives reached"},
		{&r.repairs, "sim.repairs", "Non-finite flight states repaired"},
		{&r.snapshots, "sim.snapshots", "Snapshots emitted to consumers"},
		{&r.dropped, "flightlog.dropped", "Flight log records dropped due to full queue"},
	}
	for _, c := range counters {
		counter, err := m.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
		*c.dst = counter
	}
	return r, nil
}

func (r *Recorder) Step(ctx context.Context) { r.steps.Add(ctx, 1) }

func (r *Recorder) Crash(ctx context.Context, cause sim.CrashCause) {
	r.crashes.Add(ctx, 1, metric.WithAttributes(attribute.String("cause", cause.String())))
}

func (r *Recorder) Objective(ctx context.Context) { r.objectives.Add(ctx, 1) }
func (r *Recorder) Repair(ctx context.Context)    { r.repairs.Add(ctx, 1) }
func (r *Recorder) Snapshot(ctx context.Context)  { r.snapshots.Add(ctx, 1) }

// Dropped counts flight log records that could not be queued.
func (r *Recorder) Dropped(ctx context.Context, kind string) {
	r.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// Wrap returns callbacks that count each signal before forwarding it to next.
func (r *Recorder) Wrap(next sim.Callbacks) sim.Callbacks {
	ctx := context.Background()
	return sim.Callbacks{
		OnSnapshot: func(s sim.Snapshot) {
			r.Snapshot(ctx)
			if next.OnSnapshot != nil {
				next.OnSnapshot(s)
			}
		},
		OnCrash: func(c sim.Crash) {
			r.Crash(ctx, c.Cause)
			if next.OnCrash != nil {
				next.OnCrash(c)
			}
		},
		OnObjective: func(s sim.Snapshot) {
			r.Objective(ctx)
			if next.OnObjective != nil {
				next.OnObjective(s)
			}
		},
		OnRepair: func(p sim.Repair) {
			r.Repair(ctx)
			if next.OnRepair != nil {
				next.OnRepair(p)
			}
		},
	}
}
