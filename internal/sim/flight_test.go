package sim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"dronefield/internal/sim"
)

type recorder struct {
	snapshots  []sim.Snapshot
	crashes    []sim.Crash
	objectives []sim.Snapshot
	repairs    []sim.Repair
}

func (r *recorder) callbacks() sim.Callbacks {
	return sim.Callbacks{
		OnSnapshot:  func(s sim.Snapshot) { r.snapshots = append(r.snapshots, s) },
		OnCrash:     func(c sim.Crash) { r.crashes = append(r.crashes, c) },
		OnObjective: func(s sim.Snapshot) { r.objectives = append(r.objectives, s) },
		OnRepair:    func(p sim.Repair) { r.repairs = append(r.repairs, p) },
	}
}

func roof() []sim.Obstacle {
	return []sim.Obstacle{{Kind: sim.Building, Center: sim.Vec3{Y: 10}, Extents: sim.Vec3{X: 10, Y: 20, Z: 10}}}
}

func TestSnapshotGateIsRateLimited(t *testing.T) {
	rec := &recorder{}
	f := sim.NewFlight(sim.World{Spawn: sim.Vec3{Y: 0.3}}, sim.WithCallbacks(rec.callbacks()))

	for i := 0; i <= 100; i++ {
		f.Step(sim.Intent{}, 0.01, float64(i)*0.01)
	}
	require.NotEmpty(t, rec.snapshots)
	assert.Equal(t, 0.0, rec.snapshots[0].Time)
	assert.GreaterOrEqual(t, len(rec.snapshots), 9)
	assert.LessOrEqual(t, len(rec.snapshots), 11)
	for i := 1; i < len(rec.snapshots); i++ {
		assert.GreaterOrEqual(t, rec.snapshots[i].Time-rec.snapshots[i-1].Time, 0.1-1e-9)
	}
}

func TestSnapshotGateRestartsWhenClockGoesBack(t *testing.T) {
	rec := &recorder{}
	f := sim.NewFlight(sim.World{Spawn: sim.Vec3{Y: 0.3}}, sim.WithCallbacks(rec.callbacks()))

	f.Step(sim.Intent{}, 0.01, 5)
	f.Step(sim.Intent{}, 0.01, 5.01)
	f.Step(sim.Intent{}, 0.01, 1)
	assert.Len(t, rec.snapshots, 2)
	assert.Equal(t, 1.0, rec.snapshots[1].Time)
}

func TestSnapshotWithoutObjective(t *testing.T) {
	f := sim.NewFlight(sim.World{Spawn: sim.Vec3{Y: 0.3}})
	snap := f.Snapshot(0)
	assert.False(t, snap.HasObjective)
	assert.Equal(t, 0.0, snap.Distance)
	assert.Equal(t, sim.StatusFlying, snap.Status)
	assert.Equal(t, 100.0, snap.Battery)
}

func TestSnapshotReportsObjectiveDistance(t *testing.T) {
	obj := sim.Vec3{X: 3, Y: 4.3}
	f := sim.NewFlight(sim.World{Spawn: sim.Vec3{Y: 0.3}, Objective: &obj})
	snap := f.Snapshot(0)
	require.True(t, snap.HasObjective)
	assert.InDelta(t, 5.0, snap.Distance, 1e-12)

	f.SetObjective(nil)
	assert.False(t, f.Snapshot(0).HasObjective)
}

// dropOntoRoof lets an idle drone spawned above the roof fall onto it.
func dropOntoRoof(t *testing.T, f *sim.Flight) {
	t.Helper()
	now := 0.0
	for i := 0; i < 600 && f.Status() == sim.StatusFlying; i++ {
		now += 1.0 / 60
		f.Step(sim.Intent{}, 1.0/60, now)
	}
	require.Equal(t, sim.StatusCrashed, f.Status())
}

func TestCrashSignalsOnceAndLatches(t *testing.T) {
	rec := &recorder{}
	f := sim.NewFlight(sim.World{Spawn: sim.Vec3{Y: 30}, Obstacles: roof()}, sim.WithCallbacks(rec.callbacks()))
	f.SetObjective(&sim.Vec3{Y: 8, Z: -40})
	dropOntoRoof(t, f)

	for i := 0; i < 240; i++ {
		f.Step(sim.Intent{ThrottleUp: true, Back: true}, 1.0/60, 20+float64(i)/60)
		require.Equal(t, sim.StatusCrashed, f.Status())
	}
	require.Len(t, rec.crashes, 1)
	assert.Equal(t, sim.CrashBuilding, rec.crashes[0].Cause)
	assert.Empty(t, rec.objectives)

	crash, ok := f.LastCrash()
	require.True(t, ok)
	assert.Equal(t, rec.crashes[0], crash)

	snap := f.Snapshot(30)
	assert.Equal(t, sim.StatusCrashed, snap.Status)
	assert.Equal(t, 0.0, snap.Throttle)
	assert.Equal(t, 0.0, snap.Battery)
	assert.Equal(t, sim.DefaultTuning().CrashFloor, snap.Position.Y)
}

func TestResetRestoresFlying(t *testing.T) {
	rec := &recorder{}
	world := sim.World{Spawn: sim.Vec3{Y: 30}, Obstacles: roof()}
	f := sim.NewFlight(world, sim.WithCallbacks(rec.callbacks()))
	dropOntoRoof(t, f)

	world.Spawn = sim.Vec3{X: 3, Y: 0.3}
	f.Reset(world)
	assert.Equal(t, sim.StatusFlying, f.Status())
	assert.Equal(t, sim.Vec3{X: 3, Y: 0.3}, f.State().Position)
	assert.Equal(t, uint64(0), f.Steps())
	_, ok := f.LastCrash()
	assert.False(t, ok)

	n := len(rec.snapshots)
	f.Step(sim.Intent{}, 0.01, 0)
	assert.Len(t, rec.snapshots, n+1)
}

func TestObstaclesAreCopied(t *testing.T) {
	obstacles := roof()
	f := sim.NewFlight(sim.World{Obstacles: obstacles})
	obstacles[0].Center.X = 1000
	assert.Equal(t, 0.0, f.Obstacles()[0].Center.X)
}

func TestFlightLogsCrash(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	f := sim.NewFlight(sim.World{Spawn: sim.Vec3{Y: 30}, Obstacles: roof()}, sim.WithLogger(zap.New(core)))
	dropOntoRoof(t, f)

	entries := logs.FilterMessage("crashed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "building", entries[0].ContextMap()["cause"])
}

func TestWithTuningIsUsed(t *testing.T) {
	tun := sim.DefaultTuning()
	tun.CaptureRadius = 50
	obj := sim.Vec3{Y: 10}
	rec := &recorder{}
	f := sim.NewFlight(sim.World{Spawn: sim.Vec3{Y: 0.3}, Objective: &obj},
		sim.WithTuning(tun), sim.WithCallbacks(rec.callbacks()))
	f.Step(sim.Intent{}, 0.01, 0)
	assert.Len(t, rec.objectives, 1)
	assert.Equal(t, 50.0, f.Tuning().CaptureRadius)
}
