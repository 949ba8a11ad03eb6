package pilot_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronefield/internal/pilot"
	"dronefield/internal/sim"
)

const step = 1.0 / 60

func fly(t *testing.T, w sim.World, seconds float64, done func(*sim.Flight) bool) *sim.Flight {
	t.Helper()
	f := sim.NewFlight(w)
	p := pilot.New(f.Tuning(), 4)
	p.Plan(w.Spawn, w.Objective, w.Obstacles)

	now := 0.0
	for now < seconds {
		f.Step(p.Next(f.State()), step, now)
		now += step
		if done(f) {
			break
		}
	}
	return f
}

func TestTakesOff(t *testing.T) {
	w := sim.World{Spawn: sim.Vec3{Y: 0.3}}
	f := fly(t, w, 10, func(f *sim.Flight) bool { return f.State().Position.Y > 3 })

	assert.Equal(t, sim.StatusFlying, f.Status())
	assert.Greater(t, f.State().Position.Y, 3.0)
}

func TestReachesObjective(t *testing.T) {
	target := sim.Vec3{Y: 5, Z: -40}
	w := sim.World{Spawn: sim.Vec3{Y: 0.3}, Objective: &target}
	f := fly(t, w, 90, func(f *sim.Flight) bool { return f.ObjectiveReached() || f.Status() == sim.StatusCrashed })

	require.Equal(t, sim.StatusFlying, f.Status())
	assert.True(t, f.ObjectiveReached())
}

func TestCruiseClearsRoute(t *testing.T) {
	target := sim.Vec3{Y: 2, Z: -60}
	obstacles := []sim.Obstacle{
		{Kind: sim.Building, Center: sim.Vec3{Y: 10, Z: -30}, Extents: sim.Vec3{X: 10, Y: 20, Z: 10}},
		{Kind: sim.Building, Center: sim.Vec3{X: 80, Y: 50, Z: -30}, Extents: sim.Vec3{X: 10, Y: 100, Z: 10}},
		{Kind: sim.Tree, Center: sim.Vec3{X: 3, Z: -50}, Extents: sim.Vec3{X: 3, Y: 24, Z: 3}},
	}
	p := pilot.New(sim.DefaultTuning(), 4)

	p.Plan(sim.Vec3{}, &target, obstacles)
	assert.Equal(t, 28.0, p.Cruise())

	p.Plan(sim.Vec3{}, &target, obstacles[1:2])
	assert.Equal(t, 4.0, p.Cruise())

	high := sim.Vec3{Y: 40, Z: -10}
	p.Plan(sim.Vec3{}, &high, nil)
	assert.Equal(t, 40.0, p.Cruise())
}

func TestTurnsTowardObjective(t *testing.T) {
	target := sim.Vec3{X: 30, Y: 10}
	p := pilot.New(sim.DefaultTuning(), 4)
	p.Plan(sim.Vec3{}, &target, nil)

	s := sim.NewState(sim.Vec3{Y: 10})
	in := p.Next(s)
	assert.True(t, in.YawRight)
	assert.False(t, in.YawLeft)
	assert.False(t, in.Forward, "waits for alignment")

	s.Attitude.Yaw = -math.Pi / 2
	in = p.Next(s)
	assert.False(t, in.YawRight)
	assert.True(t, in.Forward)
}

func TestBrakesNearObjective(t *testing.T) {
	target := sim.Vec3{Y: 10, Z: -3}
	p := pilot.New(sim.DefaultTuning(), 4)
	p.Plan(sim.Vec3{Y: 10}, &target, nil)

	s := sim.NewState(sim.Vec3{Y: 10})
	s.Velocity = sim.Vec3{Z: -8}
	s.Throttle = 0.5
	in := p.Next(s)
	assert.True(t, in.Back)
	assert.False(t, in.Forward)
}

func TestThrottleHold(t *testing.T) {
	p := pilot.New(sim.DefaultTuning(), 4)
	p.Plan(sim.Vec3{}, nil, nil)

	s := sim.NewState(sim.Vec3{Y: 0.3})
	assert.True(t, p.Next(s).ThrottleUp)

	s.Position.Y = 20
	s.Throttle = 0.7
	assert.True(t, p.Next(s).ThrottleDown)
}

func TestIdleWhenCrashed(t *testing.T) {
	p := pilot.New(sim.DefaultTuning(), 4)
	s := sim.NewState(sim.Vec3{})
	s.Status = sim.StatusCrashed
	assert.True(t, p.Next(s).Idle())
}
