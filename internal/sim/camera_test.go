package sim_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"dronefield/internal/sim"
)

func TestCameraFollowSitsBehindHeading(t *testing.T) {
	c := sim.NewCamera()
	s := sim.NewState(sim.Vec3{Y: 5})
	c.Update(s, 0.016)
	assertVec(t, sim.Vec3{Y: 5 + c.Height, Z: c.Distance}, c.Position, 1e-9)
	assertVec(t, s.Position, c.Target, 1e-9)

	s.Attitude.Yaw = math.Pi / 2
	c.SetMode(sim.CameraModeFollow)
	c.Update(s, 0.016)
	assertVec(t, sim.Vec3{X: c.Distance, Y: 5 + c.Height}, c.Position, 1e-9)
}

func TestCameraFollowSmoothing(t *testing.T) {
	c := sim.NewCamera()
	s := sim.NewState(sim.Vec3{Y: 5})
	c.Update(s, 0.016)
	start := c.Position

	s.Position.X = 10
	c.Update(s, 0.1)
	assert.Greater(t, c.Position.X, start.X)
	assert.Less(t, c.Position.X, 10.0)

	for i := 0; i < 200; i++ {
		c.Update(s, 0.1)
	}
	assert.InDelta(t, 10, c.Position.X, 1e-6)
}

func TestCameraTopDownAndFPV(t *testing.T) {
	c := sim.NewCamera()
	s := sim.NewState(sim.Vec3{X: 2, Y: 5, Z: -3})

	c.SetMode(sim.CameraModeTopDown)
	c.Update(s, 0.016)
	assertVec(t, sim.Vec3{X: 2, Y: 5 + c.TopDownHeight, Z: -3}, c.Position, 1e-9)
	assertVec(t, sim.Vec3{Z: -1}, c.Up, 0)

	c.Cycle()
	assert.Equal(t, sim.CameraModeFPV, c.Mode)
	c.Update(s, 0.016)
	assert.Less(t, c.Target.Z, c.Position.Z)

	c.Cycle()
	assert.Equal(t, sim.CameraModeFollow, c.Mode)
}

func TestCameraTopDownHeightIsClamped(t *testing.T) {
	c := sim.NewCamera()
	c.AdjustTopDownHeight(-1000)
	assert.Equal(t, 5.0, c.TopDownHeight)
	c.AdjustTopDownHeight(1000)
	assert.Equal(t, 100.0, c.TopDownHeight)
}
