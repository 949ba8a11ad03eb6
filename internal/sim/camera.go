package sim

import (
	"math"
)

type CameraMode int

const (
	CameraModeFollow CameraMode = iota
	CameraModeTopDown
	CameraModeFPV
)

func (m CameraMode) String() string {
	switch m {
	case CameraModeFollow:
		return "follow"
	case CameraModeTopDown:
		return "top-down"
	case CameraModeFPV:
		return "fpv"
	default:
		return "unknown"
	}
}

type Camera struct {
	Position      Vec3
	Target        Vec3
	Up            Vec3
	Distance      float64 // behind the drone in follow mode
	Height        float64 // above the drone in follow mode
	Smoothing     float64 // 1/s; 0 snaps
	Mode          CameraMode
	TopDownHeight float64 // Height for top-down view

	primed bool
}

func NewCamera() *Camera {
	return &Camera{
		Up:            Vec3{0, 1, 0},
		Distance:      8,
		Height:        3,
		Smoothing:     4,
		Mode:          CameraModeFollow,
		TopDownHeight: 40,
	}
}

// Update moves the camera toward its goal for the given body. Smoothing is
// exponential and frame-rate independent; the first call snaps.
func (c *Camera) Update(s State, dt float64) {
	pos, target, up := c.goal(s)
	c.Up = up
	if !c.primed || c.Mode != CameraModeFollow || c.Smoothing <= 0 {
		c.Position, c.Target = pos, target
		c.primed = true
		return
	}
	k := approach(c.Smoothing, dt)
	c.Position = c.Position.Lerp(pos, k)
	c.Target = c.Target.Lerp(target, k)
	if c.Position.Y < 0.5 {
		c.Position.Y = 0.5
	}
}

func (c *Camera) goal(s State) (pos, target, up Vec3) {
	switch c.Mode {
	case CameraModeTopDown:
		// Looking straight down; screen-up follows -Z.
		return s.Position.Add(Vec3{Y: c.TopDownHeight}), s.Position, Vec3{0, 0, -1}
	case CameraModeFPV:
		eye := s.Position.Add(Vec3{Y: 0.1})
		sp, cp := math.Sincos(s.Attitude.Pitch)
		h := s.Attitude.Heading()
		look := Vec3{h.X * cp, sp, h.Z * cp}
		return eye, eye.Add(look.Mul(10)), Vec3{0, 1, 0}
	default:
		back := s.Attitude.Heading().Mul(-c.Distance)
		return s.Position.Add(back).Add(Vec3{Y: c.Height}), s.Position, Vec3{0, 1, 0}
	}
}

// SetMode switches mode and snaps on the next Update.
func (c *Camera) SetMode(mode CameraMode) {
	c.Mode = mode
	c.primed = false
}

// Cycle advances to the next mode.
func (c *Camera) Cycle() {
	c.SetMode((c.Mode + 1) % 3)
}

// Adjust top-down height
func (c *Camera) AdjustTopDownHeight(delta float64) {
	c.TopDownHeight = clamp(c.TopDownHeight+delta, 5, 100)
}

func (c *Camera) GetViewMatrix() Mat4 {
	return LookAtMat4(c.Position, c.Target, c.Up)
}

func (c *Camera) GetProjectionMatrix(width, height int) Mat4 {
	// Ensure minimum dimensions to avoid division by zero
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	aspect := float64(width) / float64(height)
	return PerspectiveMat4(60.0, aspect, 0.1, 1000.0)
}
