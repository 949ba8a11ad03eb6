package sim

import (
	"math"
)

// Status is the flight-status latch. Flying -> Crashed is the only transition a
// step can make; anything else requires a session reset.
type Status int

const (
	StatusFlying Status = iota
	StatusCrashed
	// StatusLanded is reserved; steady flight never produces it.
	StatusLanded
)

func (s Status) String() string {
	switch s {
	case StatusFlying:
		return "flying"
	case StatusCrashed:
		return "crashed"
	case StatusLanded:
		return "landed"
	default:
		return "unknown"
	}
}

// Attitude is the body orientation in radians, composed yaw -> pitch -> roll.
type Attitude struct {
	Pitch float64 // nose up is positive
	Yaw   float64 // counter-clockwise seen from above is positive
	Roll  float64 // left wing up is positive
}

// Matrix returns the body-to-world rotation Ry(yaw) * Rx(pitch) * Rz(roll).
func (a Attitude) Matrix() Mat4 {
	return RotationYMat4(a.Yaw).Mul(RotationXMat4(a.Pitch)).Mul(RotationZMat4(a.Roll))
}

// Up is the body up axis in world coordinates, the direction thrust acts along.
func (a Attitude) Up() Vec3 {
	sp, cp := math.Sincos(a.Pitch)
	sy, cy := math.Sincos(a.Yaw)
	sr, cr := math.Sincos(a.Roll)
	return Vec3{
		X: -sr*cy + cr*sp*sy,
		Y: cr * cp,
		Z: sr*sy + cr*sp*cy,
	}
}

// Heading is the horizontal unit vector the nose points at. Yaw 0 faces -Z.
func (a Attitude) Heading() Vec3 {
	sy, cy := math.Sincos(a.Yaw)
	return Vec3{X: -sy, Y: 0, Z: -cy}
}

func (a Attitude) IsFinite() bool {
	return isFinite(a.Pitch) && isFinite(a.Yaw) && isFinite(a.Roll)
}

// State is the rigid-body state owned by one flight session.
type State struct {
	Position Vec3
	Velocity Vec3
	Attitude Attitude
	Throttle float64 // 0..1
	Battery  float64 // 0..100, display only
	Status   Status
}

// NewState places a level, idle drone at spawn.
func NewState(spawn Vec3) State {
	return State{
		Position: spawn,
		Battery:  100,
		Status:   StatusFlying,
	}
}

func (s State) Crashed() bool { return s.Status == StatusCrashed }

// IsFinite reports whether every numeric field is usable.
func (s State) IsFinite() bool {
	return s.Position.IsFinite() && s.Velocity.IsFinite() && s.Attitude.IsFinite() &&
		isFinite(s.Throttle) && isFinite(s.Battery)
}

// Speed is the magnitude of the velocity.
func (s State) Speed() float64 { return s.Velocity.Length() }

// Intent is the discrete control input sampled once per step.
type Intent struct {
	Forward      bool
	Back         bool
	Left         bool
	Right        bool
	YawLeft      bool
	YawRight     bool
	ThrottleUp   bool
	ThrottleDown bool
}

// Tilting reports whether any directional (pitch or roll) flag is held.
func (in Intent) Tilting() bool {
	return in.Forward || in.Back || in.Left || in.Right
}

// Idle reports whether no flag at all is held.
func (in Intent) Idle() bool {
	return !in.Tilting() && !in.YawLeft && !in.YawRight && !in.ThrottleUp && !in.ThrottleDown
}
