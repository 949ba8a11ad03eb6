package sim

import (
	"errors"
	"fmt"
	"math"
)

type DragMode string

const (
	// DragPerStep multiplies velocity by DragFactor every step regardless of
	// elapsed time, so the decay rate follows the frame rate.
	DragPerStep DragMode = "per_step"
	// DragPerSecond scales the multiplier by elapsed time so that the decay
	// matches DragPerStep exactly at DragReferenceHz.
	DragPerSecond DragMode = "per_second"
)

var ErrInvalidTuning = errors.New("invalid tuning")

// Tuning holds every constant the flight model uses. Field tags match the
// sim.tuning.* configuration keys.
type Tuning struct {
	// Step
	MaxStep float64 `mapstructure:"max_step"` // seconds

	// Shaping
	YawRate       float64 `mapstructure:"yaw_rate"`       // rad/s
	ThrottleRate  float64 `mapstructure:"throttle_rate"`  // 1/s
	TiltAngle     float64 `mapstructure:"tilt_angle"`     // rad
	TiltSmoothing float64 `mapstructure:"tilt_smoothing"` // 1/s
	LevelRate     float64 `mapstructure:"level_rate"`     // 1/s, auto-level on ground
	LowAltitude   float64 `mapstructure:"low_altitude"`
	HoverThrottle float64 `mapstructure:"hover_throttle"`
	AssistMargin  float64 `mapstructure:"assist_margin"`
	AssistRate    float64 `mapstructure:"assist_rate"` // 1/s

	// Forces
	ThrustAccel     float64  `mapstructure:"thrust_accel"` // m/s^2 at full throttle
	Gravity         float64  `mapstructure:"gravity"`
	DragFactor      float64  `mapstructure:"drag_factor"`
	DragMode        DragMode `mapstructure:"drag_mode"`
	DragReferenceHz float64  `mapstructure:"drag_reference_hz"`

	// Ground and props
	GroundClearance  float64 `mapstructure:"ground_clearance"`
	GroundFriction   float64 `mapstructure:"ground_friction"`
	HardLandingSpeed float64 `mapstructure:"hard_landing_speed"`
	PropClearance    float64 `mapstructure:"prop_clearance"`
	PropOffset       float64 `mapstructure:"prop_offset"` // arm length along X and Z
	PropRadius       float64 `mapstructure:"prop_radius"`
	BodyRadius       float64 `mapstructure:"body_radius"`

	// Obstacles and crash response
	TreeRadius       float64 `mapstructure:"tree_radius"`
	Pushback         float64 `mapstructure:"pushback"`
	MinPushbackSpeed float64 `mapstructure:"min_pushback_speed"`
	Nudge            float64 `mapstructure:"nudge"`
	CrashFloor       float64 `mapstructure:"crash_floor"`

	// Signals
	CaptureRadius float64 `mapstructure:"capture_radius"`
	SnapshotHz    float64 `mapstructure:"snapshot_hz"`
	BatteryDrain  float64 `mapstructure:"battery_drain"` // percent/s at full throttle
}

func DefaultTuning() Tuning {
	return Tuning{
		MaxStep: 0.1,

		YawRate:       1.5,
		ThrottleRate:  0.5,
		TiltAngle:     0.5,
		TiltSmoothing: 5,
		LevelRate:     8,
		LowAltitude:   1.0,
		HoverThrottle: 0.7,
		AssistMargin:  0.05,
		AssistRate:    3,

		ThrustAccel:     20,
		Gravity:         9.81,
		DragFactor:      0.99,
		DragMode:        DragPerStep,
		DragReferenceHz: 60,

		GroundClearance:  0.35,
		GroundFriction:   0.8,
		HardLandingSpeed: 5.0,
		PropClearance:    0.05,
		PropOffset:       0.3,
		PropRadius:       0.15,
		BodyRadius:       0.4,

		TreeRadius:       1.5,
		Pushback:         1.0,
		MinPushbackSpeed: 0.1,
		Nudge:            0.5,
		CrashFloor:       0.1,

		CaptureRadius: 4.0,
		SnapshotHz:    10,
		BatteryDrain:  0.25,
	}
}

// Validate rejects values that would break the flight model's invariants.
func (t Tuning) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"max_step", t.MaxStep},
		{"thrust_accel", t.ThrustAccel},
		{"gravity", t.Gravity},
		{"drag_reference_hz", t.DragReferenceHz},
		{"ground_clearance", t.GroundClearance},
		{"hard_landing_speed", t.HardLandingSpeed},
		{"capture_radius", t.CaptureRadius},
		{"snapshot_hz", t.SnapshotHz},
		{"body_radius", t.BodyRadius},
		{"prop_radius", t.PropRadius},
		{"tree_radius", t.TreeRadius},
	}
	for _, p := range positive {
		if !(p.v > 0) || !isFinite(p.v) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidTuning, p.name, p.v)
		}
	}
	nonNegative := []struct {
		name string
		v    float64
	}{
		{"yaw_rate", t.YawRate},
		{"throttle_rate", t.ThrottleRate},
		{"tilt_angle", t.TiltAngle},
		{"tilt_smoothing", t.TiltSmoothing},
		{"level_rate", t.LevelRate},
		{"low_altitude", t.LowAltitude},
		{"assist_margin", t.AssistMargin},
		{"assist_rate", t.AssistRate},
		{"prop_clearance", t.PropClearance},
		{"prop_offset", t.PropOffset},
		{"pushback", t.Pushback},
		{"min_pushback_speed", t.MinPushbackSpeed},
		{"nudge", t.Nudge},
		{"crash_floor", t.CrashFloor},
		{"battery_drain", t.BatteryDrain},
	}
	for _, p := range nonNegative {
		if p.v < 0 || !isFinite(p.v) {
			return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidTuning, p.name, p.v)
		}
	}
	if !(t.DragFactor > 0 && t.DragFactor <= 1) {
		return fmt.Errorf("%w: drag_factor must be in (0,1], got %v", ErrInvalidTuning, t.DragFactor)
	}
	if !(t.GroundFriction >= 0 && t.GroundFriction <= 1) {
		return fmt.Errorf("%w: ground_friction must be in [0,1], got %v", ErrInvalidTuning, t.GroundFriction)
	}
	if !(t.HoverThrottle >= 0 && t.HoverThrottle+t.AssistMargin <= 1) {
		return fmt.Errorf("%w: hover_throttle+assist_margin must be in [0,1]", ErrInvalidTuning)
	}
	if t.HoverThrottle*t.ThrustAccel*tiltedLift(t.TiltAngle) <= t.Gravity {
		return fmt.Errorf("%w: hover_throttle %v cannot lift off at full diagonal tilt", ErrInvalidTuning, t.HoverThrottle)
	}
	if drop := t.TipDrop(); t.GroundClearance-t.PropClearance <= drop {
		return fmt.Errorf("%w: ground_clearance-prop_clearance must exceed the %.3f prop tip drop at full tilt",
			ErrInvalidTuning, drop)
	}
	switch t.DragMode {
	case DragPerStep, DragPerSecond:
	default:
		return fmt.Errorf("%w: unknown drag_mode %q", ErrInvalidTuning, t.DragMode)
	}
	return nil
}

// tiltedLift is the vertical share of thrust with pitch and roll both at tilt.
func tiltedLift(tilt float64) float64 {
	c := math.Cos(tilt)
	return c * c
}

// TipDrop is how far the lowest propeller tip sits below the body center with
// pitch and roll both at TiltAngle.
func (t Tuning) TipDrop() float64 {
	s, c := math.Sincos(t.TiltAngle)
	return t.PropOffset * s * (1 + c)
}

// SnapshotInterval is the minimum spacing between emitted snapshots, in seconds.
func (t Tuning) SnapshotInterval() float64 {
	if t.SnapshotHz <= 0 {
		return 0
	}
	return 1 / t.SnapshotHz
}
