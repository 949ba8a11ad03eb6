package sim

import (
	"math"
)

// Environment is the read-only world a step runs against.
type Environment struct {
	Obstacles []Obstacle
	Tuning    Tuning
	Probes    [ProbeCount]Probe
}

func NewEnvironment(obstacles []Obstacle, t Tuning) Environment {
	return Environment{Obstacles: obstacles, Tuning: t, Probes: t.Probes()}
}

// ClampStep bounds elapsed time to [0, max]. Non-finite input counts as zero.
func ClampStep(dt, max float64) float64 {
	if !isFinite(dt) || dt <= 0 {
		return 0
	}
	if dt > max {
		return max
	}
	return dt
}

// Advance moves the body forward by dt seconds. It is pure: the result depends
// only on its arguments. The returned Crash is non-nil only on the step that
// latches StatusCrashed.
func Advance(s State, in Intent, dt float64, env Environment) (State, *Crash) {
	t := env.Tuning
	dt = ClampStep(dt, t.MaxStep)
	if dt == 0 {
		return s, nil
	}
	if s.Crashed() {
		return fall(s, dt, t), nil
	}
	return fly(s, in, dt, env)
}

func fly(s State, in Intent, dt float64, env Environment) (State, *Crash) {
	t := env.Tuning
	prev := s.Position

	s = shape(s, in, dt, t)
	s.Battery = math.Max(0, s.Battery-s.Throttle*t.BatteryDrain*dt)

	accel := s.Attitude.Up().Mul(s.Throttle * t.ThrustAccel).Add(Vec3{Y: -t.Gravity})
	s.Velocity = s.Velocity.Add(accel.Mul(dt)).Mul(dragFactor(dt, t))
	impactVelocity := s.Velocity
	next := s.Position.Add(s.Velocity.Mul(dt))

	var crash *Crash
	if next.Y < t.GroundClearance {
		impact := math.Max(0, -s.Velocity.Y)
		next.Y = t.GroundClearance
		s.Velocity.Y = 0
		s.Velocity.X *= t.GroundFriction
		s.Velocity.Z *= t.GroundFriction
		if !in.Tilting() {
			s.Attitude = level(s.Attitude, dt, t)
		}
		if impact > t.HardLandingSpeed {
			crash = &Crash{Cause: CrashHardLanding, Probe: -1, Obstacle: -1, Speed: impact}
		}
	}

	points := probePoints(env.Probes, next, s.Attitude)
	if crash == nil {
		for i := 1; i < ProbeCount; i++ {
			if points[i].Y < t.PropClearance {
				crash = &Crash{Cause: CrashPropStrike, Probe: i, Obstacle: -1, Speed: impactVelocity.Length()}
				break
			}
		}
	}

	if crash == nil {
		if p, o, ok := hit(points, env.Probes, env.Obstacles, t.TreeRadius); ok {
			cause := CrashBuilding
			if env.Obstacles[o].Kind == Tree {
				cause = CrashTree
			}
			crash = &Crash{Cause: cause, Probe: p, Obstacle: o, Speed: impactVelocity.Length()}
		}
	}

	if crash == nil {
		s.Position = next
		return s, nil
	}

	s.Position = pushback(prev, impactVelocity, env)
	s.Velocity = Vec3{}
	s.Throttle = 0
	s.Battery = 0
	s.Status = StatusCrashed
	crash.Position = s.Position
	return s, crash
}

// pushback separates a crashed body from whatever it hit: back along its
// pre-impact velocity, or straight up when it was barely moving, then out of
// any obstacle it still overlaps.
func pushback(from, velocity Vec3, env Environment) Vec3 {
	t := env.Tuning
	var p Vec3
	if velocity.Length() < t.MinPushbackSpeed {
		p = from.Add(Vec3{Y: t.Nudge})
	} else {
		p = from.Sub(velocity.Normalize().Mul(t.Pushback))
	}
	return settle(p, env.Obstacles, t.BodyRadius, t.TreeRadius)
}

// fall is the reduced kinematics of a crashed body: gravity only, no
// collision, and a floor that stops it dead.
func fall(s State, dt float64, t Tuning) State {
	s.Velocity = s.Velocity.Add(Vec3{Y: -t.Gravity * dt})
	s.Position = s.Position.Add(s.Velocity.Mul(dt))
	if s.Position.Y <= t.CrashFloor {
		s.Position.Y = t.CrashFloor
		s.Velocity = Vec3{}
	}
	s.Throttle = 0
	s.Battery = 0
	return s
}

func dragFactor(dt float64, t Tuning) float64 {
	if t.DragMode == DragPerSecond {
		return math.Pow(t.DragFactor, dt*t.DragReferenceHz)
	}
	return t.DragFactor
}
