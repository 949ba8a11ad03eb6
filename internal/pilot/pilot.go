// Package pilot flies a drone toward its objective using the same discrete
// controls a human has: it never touches the body state directly.
package pilot

import (
	"math"

	"dronefield/internal/sim"
)

const (
	minCruise     = 4.0  // lowest cruise altitude regardless of terrain
	corridorWidth = 8.0  // lateral reach of the route survey
	climbBand     = 2.0  // altitude deficit at which forward flight waits
	maxClimb      = 3.0  // m/s
	maxSink       = 2.0  // m/s
	kAlt          = 0.8  // altitude error to vertical speed
	kClimb        = 0.08 // vertical speed error to throttle
	throttleBand  = 0.02
	minThrottle   = 0.35
	maxThrottle   = 0.75
	yawDeadband   = 0.1 // rad
	alignedYaw    = 0.5 // rad
	holdRadius    = 1.0 // horizontal distance considered on station
	descendRadius = 2.0
	brakeDecel    = 4.0 // m/s^2 assumed when estimating stopping distance
	brakeSpeed    = 1.0
)

// Pilot is a simple waypoint autopilot: climb to a cruise altitude that clears
// the route, turn toward the objective, fly level, brake and descend onto it.
type Pilot struct {
	tuning sim.Tuning
	margin float64

	cruise    float64
	home      sim.Vec3
	target    sim.Vec3
	hasTarget bool
}

func New(t sim.Tuning, cruiseMargin float64) *Pilot {
	return &Pilot{tuning: t, margin: cruiseMargin, cruise: minCruise}
}

// Plan surveys the route from from to objective and picks a cruise altitude.
// A nil objective makes the pilot hold station above from.
func (p *Pilot) Plan(from sim.Vec3, objective *sim.Vec3, obstacles []sim.Obstacle) {
	p.home = from
	p.hasTarget = objective != nil
	to := from
	if objective != nil {
		p.target = *objective
		to = *objective
	}

	top := 0.0
	for _, o := range obstacles {
		if p.reach(o)+corridorWidth >= segmentDistance(o.Center, from, to) {
			top = math.Max(top, o.Top())
		}
	}
	p.cruise = math.Max(minCruise, top+p.margin)
	if p.hasTarget {
		p.cruise = math.Max(p.cruise, p.target.Y)
	}
}

// reach is the horizontal half-size of an obstacle's footprint.
func (p *Pilot) reach(o sim.Obstacle) float64 {
	if o.Kind == sim.Tree {
		return p.tuning.TreeRadius
	}
	return math.Hypot(o.Extents.X, o.Extents.Z) / 2
}

func (p *Pilot) Cruise() float64 { return p.cruise }

// Next picks the controls for the coming step.
func (p *Pilot) Next(s sim.State) sim.Intent {
	var in sim.Intent
	if s.Crashed() {
		return in
	}

	goal := p.home
	if p.hasTarget {
		goal = p.target
	}
	d := goal.Sub(s.Position)
	dist := math.Hypot(d.X, d.Z)

	altitude := p.cruise
	if p.hasTarget && dist < descendRadius {
		altitude = p.target.Y
	}
	p.holdAltitude(s, altitude, &in)

	if !p.hasTarget || dist < holdRadius {
		return in
	}

	yawErr := sim.AngleDiff(math.Atan2(-d.X, -d.Z), s.Attitude.Yaw)
	switch {
	case yawErr > yawDeadband:
		in.YawLeft = true
	case yawErr < -yawDeadband:
		in.YawRight = true
	}

	if s.Position.Y < altitude-climbBand || math.Abs(yawErr) > alignedYaw {
		return in
	}
	speed := s.Velocity.Dot(s.Attitude.Heading())
	stopping := speed*speed/(2*brakeDecel) + holdRadius
	if speed > brakeSpeed && dist < stopping {
		in.Back = true
	} else {
		in.Forward = true
	}
	return in
}

// holdAltitude nudges throttle toward the setting that tracks a vertical speed
// proportional to the altitude error.
func (p *Pilot) holdAltitude(s sim.State, altitude float64, in *sim.Intent) {
	wantVy := clamp(kAlt*(altitude-s.Position.Y), -maxSink, maxClimb)
	tilt := math.Cos(s.Attitude.Pitch) * math.Cos(s.Attitude.Roll)
	hover := p.tuning.Gravity / p.tuning.ThrustAccel / math.Max(tilt, 0.5)
	want := clamp(hover+kClimb*(wantVy-s.Velocity.Y), minThrottle, maxThrottle)
	switch {
	case s.Throttle < want-throttleBand:
		in.ThrottleUp = true
	case s.Throttle > want+throttleBand:
		in.ThrottleDown = true
	}
}

// segmentDistance is the horizontal distance from p to the segment a-b.
func segmentDistance(p, a, b sim.Vec3) float64 {
	abx, abz := b.X-a.X, b.Z-a.Z
	l2 := abx*abx + abz*abz
	t := 0.0
	if l2 > 0 {
		t = clamp(((p.X-a.X)*abx+(p.Z-a.Z)*abz)/l2, 0, 1)
	}
	return math.Hypot(p.X-(a.X+abx*t), p.Z-(a.Z+abz*t))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
