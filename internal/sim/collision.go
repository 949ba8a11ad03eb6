package sim

import (
	"math"
)

type ObstacleKind int

const (
	Building ObstacleKind = iota
	Tree
)

func (k ObstacleKind) String() string {
	switch k {
	case Building:
		return "building"
	case Tree:
		return "tree"
	default:
		return "unknown"
	}
}

// Obstacle is a static collider.
//
// A Building is an axis-aligned box: Center is the middle of the box and
// Extents its full width, height and depth. A Tree stands on Center (the base
// of the trunk); Extents.Y is its height and Extents.X/Z its visual canopy
// diameter. Tree collision always uses Tuning.TreeRadius.
type Obstacle struct {
	Kind    ObstacleKind
	Center  Vec3
	Extents Vec3
}

// Top is the world altitude of the obstacle's highest point.
func (o Obstacle) Top() float64 {
	if o.Kind == Tree {
		return o.Center.Y + o.Extents.Y
	}
	return o.Center.Y + o.Extents.Y/2
}

// Contains reports whether a sphere of radius r at p touches the obstacle.
func (o Obstacle) Contains(p Vec3, r, treeRadius float64) bool {
	switch o.Kind {
	case Building:
		half := o.Extents.Mul(0.5)
		return math.Abs(p.X-o.Center.X) <= half.X+r &&
			math.Abs(p.Y-o.Center.Y) <= half.Y+r &&
			math.Abs(p.Z-o.Center.Z) <= half.Z+r
	case Tree:
		return p.HorizontalDistance(o.Center) < treeRadius+r && p.Y < o.Center.Y+o.Extents.Y
	}
	return false
}

// Probe is one collision point: a body-frame offset and its radius.
type Probe struct {
	Offset Vec3
	Radius float64
}

// ProbeCount is the body center plus four propeller tips.
const ProbeCount = 5

// Probes returns the body center followed by the four propeller tips.
func (t Tuning) Probes() [ProbeCount]Probe {
	a := t.PropOffset
	return [ProbeCount]Probe{
		{Offset: Vec3{}, Radius: t.BodyRadius},
		{Offset: Vec3{X: a, Z: a}, Radius: t.PropRadius},
		{Offset: Vec3{X: a, Z: -a}, Radius: t.PropRadius},
		{Offset: Vec3{X: -a, Z: a}, Radius: t.PropRadius},
		{Offset: Vec3{X: -a, Z: -a}, Radius: t.PropRadius},
	}
}

// probePoints places every probe in world space for a body at pos.
func probePoints(probes [ProbeCount]Probe, pos Vec3, att Attitude) [ProbeCount]Vec3 {
	frame := TranslationMat4(pos).Mul(att.Matrix())
	var out [ProbeCount]Vec3
	for i, p := range probes {
		out[i] = frame.MulPoint(p.Offset)
	}
	return out
}

type CrashCause int

const (
	CrashHardLanding CrashCause = iota
	CrashPropStrike
	CrashBuilding
	CrashTree
)

func (c CrashCause) String() string {
	switch c {
	case CrashHardLanding:
		return "hard_landing"
	case CrashPropStrike:
		return "prop_strike"
	case CrashBuilding:
		return "building"
	case CrashTree:
		return "tree"
	default:
		return "unknown"
	}
}

// Crash describes the step that latched the Crashed status.
type Crash struct {
	Cause    CrashCause
	Probe    int     // index into Probes, -1 for hard landings
	Obstacle int     // index into the obstacle list, -1 when none was hit
	Speed    float64 // impact speed (vertical for hard landings)
	Position Vec3    // body position after pushback
	Time     float64 // snapshot clock of the step, set by Flight
}

// hit scans every probe against every obstacle and returns the first contact.
func hit(points [ProbeCount]Vec3, probes [ProbeCount]Probe, obstacles []Obstacle, treeRadius float64) (probe, obstacle int, ok bool) {
	for i, pt := range points {
		for j, o := range obstacles {
			if o.Contains(pt, probes[i].Radius, treeRadius) {
				return i, j, true
			}
		}
	}
	return -1, -1, false
}

// ejectMargin keeps an ejected body strictly outside the volume it left.
const ejectMargin = 1e-3

// eject moves p out of o along the shortest exit. Buildings exit through a side
// or the roof, trees radially or over the crown.
func eject(p Vec3, o Obstacle, r, treeRadius float64) Vec3 {
	switch o.Kind {
	case Building:
		half := o.Extents.Mul(0.5)
		lo := o.Center.Sub(half).Sub(Vec3{r, r, r})
		hi := o.Center.Add(half).Add(Vec3{r, r, r})
		out := p
		best := hi.Y - p.Y
		out.Y = hi.Y + ejectMargin
		exits := []struct {
			d float64
			v Vec3
		}{
			{p.X - lo.X, Vec3{lo.X - ejectMargin, p.Y, p.Z}},
			{hi.X - p.X, Vec3{hi.X + ejectMargin, p.Y, p.Z}},
			{p.Z - lo.Z, Vec3{p.X, p.Y, lo.Z - ejectMargin}},
			{hi.Z - p.Z, Vec3{p.X, p.Y, hi.Z + ejectMargin}},
		}
		for _, e := range exits {
			if e.d < best {
				best = e.d
				out = e.v
			}
		}
		return out
	case Tree:
		reach := treeRadius + r
		dx, dz := p.X-o.Center.X, p.Z-o.Center.Z
		h := math.Hypot(dx, dz)
		over := o.Center.Y + o.Extents.Y - p.Y
		if over <= reach-h {
			return Vec3{p.X, o.Center.Y + o.Extents.Y + ejectMargin, p.Z}
		}
		if h < 1e-9 {
			dx, dz, h = 1, 0, 1
		}
		s := (reach + ejectMargin) / h
		return Vec3{o.Center.X + dx*s, p.Y, o.Center.Z + dz*s}
	}
	return p
}

// settle ejects a body of radius r from every obstacle it still overlaps.
// A few passes cover bodies wedged between neighbours.
func settle(p Vec3, obstacles []Obstacle, r, treeRadius float64) Vec3 {
	for pass := 0; pass < 4; pass++ {
		moved := false
		for _, o := range obstacles {
			if o.Contains(p, r, treeRadius) {
				p = eject(p, o, r, treeRadius)
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return p
}
