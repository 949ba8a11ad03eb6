// Package view is the windowed 3D viewer: GLFW input, an OpenGL scene and a
// bitmap-font HUD around one flight session.
package view

import (
	"math"

	"dronefield/internal/sim"
)

type Color struct{ R, G, B, A float32 }

var (
	colorBuilding  = Color{0.62, 0.62, 0.66, 1}
	colorRoof      = Color{0.45, 0.45, 0.5, 1}
	colorTrunk     = Color{0.4, 0.26, 0.13, 1}
	colorCanopy    = Color{0.16, 0.48, 0.2, 1}
	colorBody      = Color{0.95, 0.3, 0.3, 1}
	colorWreck     = Color{0.3, 0.3, 0.3, 1}
	colorProp      = Color{0.15, 0.15, 0.15, 1}
	colorObjective = Color{1, 0.85, 0.1, 1}
	colorReached   = Color{0.2, 1, 0.4, 1}
)

// unitCube is a cube of side 1 centred on the origin, six floats per vertex:
// position then a shade factor repeated so it fits the 3+3 vertex layout.
var unitCube = []float32{
	// Front (+Z)
	-0.5, -0.5, 0.5, 0.85, 0.85, 0.85,
	0.5, -0.5, 0.5, 0.85, 0.85, 0.85,
	0.5, 0.5, 0.5, 0.85, 0.85, 0.85,
	-0.5, 0.5, 0.5, 0.85, 0.85, 0.85,
	// Back (-Z)
	-0.5, -0.5, -0.5, 0.7, 0.7, 0.7,
	0.5, -0.5, -0.5, 0.7, 0.7, 0.7,
	0.5, 0.5, -0.5, 0.7, 0.7, 0.7,
	-0.5, 0.5, -0.5, 0.7, 0.7, 0.7,
	// Top (+Y)
	-0.5, 0.5, 0.5, 1, 1, 1,
	0.5, 0.5, 0.5, 1, 1, 1,
	0.5, 0.5, -0.5, 1, 1, 1,
	-0.5, 0.5, -0.5, 1, 1, 1,
	// Bottom (-Y)
	-0.5, -0.5, 0.5, 0.5, 0.5, 0.5,
	0.5, -0.5, 0.5, 0.5, 0.5, 0.5,
	0.5, -0.5, -0.5, 0.5, 0.5, 0.5,
	-0.5, -0.5, -0.5, 0.5, 0.5, 0.5,
	// Left (-X)
	-0.5, -0.5, -0.5, 0.6, 0.6, 0.6,
	-0.5, -0.5, 0.5, 0.6, 0.6, 0.6,
	-0.5, 0.5, 0.5, 0.6, 0.6, 0.6,
	-0.5, 0.5, -0.5, 0.6, 0.6, 0.6,
	// Right (+X)
	0.5, -0.5, -0.5, 0.78, 0.78, 0.78,
	0.5, -0.5, 0.5, 0.78, 0.78, 0.78,
	0.5, 0.5, 0.5, 0.78, 0.78, 0.78,
	0.5, 0.5, -0.5, 0.78, 0.78, 0.78,
}

var unitCubeIndices = func() []uint32 {
	out := make([]uint32, 0, 36)
	for face := uint32(0); face < 6; face++ {
		b := face * 4
		out = append(out, b, b+1, b+2, b+2, b+3, b)
	}
	return out
}()

// part is one tinted, transformed unit cube.
type part struct {
	Model sim.Mat4
	Color Color
}

// box maps the unit cube onto an axis-aligned box.
func box(center, size sim.Vec3) sim.Mat4 {
	return sim.TranslationMat4(center).Mul(sim.ScaleMat4(size.X, size.Y, size.Z))
}

// obstacleParts builds the cubes that draw an obstacle. Tree canopies use the
// collision radius so what you see is what you hit.
func obstacleParts(o sim.Obstacle, treeRadius float64) []part {
	switch o.Kind {
	case sim.Building:
		roof := sim.Vec3{X: o.Extents.X * 0.9, Y: 0.2, Z: o.Extents.Z * 0.9}
		return []part{
			{Model: box(o.Center, o.Extents), Color: colorBuilding},
			{Model: box(sim.Vec3{X: o.Center.X, Y: o.Top() + 0.1, Z: o.Center.Z}, roof), Color: colorRoof},
		}
	case sim.Tree:
		h := o.Extents.Y
		trunk := sim.Vec3{X: 0.4, Y: h * 0.4, Z: 0.4}
		canopy := sim.Vec3{X: 2 * treeRadius, Y: h * 0.6, Z: 2 * treeRadius}
		return []part{
			{Model: box(o.Center.Add(sim.Vec3{Y: trunk.Y / 2}), trunk), Color: colorTrunk},
			{Model: box(o.Center.Add(sim.Vec3{Y: trunk.Y + canopy.Y/2}), canopy), Color: colorCanopy},
		}
	}
	return nil
}

// droneParts is the body and four rotor discs, placed with the same probe
// offsets the collision test uses.
func droneParts(s sim.State, t sim.Tuning) []part {
	body := colorBody
	if s.Crashed() {
		body = colorWreck
	}
	frame := sim.TranslationMat4(s.Position).Mul(s.Attitude.Matrix())
	r := t.BodyRadius
	parts := []part{{Model: frame.Mul(sim.ScaleMat4(1.2*r, 0.4*r, 1.2*r)), Color: body}}
	probes := t.Probes()
	for _, p := range probes[1:] {
		d := 2 * p.Radius
		parts = append(parts, part{
			Model: frame.Mul(sim.TranslationMat4(p.Offset)).Mul(sim.ScaleMat4(d, 0.03, d)),
			Color: colorProp,
		})
	}
	return parts
}

// objectivePart is a slowly spinning marker well inside the capture sphere.
func objectivePart(p sim.Vec3, radius, clock float64, reached bool) part {
	c := colorObjective
	if reached {
		c = colorReached
	}
	side := radius / math.Sqrt(3)
	m := sim.TranslationMat4(p).Mul(sim.RotationYMat4(clock)).Mul(sim.ScaleMat4(side, side, side))
	return part{Model: m, Color: c}
}
