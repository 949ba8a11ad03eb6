// Package world loads the static obstacle fields flights take place in.
package world

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"dronefield/internal/sim"
)

//go:embed default.yaml
var defaultYAML []byte

var (
	ErrInvalidObstacle = errors.New("invalid obstacle")
	ErrInvalidPoint    = errors.New("invalid point")
)

// Point is a position written as {x, y, z}.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (p Point) Vec() sim.Vec3 { return sim.Vec3{X: p.X, Y: p.Y, Z: p.Z} }

// ObstacleSpec is one entry of the obstacles list. For trees, center is the
// base of the trunk and extents.y the height.
type ObstacleSpec struct {
	Kind    string `yaml:"kind"`
	Center  Point  `yaml:"center"`
	Extents Point  `yaml:"extents"`
}

// Document is the on-disk layout of a world file.
type Document struct {
	Name      string         `yaml:"name"`
	Spawn     Point          `yaml:"spawn"`
	Objective *Point         `yaml:"objective,omitempty"`
	Obstacles []ObstacleSpec `yaml:"obstacles"`
}

type World struct {
	Name      string
	Spawn     sim.Vec3
	Objective *sim.Vec3
	Obstacles []sim.Obstacle
}

// Parse decodes and validates a YAML world document. Unknown keys are errors.
func Parse(r io.Reader) (*World, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode world: %w", err)
	}
	return doc.Build()
}

// Load reads a world file from disk.
func Load(path string) (*World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open world: %w", err)
	}
	defer f.Close()
	w, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// Default returns the built-in world.
func Default() *World {
	w, err := Parse(bytes.NewReader(defaultYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded world: %v", err))
	}
	return w
}

// LoadOrDefault loads path, or the built-in world when path is empty.
func LoadOrDefault(path string) (*World, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Build validates the document and converts it to simulation types.
func (d Document) Build() (*World, error) {
	if err := checkPoint("spawn", d.Spawn); err != nil {
		return nil, err
	}
	w := &World{
		Name:      d.Name,
		Spawn:     d.Spawn.Vec(),
		Obstacles: make([]sim.Obstacle, 0, len(d.Obstacles)),
	}
	if d.Objective != nil {
		if err := checkPoint("objective", *d.Objective); err != nil {
			return nil, err
		}
		o := d.Objective.Vec()
		w.Objective = &o
	}
	for i, entry := range d.Obstacles {
		o, err := entry.build()
		if err != nil {
			return nil, fmt.Errorf("obstacle %d: %w", i, err)
		}
		w.Obstacles = append(w.Obstacles, o)
	}
	return w, nil
}

func (s ObstacleSpec) build() (sim.Obstacle, error) {
	var kind sim.ObstacleKind
	switch s.Kind {
	case "building":
		kind = sim.Building
	case "tree":
		kind = sim.Tree
	default:
		return sim.Obstacle{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidObstacle, s.Kind)
	}
	if err := checkPoint("center", s.Center); err != nil {
		return sim.Obstacle{}, err
	}
	if err := checkPoint("extents", s.Extents); err != nil {
		return sim.Obstacle{}, err
	}
	if s.Extents.X <= 0 || s.Extents.Y <= 0 || s.Extents.Z <= 0 {
		return sim.Obstacle{}, fmt.Errorf("%w: extents must be positive, got %+v", ErrInvalidObstacle, s.Extents)
	}
	return sim.Obstacle{Kind: kind, Center: s.Center.Vec(), Extents: s.Extents.Vec()}, nil
}

func checkPoint(field string, p Point) error {
	for _, v := range []float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidPoint, field)
		}
	}
	return nil
}

// Session converts the world into the simulation's session input.
func (w *World) Session() sim.World {
	sw := sim.World{Spawn: w.Spawn, Obstacles: w.Obstacles}
	if w.Objective != nil {
		o := *w.Objective
		sw.Objective = &o
	}
	return sw
}

// Tallest is the highest obstacle top, or 0 for an empty world.
func (w *World) Tallest() float64 {
	top := 0.0
	for _, o := range w.Obstacles {
		top = math.Max(top, o.Top())
	}
	return top
}

// Bounds is the box covering spawn, objective and every obstacle. Trees span
// from their base to their crown.
func (w *World) Bounds() (min, max sim.Vec3) {
	min, max = w.Spawn, w.Spawn
	grow := func(p sim.Vec3) {
		min = sim.Vec3{X: math.Min(min.X, p.X), Y: math.Min(min.Y, p.Y), Z: math.Min(min.Z, p.Z)}
		max = sim.Vec3{X: math.Max(max.X, p.X), Y: math.Max(max.Y, p.Y), Z: math.Max(max.Z, p.Z)}
	}
	if w.Objective != nil {
		grow(*w.Objective)
	}
	for _, o := range w.Obstacles {
		half := o.Extents.Mul(0.5)
		lo, hi := o.Center.Sub(half), o.Center.Add(half)
		if o.Kind == sim.Tree {
			lo.Y, hi.Y = o.Center.Y, o.Top()
		}
		grow(lo)
		grow(hi)
	}
	return min, max
}
