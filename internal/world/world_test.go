package world_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronefield/internal/sim"
	"dronefield/internal/world"
)

const sample = `
name: yard
spawn: {x: 1, y: 0.3, z: 2}
objective: {x: 0, y: 5, z: -30}
obstacles:
  - {kind: building, center: {x: 0, y: 5, z: -10}, extents: {x: 4, y: 10, z: 4}}
  - {kind: tree, center: {x: 8, y: 0, z: -12}, extents: {x: 3, y: 12, z: 3}}
`

func TestParse(t *testing.T) {
	w, err := world.Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "yard", w.Name)
	assert.Equal(t, sim.Vec3{X: 1, Y: 0.3, Z: 2}, w.Spawn)
	require.NotNil(t, w.Objective)
	assert.Equal(t, sim.Vec3{Y: 5, Z: -30}, *w.Objective)
	require.Len(t, w.Obstacles, 2)
	assert.Equal(t, sim.Building, w.Obstacles[0].Kind)
	assert.Equal(t, sim.Tree, w.Obstacles[1].Kind)
	assert.Equal(t, 12.0, w.Tallest())
}

func TestParseWithoutObjective(t *testing.T) {
	w, err := world.Parse(strings.NewReader("name: empty\nspawn: {x: 0, y: 1, z: 0}\n"))
	require.NoError(t, err)
	assert.Nil(t, w.Objective)
	assert.Empty(t, w.Obstacles)
	assert.Equal(t, 0.0, w.Tallest())
	assert.Nil(t, w.Session().Objective)
}

func TestParseRejectsBadObstacles(t *testing.T) {
	cases := map[string]string{
		"unknown kind":     "obstacles:\n  - {kind: tower, center: {x: 0, y: 0, z: 0}, extents: {x: 1, y: 1, z: 1}}\n",
		"zero extents":     "obstacles:\n  - {kind: building, center: {x: 0, y: 0, z: 0}, extents: {x: 0, y: 1, z: 1}}\n",
		"negative extents": "obstacles:\n  - {kind: tree, center: {x: 0, y: 0, z: 0}, extents: {x: 1, y: -1, z: 1}}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := world.Parse(strings.NewReader(doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, world.ErrInvalidObstacle)
			assert.Contains(t, err.Error(), "obstacle 0")
		})
	}
}

func TestParseRejectsNonFinite(t *testing.T) {
	_, err := world.Parse(strings.NewReader("spawn: {x: .nan, y: 0, z: 0}\n"))
	assert.ErrorIs(t, err, world.ErrInvalidPoint)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := world.Parse(strings.NewReader("name: x\ngravity: 3\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	w, err := world.Load(path)
	require.NoError(t, err)
	assert.Len(t, w.Obstacles, 2)

	_, err = world.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefaultWorldIsPlayable(t *testing.T) {
	w := world.Default()
	require.NotEmpty(t, w.Obstacles)
	require.NotNil(t, w.Objective)

	tun := sim.DefaultTuning()
	probes := tun.Probes()
	for i, o := range w.Obstacles {
		assert.False(t, o.Contains(w.Spawn, probes[0].Radius, tun.TreeRadius), "spawn inside obstacle %d", i)
		assert.False(t, o.Contains(*w.Objective, 0, tun.TreeRadius), "objective inside obstacle %d", i)
	}

	fromEmpty, err := world.LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, w, fromEmpty)
}

func TestSessionCopiesObjective(t *testing.T) {
	w, err := world.Parse(strings.NewReader(sample))
	require.NoError(t, err)
	s := w.Session()
	s.Objective.X = 99
	assert.Equal(t, 0.0, w.Objective.X)
}

func TestBounds(t *testing.T) {
	w, err := world.Parse(strings.NewReader(sample))
	require.NoError(t, err)
	min, max := w.Bounds()
	assert.Equal(t, -2.0, min.X)
	assert.Equal(t, 9.5, max.X)
	assert.Equal(t, -30.0, min.Z)
	assert.Equal(t, 2.0, max.Z)
	assert.Equal(t, 0.0, min.Y)
	assert.Equal(t, 12.0, max.Y)
}
