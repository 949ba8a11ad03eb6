package term

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronefield/internal/sim"
	"dronefield/internal/world"
)

type fakeScreen struct {
	w, h   int
	cells  map[[2]int]rune
	shown  int
	events chan tcell.Event
}

func newFakeScreen(w, h int) *fakeScreen {
	return &fakeScreen{w: w, h: h, cells: map[[2]int]rune{}, events: make(chan tcell.Event, 8)}
}

func (f *fakeScreen) SetContent(x, y int, r rune, _ []rune, _ tcell.Style) {
	f.cells[[2]int{x, y}] = r
}

func (f *fakeScreen) Size() (int, int)       { return f.w, f.h }
func (f *fakeScreen) Show()                  { f.shown++ }
func (f *fakeScreen) PollEvent() tcell.Event { return <-f.events }

func (f *fakeScreen) row(y int) string {
	var b strings.Builder
	for x := 0; x < f.w; x++ {
		b.WriteRune(f.cells[[2]int{x, y}])
	}
	return b.String()
}

type fakeSounds struct{ crashes, captures int }

func (s *fakeSounds) Crash()     { s.crashes++ }
func (s *fakeSounds) Objective() { s.captures++ }

type fakeHum struct {
	throttle float64
	running  bool
	calls    int
}

func (h *fakeHum) Set(throttle float64, running bool, _ float64) {
	h.throttle, h.running = throttle, running
	h.calls++
}

func key(k tcell.Key, r rune) *tcell.EventKey { return tcell.NewEventKey(k, r, tcell.ModNone) }

func TestKeysHoldWindow(t *testing.T) {
	k := NewKeys()
	t0 := time.Unix(100, 0)

	assert.Equal(t, CmdNone, k.Handle(key(tcell.KeyUp, 0), t0))
	assert.Equal(t, CmdNone, k.Handle(key(tcell.KeyRune, 'w'), t0))
	in := k.Intent(t0.Add(100 * time.Millisecond))
	assert.True(t, in.Forward)
	assert.True(t, in.ThrottleUp)
	assert.False(t, in.Back)

	// Auto-repeat keeps the control alive.
	k.Handle(key(tcell.KeyUp, 0), t0.Add(400*time.Millisecond))
	in = k.Intent(t0.Add(700 * time.Millisecond))
	assert.True(t, in.Forward)
	assert.False(t, in.ThrottleUp)

	assert.True(t, k.Intent(t0.Add(time.Second)).Idle())

	k.Handle(key(tcell.KeyRune, 'a'), t0)
	k.Release()
	assert.True(t, k.Intent(t0).Idle())
}

func TestKeysCommands(t *testing.T) {
	k := NewKeys()
	now := time.Now()
	assert.Equal(t, CmdQuit, k.Handle(key(tcell.KeyEscape, 0), now))
	assert.Equal(t, CmdQuit, k.Handle(key(tcell.KeyRune, 'x'), now))
	assert.Equal(t, CmdReset, k.Handle(key(tcell.KeyRune, 'r'), now))
	assert.Equal(t, CmdPilot, k.Handle(key(tcell.KeyRune, 'P'), now))
	assert.Equal(t, CmdCamera, k.Handle(key(tcell.KeyRune, 'c'), now))
}

func TestMapDraw(t *testing.T) {
	scr := newFakeScreen(21, 11)
	m := Map{Scale: 1, TreeRadius: 1.5}
	objective := sim.Vec3{Z: -8}
	obstacles := []sim.Obstacle{
		{Kind: sim.Building, Center: sim.Vec3{X: 6, Y: 10}, Extents: sim.Vec3{X: 4, Y: 20, Z: 4}},
		{Kind: sim.Building, Center: sim.Vec3{X: -6, Y: 1}, Extents: sim.Vec3{X: 2, Y: 2, Z: 2}},
		{Kind: sim.Tree, Center: sim.Vec3{Z: 6}, Extents: sim.Vec3{X: 2, Y: 8, Z: 2}},
	}
	snap := sim.Snapshot{Position: sim.Vec3{Y: 5}, Status: sim.StatusFlying, HasObjective: true, Distance: 9.4}

	m.Draw(scr, snap, obstacles, &objective, "hello")

	// Map rows are 0..9 with the drone at (10, 5); rows span 2 m.
	assert.Equal(t, '^', scr.cells[[2]int{10, 5}])
	assert.Equal(t, '█', scr.cells[[2]int{16, 5}], "taller than the drone")
	assert.Equal(t, '▓', scr.cells[[2]int{4, 5}], "below the drone")
	assert.Equal(t, '♣', scr.cells[[2]int{10, 8}])
	assert.Equal(t, '◎', scr.cells[[2]int{10, 1}])
	assert.Equal(t, '·', scr.cells[[2]int{0, 0}])
	assert.Len(t, scr.cells, 21*11)
	assert.True(t, strings.HasPrefix(scr.row(10), " ALT   5.0m"))
}

func TestDroneGlyph(t *testing.T) {
	s := sim.Snapshot{}
	r, _ := droneGlyph(s)
	assert.Equal(t, '^', r)

	s.Attitude.Yaw = 1.5708
	r, _ = droneGlyph(s)
	assert.Equal(t, '<', r)

	s.Attitude.Yaw = -1.5708
	r, _ = droneGlyph(s)
	assert.Equal(t, '>', r)

	s.Status = sim.StatusCrashed
	r, _ = droneGlyph(s)
	assert.Equal(t, 'X', r)
}

func TestHUDLine(t *testing.T) {
	line := HUDLine(sim.Snapshot{
		Position:     sim.Vec3{Y: 12.34},
		Throttle:     0.5,
		Battery:      87,
		Status:       sim.StatusFlying,
		HasObjective: true,
		Distance:     23.4,
	}, "")
	assert.Contains(t, line, "ALT  12.3m")
	assert.Contains(t, line, "THR  50%")
	assert.Contains(t, line, "BAT  87%")
	assert.Contains(t, line, "HDG   0°")
	assert.Contains(t, line, "OBJ  23.4m")
	assert.Contains(t, line, "FLYING")

	line = HUDLine(sim.Snapshot{Status: sim.StatusCrashed}, "CRASHED")
	assert.NotContains(t, line, "OBJ")
	assert.True(t, strings.HasSuffix(line, "CRASHED  CRASHED"))
}

func TestHeading(t *testing.T) {
	assert.InDelta(t, 0, heading(0), 1e-9)
	assert.InDelta(t, 270, heading(sim.DegToRad(90)), 1e-9)
	assert.InDelta(t, 90, heading(sim.DegToRad(-90)), 1e-9)
}

func rooftop() *world.World {
	return &world.World{
		Name:  "roof",
		Spawn: sim.Vec3{Y: 30},
		Obstacles: []sim.Obstacle{
			{Kind: sim.Building, Center: sim.Vec3{Y: 10}, Extents: sim.Vec3{X: 10, Y: 20, Z: 10}},
		},
	}
}

func TestAppCrashChimesOnce(t *testing.T) {
	scr := newFakeScreen(40, 12)
	sounds := &fakeSounds{}
	hum := &fakeHum{}
	var crashes int
	a := New(scr, rooftop(), Options{
		Tuning:    sim.DefaultTuning(),
		Sounds:    sounds,
		Hum:       hum,
		Callbacks: sim.Callbacks{OnCrash: func(sim.Crash) { crashes++ }},
	})

	now := a.start
	for i := 0; i < 300; i++ {
		now = now.Add(16 * time.Millisecond)
		a.tick(now)
	}
	assert.Equal(t, sim.StatusCrashed, a.flight.Status())
	assert.Equal(t, 1, sounds.crashes)
	assert.Equal(t, 1, crashes)
	assert.Contains(t, a.status, "CRASHED (building)")
	assert.Equal(t, 300, scr.shown)
	assert.Equal(t, 300, hum.calls)
	assert.False(t, hum.running)
	assert.Zero(t, hum.throttle)

	require.True(t, a.command(CmdReset, now))
	assert.Equal(t, sim.StatusFlying, a.flight.Status())
	assert.Empty(t, a.status)
}

func TestAppPilotAndZoom(t *testing.T) {
	hum := &fakeHum{}
	a := New(newFakeScreen(40, 12), &world.World{Spawn: sim.Vec3{Y: 0.3}}, Options{Tuning: sim.DefaultTuning(), Hum: hum})

	assert.True(t, a.command(CmdPilot, a.start))
	assert.True(t, a.auto)
	a.tick(a.start.Add(100 * time.Millisecond))
	assert.Greater(t, a.flight.State().Throttle, 0.0)
	assert.True(t, hum.running)
	assert.Equal(t, a.flight.State().Throttle, hum.throttle)

	a.command(CmdCamera, a.start)
	assert.Equal(t, 2.0, a.mapView.Scale)
	assert.False(t, a.command(CmdQuit, a.start))
}

func TestAppRunQuits(t *testing.T) {
	scr := newFakeScreen(40, 12)
	a := New(scr, rooftop(), Options{Tuning: sim.DefaultTuning(), FrameRate: 100})
	scr.events <- key(tcell.KeyRune, 'x')

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not quit")
	}
}
