// Package term is a terminal front-end: a top-down map, a one-line HUD and
// keyboard control with held-key emulation.
package term

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"dronefield/internal/pilot"
	"dronefield/internal/sim"
	"dronefield/internal/world"
)

// Screen is the subset of tcell.Screen the app drives.
type Screen interface {
	Canvas
	Show()
	PollEvent() tcell.Event
}

// Sounds is notified of crashes and captures.
type Sounds interface {
	Crash()
	Objective()
}

// Hum follows the rotor speed of the drone.
type Hum interface {
	Set(throttle float64, running bool, distance float64)
}

type Options struct {
	Tuning       sim.Tuning
	CruiseMargin float64
	FrameRate    float64
	Logger       *zap.Logger
	Callbacks    sim.Callbacks // chained after the app's own handlers
	Sounds       Sounds
	Hum          Hum
}

var zoomLevels = []float64{1, 2, 4}

type App struct {
	screen Screen
	world  *world.World
	flight *sim.Flight
	pilot  *pilot.Pilot
	keys   *Keys
	sounds Sounds
	hum    Hum
	log    *zap.Logger
	frame  time.Duration

	mapView Map
	zoom    int
	auto    bool
	status  string
	snap    sim.Snapshot
	start   time.Time
	last    time.Time
}

func New(screen Screen, w *world.World, opts Options) *App {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = 60
	}
	a := &App{
		screen:  screen,
		world:   w,
		pilot:   pilot.New(opts.Tuning, opts.CruiseMargin),
		keys:    NewKeys(),
		sounds:  opts.Sounds,
		hum:     opts.Hum,
		log:     log,
		frame:   time.Duration(float64(time.Second) / opts.FrameRate),
		mapView: Map{Scale: zoomLevels[0], TreeRadius: opts.Tuning.TreeRadius},
	}
	a.flight = sim.NewFlight(w.Session(),
		sim.WithTuning(opts.Tuning),
		sim.WithLogger(log),
		sim.WithCallbacks(a.callbacks(opts.Callbacks)),
	)
	a.reset(time.Now())
	return a
}

func (a *App) callbacks(next sim.Callbacks) sim.Callbacks {
	return sim.Callbacks{
		OnSnapshot: func(s sim.Snapshot) {
			a.snap = s
			if next.OnSnapshot != nil {
				next.OnSnapshot(s)
			}
		},
		OnCrash: func(c sim.Crash) {
			a.status = fmt.Sprintf("CRASHED (%s), R to reset", c.Cause)
			if a.sounds != nil {
				a.sounds.Crash()
			}
			if next.OnCrash != nil {
				next.OnCrash(c)
			}
		},
		OnObjective: func(s sim.Snapshot) {
			a.status = "OBJECTIVE REACHED"
			if a.sounds != nil {
				a.sounds.Objective()
			}
			if next.OnObjective != nil {
				next.OnObjective(s)
			}
		},
		OnRepair: next.OnRepair,
	}
}

func (a *App) reset(now time.Time) {
	a.flight.Reset(a.world.Session())
	a.pilot.Plan(a.world.Spawn, a.world.Objective, a.world.Obstacles)
	a.keys.Release()
	a.status = ""
	a.start = now
	a.last = now
	a.snap = a.flight.Snapshot(0)
	a.log.Info("session started", zap.String("world", a.world.Name), zap.Float64("cruise", a.pilot.Cruise()))
}

// Run drives the app until quit is pressed or ctx ends.
func (a *App) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(a.frame)
	defer ticker.Stop()
	a.last = time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if key, ok := ev.(*tcell.EventKey); ok {
				if !a.command(a.keys.Handle(key, time.Now()), time.Now()) {
					return nil
				}
			}
		case now := <-ticker.C:
			a.tick(now)
		}
	}
}

// command applies a one-shot command and reports whether to keep running.
func (a *App) command(cmd Command, now time.Time) bool {
	switch cmd {
	case CmdQuit:
		return false
	case CmdReset:
		a.reset(now)
	case CmdPilot:
		a.auto = !a.auto
		a.keys.Release()
		a.log.Info("autopilot toggled", zap.Bool("engaged", a.auto))
	case CmdCamera:
		a.zoom = (a.zoom + 1) % len(zoomLevels)
		a.mapView.Scale = zoomLevels[a.zoom]
	}
	return true
}

// tick advances the flight by the wall time since the last frame and redraws.
func (a *App) tick(now time.Time) {
	elapsed := now.Sub(a.last).Seconds()
	a.last = now

	in := a.keys.Intent(now)
	if a.auto {
		in = a.pilot.Next(a.flight.State())
	}
	a.flight.Step(in, elapsed, now.Sub(a.start).Seconds())
	if a.hum != nil {
		s := a.flight.State()
		a.hum.Set(s.Throttle, !s.Crashed(), 0)
	}
	a.draw()
}

func (a *App) draw() {
	status := a.status
	if a.auto {
		status = "[AUTO] " + status
	}
	a.mapView.Draw(a.screen, a.snap, a.flight.Obstacles(), a.world.Objective, status)
	a.screen.Show()
}
