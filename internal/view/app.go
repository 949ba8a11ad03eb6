//go:build !test
// +build !test

package view

import (
	"fmt"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"dronefield/internal/pilot"
	"dronefield/internal/sim"
	"dronefield/internal/sound"
	"dronefield/internal/world"
)

type Options struct {
	Tuning       sim.Tuning
	CruiseMargin float64
	Logger       *zap.Logger
	Callbacks    sim.Callbacks // chained after the viewer's own handlers
	Sound        *sound.Player // nil is silent
}

type App struct {
	world    *world.World
	tuning   sim.Tuning
	flight   *sim.Flight
	pilot    *pilot.Pilot
	camera   *sim.Camera
	renderer *Renderer
	ui       *UIRenderer
	input    *InputHandler
	log      *zap.Logger
	sound    *sound.Player
	rotor    *sound.Rotor

	auto   bool
	status string
	snap   sim.Snapshot
	fps    float64
	clock  float64
	static []part
}

// New builds the viewer. It needs a current GL context.
func New(w *world.World, opts Options) (*App, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	ui, err := NewUIRenderer()
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	a := &App{
		world:    w,
		tuning:   opts.Tuning,
		pilot:    pilot.New(opts.Tuning, opts.CruiseMargin),
		camera:   sim.NewCamera(),
		renderer: renderer,
		ui:       ui,
		input:    NewInputHandler(),
		log:      log,
		sound:    opts.Sound,
		rotor:    sound.NewRotor(sound.SampleRate),
	}
	if a.sound != nil {
		a.sound.Play(a.rotor)
	}
	a.flight = sim.NewFlight(w.Session(),
		sim.WithTuning(opts.Tuning),
		sim.WithLogger(log),
		sim.WithCallbacks(a.callbacks(opts.Callbacks)),
	)
	for _, o := range w.Obstacles {
		a.static = append(a.static, obstacleParts(o, opts.Tuning.TreeRadius)...)
	}
	a.reset()
	return a, nil
}

func (a *App) Flight() *sim.Flight { return a.flight }

func (a *App) callbacks(next sim.Callbacks) sim.Callbacks {
	return sim.Callbacks{
		OnSnapshot: func(s sim.Snapshot) {
			a.snap = s
			if next.OnSnapshot != nil {
				next.OnSnapshot(s)
			}
		},
		OnCrash: func(c sim.Crash) {
			a.status = fmt.Sprintf("CRASHED: %s - R TO RESET", c.Cause)
			if a.sound != nil {
				a.sound.Crash()
			}
			if next.OnCrash != nil {
				next.OnCrash(c)
			}
		},
		OnObjective: func(s sim.Snapshot) {
			a.status = "OBJECTIVE REACHED"
			if a.sound != nil {
				a.sound.Objective()
			}
			if next.OnObjective != nil {
				next.OnObjective(s)
			}
		},
		OnRepair: next.OnRepair,
	}
}

func (a *App) reset() {
	a.flight.Reset(a.world.Session())
	a.pilot.Plan(a.world.Spawn, a.world.Objective, a.world.Obstacles)
	a.status = ""
	a.clock = 0
	a.snap = a.flight.Snapshot(0)
	a.camera.SetMode(a.camera.Mode)
	a.camera.Update(a.flight.State(), 0)
	a.log.Info("session started", zap.String("world", a.world.Name), zap.Float64("cruise", a.pilot.Cruise()))
}

// Run is the frame loop: one variable-length flight step per frame, then the
// camera, then the scene.
func (a *App) Run(window *glfw.Window) {
	a.input.SetupCallbacks(window)
	prev := time.Now()

	for !window.ShouldClose() {
		now := time.Now()
		frame := now.Sub(prev).Seconds()
		prev = now
		if frame > 0 {
			a.fps = a.fps*0.9 + 0.1/frame
		}

		if a.processInput(window) {
			in := a.input.Intent()
			if a.auto {
				in = a.pilot.Next(a.flight.State())
			}
			a.clock += frame
			a.flight.Step(in, frame, a.clock)
			s := a.flight.State()
			a.camera.Update(s, frame)
			a.rotor.Set(s.Throttle, !s.Crashed(), a.camera.Position.Distance(s.Position))
			a.render(window)
		}

		window.SwapBuffers()
		glfw.PollEvents()
	}
}

// processInput handles one-shot keys and reports whether the frame should
// step; a reset starts the next frame from the new spawn.
func (a *App) processInput(window *glfw.Window) bool {
	if a.input.WasKeyPressed(glfw.KeyEscape) {
		window.SetShouldClose(true)
	}
	if a.input.WasKeyPressed(glfw.KeyP) {
		a.auto = !a.auto
		a.log.Info("autopilot toggled", zap.Bool("engaged", a.auto))
	}
	if a.input.WasKeyPressed(glfw.KeyC) {
		a.camera.Cycle()
	}
	if a.input.IsKeyPressed(glfw.KeyEqual) || a.input.IsKeyPressed(glfw.KeyKPAdd) {
		a.camera.AdjustTopDownHeight(-0.5)
	}
	if a.input.IsKeyPressed(glfw.KeyMinus) || a.input.IsKeyPressed(glfw.KeyKPSubtract) {
		a.camera.AdjustTopDownHeight(0.5)
	}
	if d := a.input.Scroll(); d != 0 {
		a.camera.AdjustTopDownHeight(-2 * d)
	}
	if a.input.WasKeyPressed(glfw.KeyR) {
		a.reset()
		return false
	}
	return true
}

func (a *App) render(window *glfw.Window) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	width, height := window.GetFramebufferSize()
	gl.Viewport(0, 0, int32(width), int32(height))

	a.renderer.Begin(a.camera, width, height)
	a.renderer.Ground(a.camera.Target)
	a.renderer.Parts(a.static)
	if p, ok := a.flight.Objective(); ok {
		a.renderer.Parts([]part{objectivePart(p, a.tuning.CaptureRadius, a.clock, a.flight.ObjectiveReached())})
	}
	if a.camera.Mode != sim.CameraModeFPV {
		a.renderer.Parts(droneParts(a.flight.State(), a.tuning))
	}

	gl.Disable(gl.DEPTH_TEST)
	a.ui.Begin(width, height)
	a.ui.DrawPanel(Panel{
		Snapshot: a.snap,
		Camera:   a.camera.Mode,
		Auto:     a.auto,
		FPS:      a.fps,
		Status:   a.status,
	})
	a.ui.Flush()
	gl.Enable(gl.DEPTH_TEST)
}
