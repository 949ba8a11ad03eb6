//go:build !test
// +build !test

package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"dronefield/internal/config"
	"dronefield/internal/logging"
	"dronefield/internal/metrics"
	"dronefield/internal/sim"
	"dronefield/internal/sound"
	"dronefield/internal/view"
	"dronefield/internal/world"
)

func init() {
	// GLFW and GL calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "drone:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Config file (yaml, json or toml)")
	worldPath := flag.String("world", "", "World file; overrides world.path")
	width := flag.Int("width", 1280, "Window width")
	height := flag.Int("height", 800, "Window height")
	mute := flag.Bool("mute", false, "Disable sound")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *worldPath != "" {
		cfg.World.Path = *worldPath
	}

	var outputs []string
	if cfg.Log.File != "" {
		outputs = append(outputs, cfg.Log.File)
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, outputs...)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	w, err := world.LoadOrDefault(cfg.World.Path)
	if err != nil {
		return err
	}
	m, err := metrics.New()
	if err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initialize GLFW: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(*width, *height, "Drone Field - "+w.Name, nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := gl.Init(); err != nil {
		return fmt.Errorf("initialize OpenGL: %w", err)
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.ClearColor(0.5, 0.7, 0.9, 1.0)

	log.Info("viewer started",
		zap.String("world", w.Name),
		zap.String("gl_version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("config", *configPath),
	)
	fmt.Println(view.Help)

	opts := view.Options{
		Tuning:       cfg.Sim.Tuning,
		CruiseMargin: cfg.Pilot.CruiseMargin,
		Logger:       log,
		Callbacks:    m.Wrap(sim.Callbacks{}),
	}
	if !*mute {
		player, err := sound.Open()
		if err != nil {
			log.Warn("audio unavailable", zap.Error(err))
		}
		defer player.Close()
		opts.Sound = player
	}

	app, err := view.New(w, opts)
	if err != nil {
		return err
	}
	app.Run(window)
	log.Info("viewer closed", zap.Uint64("steps", app.Flight().Steps()))
	return nil
}
