package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"dronefield/internal/config"
	"dronefield/internal/logging"
	"dronefield/internal/metrics"
	"dronefield/internal/sim"
	"dronefield/internal/sound"
	"dronefield/internal/term"
	"dronefield/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "droneterm:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Config file (yaml, json or toml)")
	worldPath := flag.String("world", "", "World file; overrides world.path")
	logPath := flag.String("log", "droneterm.log", "Log file; the terminal belongs to the map")
	mute := flag.Bool("mute", false, "Disable sound")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *worldPath != "" {
		cfg.World.Path = *worldPath
	}
	if cfg.Log.File != "" {
		*logPath = cfg.Log.File
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, *logPath)
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

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.HideCursor()

	opts := term.Options{
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
		rotor := sound.NewRotor(sound.SampleRate)
		player.Play(rotor)
		opts.Sounds = player
		opts.Hum = rotor
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	log.Info("terminal front-end started", zap.String("world", w.Name), zap.String("config", *configPath))
	return term.New(screen, w, opts).Run(ctx)
}
