package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dronefield/internal/config"
	"dronefield/internal/flightlog"
	"dronefield/internal/logging"
	"dronefield/internal/metrics"
	"dronefield/internal/pilot"
	"dronefield/internal/sim"
	"dronefield/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "headless:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Config file (yaml, json or toml)")
	worldPath := flag.String("world", "", "World file; overrides world.path")
	steps := flag.Int("steps", 0, "Stop after this many steps (0 = no limit)")
	maxTime := flag.Duration("max-time", 2*time.Minute, "Stop after this much simulated time")
	realtime := flag.Bool("realtime", false, "Pace steps to wall-clock time")
	keepFlying := flag.Bool("keep-flying", false, "Keep stepping after a crash or capture")
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
	lo, hi := w.Bounds()
	log.Info("world loaded",
		zap.String("world", w.Name),
		zap.Int("obstacles", len(w.Obstacles)),
		zap.Float64("tallest", w.Tallest()),
		zap.Float64("span_x", hi.X-lo.X),
		zap.Float64("span_z", hi.Z-lo.Z),
	)

	m, err := metrics.New()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		store     *flightlog.Store
		recorder  *flightlog.Recorder
		sessionID string
	)
	if cfg.FlightLog.Enabled {
		store, err = flightlog.Open(cfg.FlightLog.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		sessionID, err = store.StartSession(ctx, w.Name, time.Now())
		if err != nil {
			return err
		}
		recorder = flightlog.NewRecorder(store, sessionID, flightlog.RecorderOptions{
			SampleEvery: cfg.FlightLog.SampleEvery,
			QueueSize:   cfg.FlightLog.QueueSize,
			BatchSize:   cfg.FlightLog.BatchSize,
			Logger:      log,
			OnDrop:      func(kind string) { m.Dropped(ctx, kind) },
		})
	}

	var reached bool
	cb := sim.Callbacks{
		OnObjective: func(sim.Snapshot) { reached = true },
	}
	if recorder != nil {
		cb = recorder.Callbacks(cb)
	}
	cb = m.Wrap(cb)

	flight := sim.NewFlight(w.Session(),
		sim.WithTuning(cfg.Sim.Tuning),
		sim.WithLogger(log),
		sim.WithCallbacks(cb),
	)
	autopilot := pilot.New(cfg.Sim.Tuning, cfg.Pilot.CruiseMargin)
	autopilot.Plan(w.Spawn, w.Objective, w.Obstacles)
	log.Info("session started",
		zap.String("session", sessionID),
		zap.Float64("physics_hz", cfg.Sim.PhysicsHz),
		zap.Float64("cruise", autopilot.Cruise()),
	)

	dt := cfg.PhysicsStep()
	started := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	if recorder != nil {
		g.Go(func() error { return recorder.Run(gctx) })
	}
	g.Go(func() error {
		if recorder != nil {
			defer recorder.Close()
		}
		var ticker *time.Ticker
		if *realtime {
			ticker = time.NewTicker(time.Duration(dt * float64(time.Second)))
			defer ticker.Stop()
		}
		for i := 0; *steps == 0 || i < *steps; i++ {
			now := float64(i) * dt
			if now >= maxTime.Seconds() {
				return nil
			}
			if ticker != nil {
				select {
				case <-ticker.C:
				case <-gctx.Done():
					return nil
				}
			} else if gctx.Err() != nil {
				return nil
			}
			flight.Step(autopilot.Next(flight.State()), dt, now)
			m.Step(gctx)
			if !*keepFlying && (flight.Status() == sim.StatusCrashed || reached) {
				return nil
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	crash, crashed := flight.LastCrash()
	outcome := flightlog.OutcomeAborted
	switch {
	case crashed:
		outcome = flightlog.OutcomeCrashed
	case reached:
		outcome = flightlog.OutcomeObjective
	}
	if store != nil {
		if err := store.EndSession(context.Background(), sessionID, outcome, flight.Steps(), time.Now()); err != nil {
			return err
		}
	}

	s := flight.State()
	fmt.Printf("Completed %d steps (%.1fs simulated, %s wall). Outcome: %s\n",
		flight.Steps(), float64(flight.Steps())*dt, time.Since(started).Round(time.Millisecond), outcome)
	fmt.Printf("Position=(%.2f, %.2f, %.2f) speed=%.2f m/s battery=%.1f%%\n",
		s.Position.X, s.Position.Y, s.Position.Z, s.Speed(), s.Battery)
	if crashed {
		fmt.Printf("Crash: %s at (%.2f, %.2f, %.2f), impact %.2f m/s, t=%.2fs\n",
			crash.Cause, crash.Position.X, crash.Position.Y, crash.Position.Z, crash.Speed, crash.Time)
	}
	if recorder != nil {
		fmt.Printf("Flight log session %s (%d records dropped)\n", sessionID, recorder.Dropped())
	}
	return nil
}
