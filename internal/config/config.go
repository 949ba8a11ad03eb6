// Package config loads runtime settings from an optional file and DRONESIM_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/viper"

	"dronefield/internal/sim"
)

var ErrInvalidRate = errors.New("invalid rate")

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"` // empty logs to stderr
}

type SimConfig struct {
	PhysicsHz  float64      `mapstructure:"physics_hz"`
	SnapshotHz float64      `mapstructure:"snapshot_hz"`
	DragMode   sim.DragMode `mapstructure:"drag_mode"`
	Tuning     sim.Tuning   `mapstructure:"tuning"`
}

type WorldConfig struct {
	Path string `mapstructure:"path"` // empty uses the built-in world
}

type FlightLogConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Path        string `mapstructure:"path"` // empty keeps the log in memory
	SampleEvery int    `mapstructure:"sample_every"`
	QueueSize   int    `mapstructure:"queue_size"`
	BatchSize   int    `mapstructure:"batch_size"`
}

type PilotConfig struct {
	CruiseMargin float64 `mapstructure:"cruise_margin"`
}

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Sim       SimConfig       `mapstructure:"sim"`
	World     WorldConfig     `mapstructure:"world"`
	FlightLog FlightLogConfig `mapstructure:"flightlog"`
	Pilot     PilotConfig     `mapstructure:"pilot"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")

	v.SetDefault("sim.physics_hz", 60.0)
	v.SetDefault("sim.snapshot_hz", 10.0)
	v.SetDefault("sim.drag_mode", string(sim.DragPerStep))

	v.SetDefault("world.path", "")

	v.SetDefault("flightlog.enabled", true)
	v.SetDefault("flightlog.path", "")
	v.SetDefault("flightlog.sample_every", 6)
	v.SetDefault("flightlog.queue_size", 1024)
	v.SetDefault("flightlog.batch_size", 64)

	v.SetDefault("pilot.cruise_margin", 4.0)

	// Every tuning constant is a key so that env overrides reach it.
	tuning := reflect.ValueOf(sim.DefaultTuning())
	fields := tuning.Type()
	for i := 0; i < fields.NumField(); i++ {
		tag := fields.Field(i).Tag.Get("mapstructure")
		if tag == "" || tag == "snapshot_hz" || tag == "drag_mode" {
			continue
		}
		v.SetDefault("sim.tuning."+tag, tuning.Field(i).Interface())
	}
}

// Load reads path (yaml, json or toml by extension) on top of the defaults.
// An empty path uses defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("DRONESIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Sim.Tuning.SnapshotHz = cfg.Sim.SnapshotHz
	cfg.Sim.Tuning.DragMode = cfg.Sim.DragMode

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default is the configuration with no file and no environment.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "json"},
		Sim: SimConfig{
			PhysicsHz:  60,
			SnapshotHz: 10,
			DragMode:   sim.DragPerStep,
			Tuning:     sim.DefaultTuning(),
		},
		FlightLog: FlightLogConfig{Enabled: true, SampleEvery: 6, QueueSize: 1024, BatchSize: 64},
		Pilot:     PilotConfig{CruiseMargin: 4},
	}
}

func (c *Config) Validate() error {
	if !(c.Sim.PhysicsHz > 0) {
		return fmt.Errorf("%w: sim.physics_hz must be positive, got %v", ErrInvalidRate, c.Sim.PhysicsHz)
	}
	if !(c.Sim.SnapshotHz > 0) {
		return fmt.Errorf("%w: sim.snapshot_hz must be positive, got %v", ErrInvalidRate, c.Sim.SnapshotHz)
	}
	if c.FlightLog.SampleEvery < 1 {
		return fmt.Errorf("%w: flightlog.sample_every must be at least 1, got %d", ErrInvalidRate, c.FlightLog.SampleEvery)
	}
	if c.FlightLog.QueueSize < 1 || c.FlightLog.BatchSize < 1 {
		return fmt.Errorf("flightlog.queue_size and flightlog.batch_size must be at least 1")
	}
	if c.Pilot.CruiseMargin < 0 {
		return fmt.Errorf("pilot.cruise_margin must not be negative, got %v", c.Pilot.CruiseMargin)
	}
	if err := c.Sim.Tuning.Validate(); err != nil {
		return fmt.Errorf("sim.tuning: %w", err)
	}
	return nil
}

// PhysicsStep is the fixed step used by fixed-rate runners, in seconds.
func (c *Config) PhysicsStep() float64 {
	return 1 / c.Sim.PhysicsHz
}
