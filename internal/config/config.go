package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Data       DataConfig       `toml:"data"`
	Database   DatabaseConfig   `toml:"database"`
	Logging    LoggingConfig    `toml:"logging"`
	View       ViewConfig       `toml:"view"`
}

type SimulationConfig struct {
	TickRate         time.Duration `toml:"tick_rate"`
	SnapshotInterval int           `toml:"snapshot_interval"` // ticks between snapshot saves
	Owner            string        `toml:"owner"`             // name of the reference entity handed to actions
	NodeRailSpeed    float64       `toml:"node_rail_speed"`   // timing of rails assembled from rail nodes
	StartTime        int64         // set at boot, not from config
}

type DataConfig struct {
	Rails      []string `toml:"rails"`
	Libraries  []string `toml:"libraries"` // prototype libraries, kept for the whole run
	Entities   []string `toml:"entities"`
	ScriptsDir string   `toml:"scripts_dir"`
	ExportPath string   `toml:"export_path"` // entity export written on shutdown, empty disables
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty disables persistence
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type ViewConfig struct {
	SampleStep float64       `toml:"sample_step"` // spline time between rail trace points
	Zoom       float64       `toml:"zoom"`        // terminal cells per world unit
	FrameRate  time.Duration `toml:"frame_rate"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Simulation.StartTime = time.Now().Unix()
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Simulation.TickRate <= 0 {
		return fmt.Errorf("simulation.tick_rate must be positive, got %s", c.Simulation.TickRate)
	}
	if c.Simulation.NodeRailSpeed <= 0 {
		return fmt.Errorf("simulation.node_rail_speed must be positive, got %g", c.Simulation.NodeRailSpeed)
	}
	if c.View.SampleStep <= 0 {
		return fmt.Errorf("view.sample_step must be positive, got %g", c.View.SampleStep)
	}
	if !(c.View.Zoom > 0) || math.IsInf(c.View.Zoom, 0) {
		return fmt.Errorf("view.zoom must be positive and finite, got %g", c.View.Zoom)
	}
	if c.View.FrameRate <= 0 {
		return fmt.Errorf("view.frame_rate must be positive, got %s", c.View.FrameRate)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Simulation: SimulationConfig{
			TickRate:         50 * time.Millisecond,
			SnapshotInterval: 1200, // 1 minute at 20 ticks/sec
			Owner:            "raft",
			NodeRailSpeed:    1,
		},
		Data: DataConfig{
			Rails:      []string{"data/yaml/rails.yaml"},
			Libraries:  []string{"data/yaml/prototypes.yaml"},
			Entities:   []string{"data/yaml/entities.yaml"},
			ScriptsDir: "scripts",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		View: ViewConfig{
			SampleStep: 0.05,
			Zoom:       4,
			FrameRate:  50 * time.Millisecond,
		},
	}
}
