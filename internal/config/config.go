// Package config loads process configuration for autonate commands from an
// optional TOML file and environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Environment variables that override the file.
const (
	EnvPort      = "AUTONATE_PORT"
	EnvScenesDir = "AUTONATE_SCENES_DIR"
	EnvAssetsDir = "AUTONATE_ASSETS_DIR"
	EnvWorkers   = "AUTONATE_WORKERS"
	EnvLogLevel  = "LOG_LEVEL"
)

// Default configuration.
const (
	DefaultPort      = "8080"
	DefaultMaxFrames = 900
	DefaultChunkSize = 30
	DefaultLogLevel  = "info"
)

// Config is the full process configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Scenes ScenesConfig `toml:"scenes"`
	Assets AssetsConfig `toml:"assets"`
	Render RenderConfig `toml:"render"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Addr      string `toml:"addr"`
	MaxFrames int    `toml:"max_frames"`
	StaticDir string `toml:"static_dir"`
	AccessLog bool   `toml:"access_log"`
}

// ScenesConfig says where scenes come from.
type ScenesConfig struct {
	Dir     string `toml:"dir"`
	Watch   bool   `toml:"watch"`
	BuiltIn bool   `toml:"builtin"`
}

// AssetsConfig locates audio referenced by scenes.
type AssetsConfig struct {
	Dir string `toml:"dir"`
}

// RenderConfig configures the render farm and job manager.
type RenderConfig struct {
	Workers   int    `toml:"workers"`
	ChunkSize int    `toml:"chunk_size"`
	MaxJobs   int    `toml:"max_jobs"`
	OutputDir string `toml:"output_dir"`
	StoreFile string `toml:"store_file"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:      ":" + DefaultPort,
			MaxFrames: DefaultMaxFrames,
		},
		Scenes: ScenesConfig{
			Watch:   true,
			BuiltIn: true,
		},
		Assets: AssetsConfig{Dir: "."},
		Render: RenderConfig{
			Workers:   runtime.NumCPU(),
			ChunkSize: DefaultChunkSize,
			MaxJobs:   1,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// Load reads path (if non-empty) over the defaults, then applies
// environment overrides and validates the result. Unknown keys in the
// file are an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			var sme *toml.StrictMissingError
			if errors.As(err, &sme) {
				return cfg, fmt.Errorf("parse config %s: %s", path, sme.String())
			}
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() error {
	if port := os.Getenv(EnvPort); port != "" {
		c.Server.Addr = ":" + port
	}
	if dir := os.Getenv(EnvScenesDir); dir != "" {
		c.Scenes.Dir = dir
	}
	if dir := os.Getenv(EnvAssetsDir); dir != "" {
		c.Assets.Dir = dir
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Render.Workers = n
	}
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		c.Log.Level = lvl
	}
	return nil
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.MaxFrames <= 0 {
		errs = append(errs, fmt.Errorf("server.max_frames must be positive, got %d", c.Server.MaxFrames))
	}
	if c.Render.Workers <= 0 {
		errs = append(errs, fmt.Errorf("render.workers must be positive, got %d", c.Render.Workers))
	}
	if c.Render.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("render.chunk_size must be positive, got %d", c.Render.ChunkSize))
	}
	if c.Render.MaxJobs <= 0 {
		errs = append(errs, fmt.Errorf("render.max_jobs must be positive, got %d", c.Render.MaxJobs))
	}
	if !c.Scenes.BuiltIn && c.Scenes.Dir == "" {
		errs = append(errs, errors.New("scenes.dir is required when scenes.builtin is false"))
	}
	return errors.Join(errs...)
}
