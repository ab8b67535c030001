package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	// Endpoint is the initial session endpoint the console connects to.
	// It is only the starting value; the operator can change it at runtime.
	Endpoint string `yaml:"endpoint"`

	Console ConsoleConfig `yaml:"console"`
	Backend BackendConfig `yaml:"backend"`
	Logger  LoggerConfig  `yaml:"logging"`
	Tracer  TracerConfig  `yaml:"tracing"`
}

// ConsoleConfig holds operator console settings.
type ConsoleConfig struct {
	ActivityLines int `yaml:"activity_lines"` // bounded activity feed size
	RenderFPS     int `yaml:"render_fps"`     // UI repaint cap, not stream cadence
}

// BackendConfig holds companion backend settings.
type BackendConfig struct {
	Listen         string     `yaml:"listen"`
	ViewportWidth  int        `yaml:"viewport_width"`
	ViewportHeight int        `yaml:"viewport_height"`
	FrameRate      int        `yaml:"frame_rate"`   // frames per second pushed per stream client
	JPEGQuality    int        `yaml:"jpeg_quality"` // screenshot encode quality
	StartURL       string     `yaml:"start_url"`
	TraceDB        string     `yaml:"trace_db"` // sqlite trace journal path; empty = journaling off
	MDNS           MDNSConfig `yaml:"mdns"`
}

// MDNSConfig holds LAN advertisement settings.
// NOTE: advertising also requires the binary to be built with the "mdns"
// build tag; without it the noop advertiser is used.
type MDNSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // text|json
	Output string `yaml:"output"` // stderr|file|discard
	File   string `yaml:"file"`   // log file path when output=file; empty = state dir default
}

// TracerConfig holds OpenTelemetry settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // stdout|noop
}

// defaultStateDir returns the directory for runtime state such as log files.
func defaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "webrelay")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "webrelay-state"
	}
	return filepath.Join(home, ".local", "state", "webrelay")
}

// Defaults returns a Config populated with default values.
func Defaults() *Config {
	return &Config{
		Endpoint: "http://127.0.0.1:8000",
		Console: ConsoleConfig{
			ActivityLines: 20,
			RenderFPS:     24,
		},
		Backend: BackendConfig{
			Listen:         "127.0.0.1:8000",
			ViewportWidth:  1280,
			ViewportHeight: 800,
			FrameRate:      10,
			JPEGQuality:    70,
			StartURL:       "about:blank",
			MDNS: MDNSConfig{
				Name: "webrelay",
			},
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "file",
			File:   filepath.Join(defaultStateDir(), "webrelay.log"),
		},
		Tracer: TracerConfig{
			Exporter: "stdout",
		},
	}
}

// Load reads the YAML config at path, applies env overrides, and validates.
// A missing file is not an error: defaults plus env overrides are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides maps WEBRELAY_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WEBRELAY_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("WEBRELAY_BACKEND_LISTEN"); v != "" {
		cfg.Backend.Listen = v
	}
	if v := os.Getenv("WEBRELAY_BACKEND_START_URL"); v != "" {
		cfg.Backend.StartURL = v
	}
	if v := os.Getenv("WEBRELAY_BACKEND_FRAME_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.FrameRate = n
		}
	}
	if v := os.Getenv("WEBRELAY_TRACE_DB"); v != "" {
		cfg.Backend.TraceDB = v
	}
	if v := os.Getenv("WEBRELAY_LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("WEBRELAY_LOG_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("WEBRELAY_LOG_OUTPUT"); v != "" {
		cfg.Logger.Output = v
	}
	if v := os.Getenv("WEBRELAY_LOG_FILE"); v != "" {
		cfg.Logger.File = v
	}
	if v := os.Getenv("WEBRELAY_TRACING"); v == "true" {
		cfg.Tracer.Enabled = true
	}
}
