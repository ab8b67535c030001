package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateEndpoint(cfg, ve)
	validateConsole(cfg, ve)
	validateBackend(cfg, ve)
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// ValidateEndpoint checks that s is a usable session endpoint: an absolute
// http(s) URL with a host. The console uses it before reconfiguring a live
// session, so a bad value must be rejected without touching anything.
func ValidateEndpoint(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("endpoint %q: %w", s, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint %q: scheme must be http or https", s)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint %q: missing host", s)
	}
	return nil
}

func validateEndpoint(cfg *Config, ve *ValidationError) {
	if err := ValidateEndpoint(cfg.Endpoint); err != nil {
		ve.Add("%v", err)
	}
}

func validateConsole(cfg *Config, ve *ValidationError) {
	if cfg.Console.ActivityLines != 20 {
		ve.Add("console.activity_lines must be 20")
	}
	if cfg.Console.RenderFPS < 1 || cfg.Console.RenderFPS > 60 {
		ve.Add("console.render_fps must be in 1..60")
	}
}

func validateBackend(cfg *Config, ve *ValidationError) {
	if _, _, err := net.SplitHostPort(cfg.Backend.Listen); err != nil {
		ve.Add("backend.listen %q is not host:port", cfg.Backend.Listen)
	}
	if cfg.Backend.ViewportWidth <= 0 || cfg.Backend.ViewportHeight <= 0 {
		ve.Add("backend viewport dimensions must be > 0")
	}
	if cfg.Backend.FrameRate < 1 || cfg.Backend.FrameRate > 60 {
		ve.Add("backend.frame_rate must be in 1..60")
	}
	if cfg.Backend.JPEGQuality < 1 || cfg.Backend.JPEGQuality > 100 {
		ve.Add("backend.jpeg_quality must be in 1..100")
	}
	if cfg.Backend.MDNS.Enabled && cfg.Backend.MDNS.Name == "" {
		ve.Add("backend.mdns.name must not be empty when mdns is enabled")
	}
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "warning": true, "error": true,
}

func validateLogger(cfg *Config, ve *ValidationError) {
	if !validLogLevels[strings.ToLower(cfg.Logger.Level)] {
		ve.Add("logging.level %q is invalid (want: debug, info, warn, error)", cfg.Logger.Level)
	}
	switch strings.ToLower(cfg.Logger.Format) {
	case "text", "json":
	default:
		ve.Add("logging.format %q is invalid (want: text, json)", cfg.Logger.Format)
	}
	switch strings.ToLower(cfg.Logger.Output) {
	case "stderr", "file", "discard":
	default:
		ve.Add("logging.output %q is invalid (want: stderr, file, discard)", cfg.Logger.Output)
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if !cfg.Tracer.Enabled {
		return
	}
	switch cfg.Tracer.Exporter {
	case "stdout", "noop", "":
	default:
		ve.Add("tracing.exporter %q is invalid (want: stdout, noop)", cfg.Tracer.Exporter)
	}
}
