// Package config loads converter settings from an optional YAML file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables recognised by Load.
const (
	EnvConfigPath    = "APO2CDSP_CONFIG"
	EnvLogLevel      = "APO2CDSP_LOG_LEVEL"
	EnvLogFormat     = "APO2CDSP_LOG_FORMAT"
	EnvSampleRate    = "APO2CDSP_SAMPLE_RATE"
	EnvMaxInputBytes = "APO2CDSP_MAX_INPUT_BYTES"
)

// Default values.
const (
	defaultMaxInputBytes   = 10 * 1024 * 1024 // 10 MiB
	defaultStreamThreshold = 1024 * 1024      // 1 MiB
	defaultSampleRate      = 48000.0
	defaultPoints          = 512
	defaultMinFreq         = 20.0
	defaultMaxFreq         = 20000.0
	defaultBlockSize       = 4096
	minPoints              = 2
)

// ErrInvalidConfig indicates a configuration that fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root configuration structure.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	IO       IOConfig       `yaml:"io"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Render   RenderConfig   `yaml:"render"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	Output string `yaml:"output"` // stderr or stdout
}

// IOConfig bounds input reading.
type IOConfig struct {
	// MaxInputBytes rejects larger input files.
	MaxInputBytes int64 `yaml:"max_input_bytes"`

	// StreamThreshold is the size from which input is read in chunks.
	StreamThreshold int64 `yaml:"stream_threshold"`
}

// AnalysisConfig controls the frequency-response report.
type AnalysisConfig struct {
	SampleRate float64 `yaml:"sample_rate"`
	Points     int     `yaml:"points"`
	MinFreq    float64 `yaml:"min_freq"`
	MaxFreq    float64 `yaml:"max_freq"`
}

// RenderConfig controls WAV rendering.
type RenderConfig struct {
	BlockSize int `yaml:"block_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
		IO: IOConfig{
			MaxInputBytes:   defaultMaxInputBytes,
			StreamThreshold: defaultStreamThreshold,
		},
		Analysis: AnalysisConfig{
			SampleRate: defaultSampleRate,
			Points:     defaultPoints,
			MinFreq:    defaultMinFreq,
			MaxFreq:    defaultMaxFreq,
		},
		Render: RenderConfig{
			BlockSize: defaultBlockSize,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (when
// path is non-empty) and environment overrides, in that order. An empty
// path falls back to $APO2CDSP_CONFIG.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies APO2CDSP_* variables on top of cfg.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv(EnvSampleRate); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, EnvSampleRate, v)
		}
		cfg.Analysis.SampleRate = rate
	}

	if v := os.Getenv(EnvMaxInputBytes); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvMaxInputBytes, v)
		}
		cfg.IO.MaxInputBytes = n
	}

	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("logging.format %q is not one of text, json", c.Logging.Format))
	}

	if c.IO.MaxInputBytes <= 0 {
		errs = append(errs, "io.max_input_bytes must be positive")
	}
	if c.IO.StreamThreshold <= 0 {
		errs = append(errs, "io.stream_threshold must be positive")
	}

	if c.Analysis.SampleRate <= 0 {
		errs = append(errs, "analysis.sample_rate must be positive")
	}
	if c.Analysis.Points < minPoints {
		errs = append(errs, fmt.Sprintf("analysis.points must be at least %d", minPoints))
	}
	if c.Analysis.MinFreq <= 0 || c.Analysis.MaxFreq <= c.Analysis.MinFreq {
		errs = append(errs, "analysis frequency range must satisfy 0 < min_freq < max_freq")
	}

	if c.Render.BlockSize <= 0 {
		errs = append(errs, "render.block_size must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}
