package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultFileName = "config.yaml"

// Source kinds understood by the feedback engine.
const (
	SourceTap       = "tap"
	SourceSynthetic = "synthetic"
	SourceReplay    = "replay"
	SourceNATS      = "nats"
)

// Actuator kinds understood by the feedback engine.
const (
	ActuatorNative = "native"
	ActuatorLog    = "log"
	ActuatorNone   = "none"
)

// ErrNotFound is returned when an explicitly requested config file is missing.
var ErrNotFound = errors.New("config file not found")

// Config captures the user-adjustable knobs for the feedback engine.
type Config struct {
	Haptics  HapticsConfig  `yaml:"haptics"`
	Gesture  GestureConfig  `yaml:"gesture"`
	Source   SourceConfig   `yaml:"source"`
	Actuator ActuatorConfig `yaml:"actuator"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	// Origin indicates where the configuration came from (defaults or a file path).
	Origin string `yaml:"-"`
}

// HapticsConfig controls the pattern player and the actuation queue.
type HapticsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	CooldownMillis          int  `yaml:"cooldown_ms"`
	GenericBypassesCooldown bool `yaml:"generic_bypasses_cooldown"`
	CancelOnDisable         bool `yaml:"cancel_on_disable"`
	QueueSize               int  `yaml:"queue_size"`
	MaxLatenessMillis       int  `yaml:"max_lateness_ms"`
}

// GestureConfig holds the classifier thresholds.
type GestureConfig struct {
	SwipeThreshold     float64 `yaml:"swipe_threshold"`
	TickThreshold      float64 `yaml:"tick_threshold"`
	TickIntervalMillis int     `yaml:"tick_interval_ms"`
}

// SourceConfig selects where raw input events come from.
type SourceConfig struct {
	Kind           string     `yaml:"kind"`
	ReplayPath     string     `yaml:"replay_path"`
	ReplayRealtime bool       `yaml:"replay_realtime"`
	NATS           NATSConfig `yaml:"nats"`
}

// NATSConfig configures the remote event source.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// ActuatorConfig selects the pulse driver.
type ActuatorConfig struct {
	Kind string `yaml:"kind"`
}

// LoggingConfig defines log verbosity, formatting and the optional rotating file sink.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns the baseline configuration used when no overrides are supplied.
func Default() Config {
	return Config{
		Haptics: HapticsConfig{
			Enabled:           true,
			CooldownMillis:    500,
			QueueSize:         256,
			MaxLatenessMillis: 250,
		},
		Gesture: GestureConfig{
			SwipeThreshold:     45.0,
			TickThreshold:      5.0,
			TickIntervalMillis: 30,
		},
		Source: SourceConfig{
			Kind: SourceTap,
			NATS: NATSConfig{
				URL:     "nats://127.0.0.1:4222",
				Subject: "tactile.events",
			},
		},
		Actuator: ActuatorConfig{
			Kind: ActuatorNative,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
		Origin: "<defaults>",
	}
}

// Load reads configuration from disk if present, otherwise returning defaults.
// When path is empty, the loader attempts to read ./config.yaml but tolerates a missing file.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		candidate = DefaultFileName
	}

	file, err := os.Open(candidate)
	switch {
	case err == nil:
		defer file.Close()
		if err := Decode(file, &cfg); err != nil {
			return cfg, fmt.Errorf("decode %q: %w", candidate, err)
		}
		cfg.Origin = candidate
	case errors.Is(err, os.ErrNotExist):
		if explicit {
			return cfg, fmt.Errorf("%w: %q", ErrNotFound, candidate)
		}
	default:
		return cfg, fmt.Errorf("open config file %q: %w", candidate, err)
	}

	if err := cfg.ApplyEnvOverrides(lookup); err != nil {
		return cfg, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode overlays YAML from r onto cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnvOverrides applies TACTILE_* environment variables on top of the file values.
func (c *Config) ApplyEnvOverrides(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	if v, ok := lookup("TACTILE_ENABLED"); ok {
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("TACTILE_ENABLED: %w", err)
		}
		c.Haptics.Enabled = b
	}
	if v, ok := lookup("TACTILE_SOURCE"); ok {
		c.Source.Kind = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup("TACTILE_ACTUATOR"); ok {
		c.Actuator.Kind = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup("TACTILE_NATS_URL"); ok {
		c.Source.NATS.URL = strings.TrimSpace(v)
	}
	if v, ok := lookup("TACTILE_LOG_LEVEL"); ok {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup("TACTILE_METRICS_LISTEN"); ok {
		c.Metrics.Listen = strings.TrimSpace(v)
	}
	return nil
}

// Validate ensures essential configuration values are present and sensible.
func (c Config) Validate() error {
	if c.Haptics.CooldownMillis < 0 {
		return errors.New("haptics.cooldown_ms must not be negative")
	}
	if c.Haptics.QueueSize <= 0 {
		return errors.New("haptics.queue_size must be positive")
	}
	if c.Haptics.MaxLatenessMillis < 0 {
		return errors.New("haptics.max_lateness_ms must not be negative")
	}

	if !finitePositive(c.Gesture.SwipeThreshold) {
		return errors.New("gesture.swipe_threshold must be a positive number")
	}
	if !finitePositive(c.Gesture.TickThreshold) {
		return errors.New("gesture.tick_threshold must be a positive number")
	}
	if c.Gesture.TickIntervalMillis <= 0 {
		return errors.New("gesture.tick_interval_ms must be positive")
	}

	switch c.Source.Kind {
	case SourceTap, SourceSynthetic:
	case SourceReplay:
		if strings.TrimSpace(c.Source.ReplayPath) == "" {
			return errors.New("source.replay_path is required for the replay source")
		}
	case SourceNATS:
		if strings.TrimSpace(c.Source.NATS.URL) == "" {
			return errors.New("source.nats.url is required for the nats source")
		}
		if strings.TrimSpace(c.Source.NATS.Subject) == "" {
			return errors.New("source.nats.subject is required for the nats source")
		}
	default:
		return fmt.Errorf("unsupported source kind %q", c.Source.Kind)
	}

	switch c.Actuator.Kind {
	case ActuatorNative, ActuatorLog, ActuatorNone:
	default:
		return fmt.Errorf("unsupported actuator kind %q", c.Actuator.Kind)
	}

	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalize() {
	defaults := Default()

	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	if c.Source.Kind == "" {
		c.Source.Kind = defaults.Source.Kind
	}
	if c.Source.ReplayPath != "" {
		c.Source.ReplayPath = filepath.Clean(strings.TrimSpace(c.Source.ReplayPath))
	}
	c.Actuator.Kind = strings.ToLower(strings.TrimSpace(c.Actuator.Kind))
	if c.Actuator.Kind == "" {
		c.Actuator.Kind = defaults.Actuator.Kind
	}

	if c.Haptics.QueueSize <= 0 {
		c.Haptics.QueueSize = defaults.Haptics.QueueSize
	}
	if c.Gesture.SwipeThreshold == 0 {
		c.Gesture.SwipeThreshold = defaults.Gesture.SwipeThreshold
	}
	if c.Gesture.TickThreshold == 0 {
		c.Gesture.TickThreshold = defaults.Gesture.TickThreshold
	}

	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	if lvl, err := NormalizeLogLevel(c.Logging.Level); err == nil {
		c.Logging.Level = lvl
	}
	if format, err := NormalizeFormat(c.Logging.Format); err == nil {
		c.Logging.Format = format
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaults.Logging.MaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = defaults.Logging.MaxBackups
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = defaults.Logging.MaxAgeDays
	}
}

// NormalizeLogLevel validates and lowercases known logging levels.
func NormalizeLogLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return "info", nil
	case "debug":
		return "debug", nil
	case "warn", "warning":
		return "warn", nil
	case "error":
		return "error", nil
	default:
		return "", fmt.Errorf("unsupported log level %q", level)
	}
}

// NormalizeFormat validates and canonicalizes logging format identifiers.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return "json", nil
	case "", "console", "text":
		return "console", nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	default:
		return strconv.ParseBool(value)
	}
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
