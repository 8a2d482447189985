package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func noEnv(string) (string, bool) { return "", false }

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	defer os.Chdir(cwd)

	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir temp dir: %v", err)
	}

	cfg, err := load("", noEnv)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Origin != "<defaults>" {
		t.Fatalf("expected default origin marker, got %q", cfg.Origin)
	}
	if !cfg.Haptics.Enabled {
		t.Fatalf("expected haptics enabled by default")
	}
	if cfg.Haptics.CooldownMillis != 500 {
		t.Fatalf("unexpected default cooldown: %d", cfg.Haptics.CooldownMillis)
	}
	if cfg.Haptics.GenericBypassesCooldown {
		t.Fatalf("expected generic ticks to be gated by default")
	}
	if cfg.Gesture.SwipeThreshold != 45.0 {
		t.Fatalf("unexpected swipe threshold: %v", cfg.Gesture.SwipeThreshold)
	}
	if cfg.Gesture.TickThreshold != 5.0 {
		t.Fatalf("unexpected tick threshold: %v", cfg.Gesture.TickThreshold)
	}
	if cfg.Gesture.TickIntervalMillis != 30 {
		t.Fatalf("unexpected tick interval: %d", cfg.Gesture.TickIntervalMillis)
	}
	if cfg.Source.Kind != SourceTap {
		t.Fatalf("unexpected source kind: %q", cfg.Source.Kind)
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := `haptics:
  enabled: false
  cooldown_ms: 250
  generic_bypasses_cooldown: true
  cancel_on_disable: true
gesture:
  swipe_threshold: 60
  tick_interval_ms: 50
source:
  kind: Replay
  replay_path: ./events.jsonl
actuator:
  kind: log
logging:
  level: DEBUG
  format: json
metrics:
  listen: 127.0.0.1:9464
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := load(cfgPath, noEnv)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Haptics.Enabled {
		t.Fatalf("expected haptics disabled")
	}
	if cfg.Haptics.CooldownMillis != 250 {
		t.Fatalf("unexpected cooldown: %d", cfg.Haptics.CooldownMillis)
	}
	if !cfg.Haptics.GenericBypassesCooldown || !cfg.Haptics.CancelOnDisable {
		t.Fatalf("expected bypass and cancel flags set: %+v", cfg.Haptics)
	}
	if cfg.Haptics.QueueSize != 256 {
		t.Fatalf("expected queue size default to survive overlay, got %d", cfg.Haptics.QueueSize)
	}
	if cfg.Gesture.SwipeThreshold != 60 {
		t.Fatalf("unexpected swipe threshold: %v", cfg.Gesture.SwipeThreshold)
	}
	if cfg.Gesture.TickThreshold != 5.0 {
		t.Fatalf("expected default tick threshold, got %v", cfg.Gesture.TickThreshold)
	}
	if cfg.Source.Kind != SourceReplay {
		t.Fatalf("unexpected source kind: %q", cfg.Source.Kind)
	}
	if cfg.Source.ReplayPath != "events.jsonl" {
		t.Fatalf("unexpected replay path: %q", cfg.Source.ReplayPath)
	}
	if cfg.Actuator.Kind != ActuatorLog {
		t.Fatalf("unexpected actuator kind: %q", cfg.Actuator.Kind)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
	if cfg.Metrics.Listen != "127.0.0.1:9464" {
		t.Fatalf("unexpected metrics listen: %q", cfg.Metrics.Listen)
	}
	if cfg.Origin != cfgPath {
		t.Fatalf("expected origin to equal path, got %q", cfg.Origin)
	}
}

func TestUnknownKeyReturnsError(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "haptics:\n  unsupported: true\n"

	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := load(cfgPath, noEnv); err == nil {
		t.Fatalf("expected error for unsupported key")
	}
}

func TestExplicitMissingFileReturnsNotFound(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "absent.yaml"), noEnv)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnvOverridesApplyAfterFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("actuator:\n  kind: native\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	env := map[string]string{
		"TACTILE_ENABLED":   "off",
		"TACTILE_ACTUATOR":  "NONE",
		"TACTILE_SOURCE":    "synthetic",
		"TACTILE_LOG_LEVEL": "warning",
	}
	cfg, err := load(cfgPath, func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Haptics.Enabled {
		t.Fatalf("expected env to disable haptics")
	}
	if cfg.Actuator.Kind != ActuatorNone {
		t.Fatalf("unexpected actuator kind: %q", cfg.Actuator.Kind)
	}
	if cfg.Source.Kind != SourceSynthetic {
		t.Fatalf("unexpected source kind: %q", cfg.Source.Kind)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("unexpected log level: %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(c *Config){
		"negative cooldown":   func(c *Config) { c.Haptics.CooldownMillis = -1 },
		"zero queue":          func(c *Config) { c.Haptics.QueueSize = 0 },
		"negative swipe":      func(c *Config) { c.Gesture.SwipeThreshold = -45 },
		"negative interval":   func(c *Config) { c.Gesture.TickIntervalMillis = -1 },
		"zero interval":       func(c *Config) { c.Gesture.TickIntervalMillis = 0 },
		"replay without path": func(c *Config) { c.Source.Kind = SourceReplay },
		"nats without url":    func(c *Config) { c.Source.Kind = SourceNATS; c.Source.NATS.URL = "" },
		"unknown source":      func(c *Config) { c.Source.Kind = "hid" },
		"unknown actuator":    func(c *Config) { c.Actuator.Kind = "taptic" },
		"bad log level":       func(c *Config) { c.Logging.Level = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestEmptyFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("# nothing here\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := load(cfgPath, noEnv)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Haptics.CooldownMillis != 500 {
		t.Fatalf("expected defaults, got cooldown %d", cfg.Haptics.CooldownMillis)
	}
}

func TestLoadRejectsZeroTickInterval(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "gesture:\n  tick_interval_ms: 0\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := load(cfgPath, noEnv)
	if err == nil || !strings.Contains(err.Error(), "gesture.tick_interval_ms must be positive") {
		t.Fatalf("expected tick interval error, got %v", err)
	}
}
