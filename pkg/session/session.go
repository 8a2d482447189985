// Package session writes a JSON report describing one feedback loop run.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/offlinefirst/tactile/pkg/config"
)

// SchemaVersion captures the report version for compatibility checks.
const SchemaVersion = 1

// Report states.
const (
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// Settings records the knobs that shape the run's output.
type Settings struct {
	Source                  string  `json:"source"`
	Actuator                string  `json:"actuator"`
	Enabled                 bool    `json:"enabled"`
	CooldownMillis          int     `json:"cooldown_ms"`
	GenericBypassesCooldown bool    `json:"generic_bypasses_cooldown"`
	CancelOnDisable         bool    `json:"cancel_on_disable"`
	SwipeThreshold          float64 `json:"swipe_threshold"`
	TickThreshold           float64 `json:"tick_threshold"`
	TickIntervalMillis      int     `json:"tick_interval_ms"`
}

// Counters mirror the engine summary.
type Counters struct {
	Events        int            `json:"events"`
	Classified    map[string]int `json:"classified,omitempty"`
	Accepted      int            `json:"accepted"`
	Suppressed    int            `json:"suppressed"`
	Dropped       int            `json:"dropped"`
	Pulses        int            `json:"pulses"`
	PulsesDropped int            `json:"pulses_dropped"`
}

// ComponentStatus captures availability details for the source or actuator.
type ComponentStatus struct {
	Name       string `json:"name"`
	Available  bool   `json:"available"`
	Provider   string `json:"provider,omitempty"`
	Permission string `json:"permission,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Status summarises the lifecycle of a run.
type Status struct {
	State       string     `json:"state"`
	Summary     string     `json:"summary,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Termination string     `json:"termination,omitempty"`
	Counters    *Counters  `json:"counters,omitempty"`
}

// Report is the durable record of a run.
type Report struct {
	SchemaVersion int               `json:"schema_version"`
	SessionID     string            `json:"session_id"`
	CreatedAt     time.Time         `json:"created_at"`
	Hostname      string            `json:"hostname"`
	AppVersion    string            `json:"app_version"`
	ConfigOrigin  string            `json:"config_origin"`
	Settings      Settings          `json:"settings"`
	Components    []ComponentStatus `json:"components,omitempty"`
	Status        Status            `json:"status"`
}

// Options captures the knobs for creating a new report.
type Options struct {
	SessionID  string
	CreatedAt  time.Time
	Hostname   string
	AppVersion string
	Config     config.Config
}

// New constructs a pending report.
func New(opts Options) Report {
	cfg := opts.Config
	return Report{
		SchemaVersion: SchemaVersion,
		SessionID:     opts.SessionID,
		CreatedAt:     opts.CreatedAt.UTC(),
		Hostname:      opts.Hostname,
		AppVersion:    opts.AppVersion,
		ConfigOrigin:  cfg.Origin,
		Settings: Settings{
			Source:                  cfg.Source.Kind,
			Actuator:                cfg.Actuator.Kind,
			Enabled:                 cfg.Haptics.Enabled,
			CooldownMillis:          cfg.Haptics.CooldownMillis,
			GenericBypassesCooldown: cfg.Haptics.GenericBypassesCooldown,
			CancelOnDisable:         cfg.Haptics.CancelOnDisable,
			SwipeThreshold:          cfg.Gesture.SwipeThreshold,
			TickThreshold:           cfg.Gesture.TickThreshold,
			TickIntervalMillis:      cfg.Gesture.TickIntervalMillis,
		},
		Status: Status{State: "pending"},
	}
}

// Path returns where the report for id lives under dir.
func Path(dir, id string) string {
	return filepath.Join(dir, "session_"+id+".json")
}

// Save writes the report JSON to disk with indentation for readability.
func Save(rep Report, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure report directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Load reads a report JSON file from disk.
func Load(path string) (Report, error) {
	var rep Report
	data, err := os.ReadFile(path)
	if err != nil {
		return rep, fmt.Errorf("read report: %w", err)
	}
	if err := json.Unmarshal(data, &rep); err != nil {
		return rep, fmt.Errorf("decode report: %w", err)
	}
	return rep, nil
}

// ResolveID chooses a session identifier derived from the timestamp and
// avoids collisions with reports already in dir.
func ResolveID(dir string, now time.Time) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("report directory must not be empty")
	}

	base := now.UTC().Format("20060102_150405")
	candidate := base
	suffix := 1
	for {
		_, err := os.Stat(Path(dir, candidate))
		if err == nil {
			candidate = fmt.Sprintf("%s_%02d", base, suffix)
			suffix++
			continue
		}
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		return "", fmt.Errorf("inspect report directory: %w", err)
	}
}
