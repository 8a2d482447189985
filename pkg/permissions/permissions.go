// Package permissions reports the macOS privacy grants the event tap depends
// on. Granting them is left to the user; this package only observes.
package permissions

import (
	"os"
	"runtime"
	"strings"
)

// Status enumerates coarse permission results for macOS-style prompts.
type Status string

const (
	// StatusUnknown indicates no explicit signal about permission state.
	StatusUnknown Status = "unknown"
	// StatusGranted signals that permission was previously granted.
	StatusGranted Status = "granted"
	// StatusDenied indicates the user has explicitly denied access.
	StatusDenied Status = "denied"
	// StatusPromptRequired means the platform will prompt at runtime.
	StatusPromptRequired Status = "prompt"
	// StatusUnavailable reports that the capability is not supported.
	StatusUnavailable Status = "unavailable"
)

// ProbeResult represents the coarse state for a permission surface.
type ProbeResult struct {
	Name     string
	Status   Status
	Message  string
	Guidance string
}

// LookupEnvFunc exposes environment probing for testability.
type LookupEnvFunc func(string) (string, bool)

// lookupEnv is declared for swapping in tests.
var lookupEnv = func(key string) (string, bool) {
	return os.LookupEnv(key)
}

// goos is declared for swapping in tests.
var goos = func() string { return runtime.GOOS }

type surface struct {
	name     string
	envKey   string
	darwin   string
	fallback string
}

var (
	accessibility = surface{
		name:     "accessibility",
		envKey:   "TACTILE_ACCESSIBILITY",
		darwin:   "accessibility trust required for the event tap",
		fallback: "accessibility prompts unavailable",
	}
	inputMonitoring = surface{
		name:     "input monitoring",
		envKey:   "TACTILE_INPUT_MONITORING",
		darwin:   "input monitoring approval required to observe scroll and gesture events",
		fallback: "input monitoring unsupported on this platform",
	}
)

// ProbeAccessibility inspects environment flags for accessibility trust.
func ProbeAccessibility(lookup LookupEnvFunc) ProbeResult {
	return probe(accessibility, lookup)
}

// ProbeInputMonitoring reports whether listen-only event taps can observe input.
func ProbeInputMonitoring(lookup LookupEnvFunc) ProbeResult {
	return probe(inputMonitoring, lookup)
}

// ProbeAll returns every surface relevant to the feedback engine.
func ProbeAll(lookup LookupEnvFunc) []ProbeResult {
	return []ProbeResult{ProbeAccessibility(lookup), ProbeInputMonitoring(lookup)}
}

func probe(s surface, lookup LookupEnvFunc) ProbeResult {
	if lookup == nil {
		lookup = lookupEnv
	}
	if value, ok := lookup(s.envKey); ok {
		res := interpretPermissionFlag(s.name, value)
		res.Name = s.name
		return res
	}
	if goos() == "darwin" {
		return ProbeResult{Name: s.name, Status: StatusPromptRequired, Message: s.darwin}
	}
	return ProbeResult{Name: s.name, Status: StatusUnavailable, Message: s.fallback}
}

func interpretPermissionFlag(name, value string) ProbeResult {
	normalised := strings.ToLower(strings.TrimSpace(value))
	switch normalised {
	case "granted", "allow", "allowed", "yes", "true":
		return ProbeResult{Status: StatusGranted, Message: name + " permission pre-authorised via env override"}
	case "denied", "no", "false", "blocked":
		return ProbeResult{Status: StatusDenied, Message: name + " permission denied via env override", Guidance: "open System Settings > Privacy & Security, or update TACTILE_* env to re-test"}
	case "prompt", "ask":
		return ProbeResult{Status: StatusPromptRequired, Message: name + " permission will prompt at runtime"}
	case "unavailable", "unsupported":
		return ProbeResult{Status: StatusUnavailable, Message: name + " permission unavailable on this platform"}
	default:
		return ProbeResult{Status: StatusUnknown, Message: name + " permission state unknown"}
	}
}

// StatusString returns the string representation for reports.
func (p ProbeResult) StatusString() string {
	if p.Status == "" {
		return string(StatusUnknown)
	}
	return string(p.Status)
}
