package events

import (
	"runtime"

	"github.com/offlinefirst/tactile/pkg/permissions"
)

// Environment summarises event tap backend support.
type Environment struct {
	Provider   string
	Available  bool
	Permission string
	Message    string
	Guidance   string
}

const (
	providerQuartz    = "quartz_event_tap"
	providerSynthetic = "synthetic"
)

// DetectEnvironment reports the availability of a real Quartz event tap.
func DetectEnvironment(lookup permissions.LookupEnvFunc) Environment {
	return detectEnvironment(runtime.GOOS, lookup)
}

func detectEnvironment(goos string, lookup permissions.LookupEnvFunc) Environment {
	accessibility := permissions.ProbeAccessibility(lookup)
	monitoring := permissions.ProbeInputMonitoring(lookup)
	env := Environment{
		Provider:   providerSynthetic,
		Permission: accessibility.StatusString(),
		Message:    accessibility.Message,
		Guidance:   accessibility.Guidance,
		Available:  true,
	}

	if goos == "darwin" {
		env.Provider = providerQuartz
		env.Available = accessibility.Status != permissions.StatusDenied && monitoring.Status != permissions.StatusDenied
		if monitoring.Status == permissions.StatusDenied {
			env.Permission = monitoring.StatusString()
			env.Message = monitoring.Message
			env.Guidance = monitoring.Guidance
		}
		if !env.Available && env.Message == "" {
			env.Message = "accessibility permission missing"
		}
	} else {
		env.Permission = "not_applicable"
		env.Message = "synthetic event script"
		env.Guidance = ""
	}

	if !env.Available {
		env.Provider = providerSynthetic
	}
	return env
}
