package actuator

import "runtime"

// Environment describes actuator availability.
type Environment struct {
	Provider  string
	Available bool
	Message   string
}

const (
	providerAppKit = "nshapticfeedbackmanager"
	providerNone   = "none"
)

// DetectEnvironment reports whether the native driver can be opened.
func DetectEnvironment() Environment {
	return detectEnvironment(runtime.GOOS, NewNative)
}

func detectEnvironment(goos string, open func() (Driver, error)) Environment {
	env := Environment{Provider: providerNone}
	if goos == "darwin" {
		env.Provider = providerAppKit
	}
	if _, err := open(); err != nil {
		env.Message = err.Error()
		return env
	}
	env.Available = true
	env.Message = "force touch trackpad haptics"
	return env
}
