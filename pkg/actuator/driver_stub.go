//go:build !darwin

package actuator

import "runtime"

// NewNative returns the platform haptic driver. Only darwin has one.
func NewNative() (Driver, error) {
	return nil, newUnavailableError("no haptic actuator on " + runtime.GOOS)
}
