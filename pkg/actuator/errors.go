package actuator

import (
	"errors"
	"strings"
)

// ErrUnavailable reports that no force feedback hardware can be driven.
var ErrUnavailable = errors.New("haptic actuator unavailable")

type unavailableError struct {
	message string
}

func (e *unavailableError) Error() string {
	return e.message
}

func (e *unavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func newUnavailableError(message string) error {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		trimmed = ErrUnavailable.Error()
	}
	return &unavailableError{message: trimmed}
}
