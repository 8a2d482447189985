package events

import "errors"

// ErrAccessibilityPermission indicates the host must grant Accessibility trust.
var ErrAccessibilityPermission = errors.New("macOS accessibility permission required for the event tap")

// ErrTapUnavailable reports that the Quartz event tap could not be created.
var ErrTapUnavailable = errors.New("failed to create CGEvent tap")
