//go:build windows

package cmd

import (
	"log/slog"

	"github.com/offlinefirst/tactile/pkg/feedback"
)

func watchToggle(*feedback.Controller, *slog.Logger) func() { return func() {} }
