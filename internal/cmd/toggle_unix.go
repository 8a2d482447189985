//go:build !windows

package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/offlinefirst/tactile/pkg/feedback"
)

// watchToggle flips the controller on SIGUSR1.
func watchToggle(control *feedback.Controller, logger *slog.Logger) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				toggleFeedback(control, logger)
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
