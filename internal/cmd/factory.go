package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/offlinefirst/tactile/pkg/actuator"
	"github.com/offlinefirst/tactile/pkg/config"
	"github.com/offlinefirst/tactile/pkg/events"
)

// openSource builds the event source selected by cfg.
func openSource(cfg config.Config, logger *slog.Logger, clock func() time.Time) (events.EventSource, error) {
	switch cfg.Source.Kind {
	case config.SourceTap:
		return events.NewTapSource(events.TapOptions{Clock: clock}), nil
	case config.SourceSynthetic:
		return events.NewSyntheticSource(events.SyntheticOptions{Clock: clock, Repeat: true}), nil
	case config.SourceReplay:
		return events.NewReplaySource(events.ReplayOptions{
			Path:     cfg.Source.ReplayPath,
			Realtime: cfg.Source.ReplayRealtime,
		})
	case config.SourceNATS:
		return events.NewNATSSource(events.NATSOptions{
			URL:     cfg.Source.NATS.URL,
			Subject: cfg.Source.NATS.Subject,
			Clock:   clock,
			OnDecodeError: func(err error) {
				logger.Warn("discarding malformed event", "error", err)
			},
		})
	default:
		return nil, fmt.Errorf("unsupported source kind %q", cfg.Source.Kind)
	}
}

// openDriver builds the actuator selected by cfg. A missing native actuator
// degrades to the log driver so the loop still runs.
func openDriver(cfg config.Config, logger *slog.Logger) (actuator.Driver, error) {
	driver, err := actuator.Open(cfg.Actuator.Kind, logger)
	if err == nil {
		return driver, nil
	}
	if cfg.Actuator.Kind == config.ActuatorNative && errors.Is(err, actuator.ErrUnavailable) {
		logger.Warn("native actuator unavailable, logging pulses instead", "error", err)
		return actuator.NewLogDriver(logger), nil
	}
	return nil, err
}
