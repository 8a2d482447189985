package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/offlinefirst/tactile/pkg/config"
	"github.com/offlinefirst/tactile/pkg/events"
	"github.com/offlinefirst/tactile/pkg/feedback"
)

func newReplayCommand() command {
	return command{
		name:        "replay",
		usage:       " <events.jsonl>",
		description: "Feed a recorded event file through the classifier and player",
		configure: func(fs *flag.FlagSet) {
			fs.Bool("realtime", false, "Play the file at its recorded pace through the configured actuator")
			fs.Bool("timeline", true, "Print every trigger and pulse (offline mode only)")
		},
		run: runReplay,
	}
}

func runReplay(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}
	if len(args) != 1 {
		return errors.New("replay expects exactly one events file")
	}
	path := args[0]

	if boolFlag(fs, "realtime") {
		return replayRealtime(ctx, path, stdout)
	}

	evs, err := events.ReadFile(path)
	if err != nil {
		return err
	}
	ctx.Logger.Info("replaying events offline", "path", path, "events", len(evs))

	tl := feedback.Simulate(evs, feedback.Options{Config: ctx.Config, Logger: ctx.Logger})
	if boolFlag(fs, "timeline") {
		printTimeline(stdout, tl)
	}
	printSummary(stdout, tl.Summary, "replayed")
	return nil
}

func replayRealtime(ctx *AppContext, path string, stdout io.Writer) error {
	cfg := ctx.Config
	cfg.Source.Kind = config.SourceReplay
	cfg.Source.ReplayPath = path
	cfg.Source.ReplayRealtime = true

	source, err := newSource(cfg, ctx.Logger, timeNow)
	if err != nil {
		return fmt.Errorf("open replay source: %w", err)
	}
	driver, err := newDriver(cfg, ctx.Logger)
	if err != nil {
		return fmt.Errorf("open actuator: %w", err)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := feedback.Run(runCtx, feedback.Options{
		Config: cfg,
		Source: source,
		Driver: driver,
		Logger: ctx.Logger,
		Clock:  timeNow,
	})
	if err != nil {
		return fmt.Errorf("replay %s: %w", path, err)
	}
	termination := "replayed"
	if runCtx.Err() != nil {
		termination = "interrupted"
	}
	printSummary(stdout, summary, termination)
	return nil
}

func printTimeline(stdout io.Writer, tl feedback.Timeline) {
	var origin time.Time
	if len(tl.Steps) > 0 {
		origin = tl.Steps[0].Event.Time
	}
	for _, step := range tl.Steps {
		if step.Trigger == 0 {
			continue
		}
		verdict := "suppressed"
		if step.Accepted {
			verdict = "accepted"
		}
		fmt.Fprintf(stdout, "%10s  %-16s %-18s %s\n",
			offset(origin, step.Event.Time), step.Event.Kind, step.Trigger, verdict)
		for _, p := range step.Pulses {
			fmt.Fprintf(stdout, "%10s    pulse %s\n", offset(origin, p.At), p.Kind)
		}
	}
}

func offset(origin, at time.Time) string {
	return "+" + at.Sub(origin).Round(time.Millisecond).String()
}
