package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/offlinefirst/tactile/pkg/events"
)

func newRecordCommand() command {
	return command{
		name:        "record",
		usage:       " <events.jsonl>",
		description: "Capture raw input events from the configured source into a file",
		configure: func(fs *flag.FlagSet) {
			fs.Duration("duration", 0, "Stop after this long (0 records until interrupted)")
			fs.String("kinds", "", "Comma separated event kinds to keep (default: all)")
		},
		run: runRecord,
	}
}

func runRecord(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}
	if len(args) != 1 {
		return errors.New("record expects exactly one destination file")
	}

	kinds, err := parseKinds(stringFlag(fs, "kinds"))
	if err != nil {
		return err
	}

	source, err := newSource(ctx.Config, ctx.Logger, timeNow)
	if err != nil {
		return fmt.Errorf("open event source: %w", err)
	}
	recorder, err := events.NewRecorder(events.RecorderOptions{Clock: timeNow, Source: source, Kinds: kinds})
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration := durationFlag(fs, "duration"); duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, duration)
		defer cancel()
	}

	ctx.Logger.Info("recording events", "path", args[0], "source", ctx.Config.Source.Kind)
	result, err := recorder.Capture(runCtx, args[0])
	if err != nil {
		if errors.Is(err, events.ErrAccessibilityPermission) {
			fmt.Fprintln(stderr, permissionsGuidance())
		}
		return fmt.Errorf("record events: %w", err)
	}

	fmt.Fprintf(stdout, "Recorded %d events to %s (%d filtered)\n", result.EventCount, result.Path, result.FilteredCount)
	for _, name := range sortedKeys(result.ByKind) {
		fmt.Fprintf(stdout, "  %s: %d\n", name, result.ByKind[name])
	}
	return nil
}

func parseKinds(list string) ([]events.Kind, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var kinds []events.Kind
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		kind := events.ParseKind(name)
		if kind == events.KindUnknown {
			return nil, fmt.Errorf("unknown event kind %q", name)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
