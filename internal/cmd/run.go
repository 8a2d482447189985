package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/offlinefirst/tactile/internal/buildinfo"
	"github.com/offlinefirst/tactile/pkg/actuator"
	"github.com/offlinefirst/tactile/pkg/events"
	"github.com/offlinefirst/tactile/pkg/feedback"
	"github.com/offlinefirst/tactile/pkg/metrics"
	"github.com/offlinefirst/tactile/pkg/permissions"
	"github.com/offlinefirst/tactile/pkg/session"
)

func newRunCommand() command {
	return command{
		name:        "run",
		description: "Start the live feedback loop",
		configure: func(fs *flag.FlagSet) {
			fs.Bool("plan-only", false, "Print the resolved configuration without starting the loop")
			fs.Duration("duration", 0, "Stop after this long (0 runs until interrupted)")
			fs.String("report-dir", "", "Write a session report into this directory")
		},
		run: runFeedback,
	}
}

var (
	timeNow   = time.Now
	hostname  = os.Hostname
	newSource = openSource
	newDriver = openDriver
)

func runFeedback(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}

	planOnly := boolFlag(fs, "plan-only")
	duration := durationFlag(fs, "duration")
	reportDir := stringFlag(fs, "report-dir")
	ctx.Logger.Info("run command invoked", "plan_only", planOnly, "duration", duration, "config_origin", ctx.Config.Origin)

	if planOnly {
		printRunPlan(ctx, stdout)
		return nil
	}

	source, err := newSource(ctx.Config, ctx.Logger, timeNow)
	if err != nil {
		return fmt.Errorf("open event source: %w", err)
	}
	driver, err := newDriver(ctx.Config, ctx.Logger)
	if err != nil {
		return fmt.Errorf("open actuator: %w", err)
	}

	var report *session.Report
	var reportPath string
	if reportDir != "" {
		id, err := session.ResolveID(reportDir, timeNow())
		if err != nil {
			return fmt.Errorf("resolve session id: %w", err)
		}
		host, err := hostname()
		if err != nil {
			host = "unknown"
		}
		rep := session.New(session.Options{
			SessionID:  id,
			CreatedAt:  timeNow(),
			Hostname:   host,
			AppVersion: buildinfo.Version(),
			Config:     ctx.Config,
		})
		rep.Components = componentStatuses()
		rep.Status.State = session.StateRunning
		report = &rep
		reportPath = session.Path(reportDir, id)
		if err := session.Save(rep, reportPath); err != nil {
			return err
		}
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, duration)
		defer cancel()
	}

	control := feedback.NewController(ctx.Config.Haptics.Enabled)
	stopToggle := watchToggle(control, ctx.Logger)
	defer stopToggle()

	var m *metrics.Metrics
	if listen := ctx.Config.Metrics.Listen; listen != "" {
		reg := prometheus.NewRegistry()
		if m, err = metrics.New(reg); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		go func() {
			ctx.Logger.Info("serving metrics", "listen", listen)
			if err := metrics.Serve(runCtx, listen, reg); err != nil {
				ctx.Logger.Error("metrics endpoint failed", "error", err)
			}
		}()
	}

	summary, runErr := feedback.Run(runCtx, feedback.Options{
		Config:  ctx.Config,
		Source:  source,
		Driver:  driver,
		Logger:  ctx.Logger,
		Clock:   timeNow,
		Control: control,
		Metrics: m,
	})

	termination := "completed"
	switch {
	case runErr != nil:
		termination = "error"
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		termination = "duration elapsed"
	case runCtx.Err() != nil:
		termination = "interrupted"
	}

	if report != nil {
		started, finished := summary.StartedAt, summary.FinishedAt
		report.Status.StartedAt = &started
		report.Status.EndedAt = &finished
		report.Status.Termination = termination
		report.Status.Counters = &session.Counters{
			Events:        summary.Events,
			Classified:    summary.Classified,
			Accepted:      summary.Accepted,
			Suppressed:    summary.Suppressed,
			Dropped:       summary.Dropped,
			Pulses:        summary.Pulses,
			PulsesDropped: summary.PulsesDropped,
		}
		report.Status.State = session.StateCompleted
		report.Status.Summary = fmt.Sprintf("feedback loop finished (%s)", termination)
		if runErr != nil {
			report.Status.State = session.StateFailed
			report.Status.Summary = runErr.Error()
		}
		if err := session.Save(*report, reportPath); err != nil {
			if runErr != nil {
				return fmt.Errorf("run feedback loop: %v (additionally failed to persist report: %w)", runErr, err)
			}
			return err
		}
	}

	if runErr != nil {
		if errors.Is(runErr, events.ErrAccessibilityPermission) {
			fmt.Fprintln(stderr, permissionsGuidance())
		}
		return fmt.Errorf("run feedback loop: %w", runErr)
	}

	printSummary(stdout, summary, termination)
	if reportPath != "" {
		fmt.Fprintf(stdout, "Session report: %s\n", reportPath)
	}
	return nil
}

func printSummary(stdout io.Writer, summary feedback.Summary, termination string) {
	fmt.Fprintf(stdout, "Feedback loop %s after %s\n", termination, summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(stdout, "  events: %d (dropped %d)\n", summary.Events, summary.Dropped)
	fmt.Fprintf(stdout, "  triggers: %d accepted, %d suppressed\n", summary.Accepted, summary.Suppressed)
	for _, name := range sortedKeys(summary.Classified) {
		fmt.Fprintf(stdout, "    %s: %d\n", name, summary.Classified[name])
	}
	fmt.Fprintf(stdout, "  pulses: %d performed, %d dropped\n", summary.Pulses, summary.PulsesDropped)
}

func printRunPlan(ctx *AppContext, stdout io.Writer) {
	cfg := ctx.Config
	fmt.Fprintf(stdout, "Resolved configuration (origin: %s)\n", cfg.Origin)
	fmt.Fprintf(stdout, "  haptics.enabled: %t\n", cfg.Haptics.Enabled)
	fmt.Fprintf(stdout, "  haptics.cooldown_ms: %d\n", cfg.Haptics.CooldownMillis)
	fmt.Fprintf(stdout, "  haptics.generic_bypasses_cooldown: %t\n", cfg.Haptics.GenericBypassesCooldown)
	fmt.Fprintf(stdout, "  haptics.cancel_on_disable: %t\n", cfg.Haptics.CancelOnDisable)
	fmt.Fprintf(stdout, "  haptics.queue_size: %d\n", cfg.Haptics.QueueSize)
	fmt.Fprintf(stdout, "  haptics.max_lateness_ms: %d\n", cfg.Haptics.MaxLatenessMillis)
	fmt.Fprintf(stdout, "  gesture.swipe_threshold: %g\n", cfg.Gesture.SwipeThreshold)
	fmt.Fprintf(stdout, "  gesture.tick_threshold: %g\n", cfg.Gesture.TickThreshold)
	fmt.Fprintf(stdout, "  gesture.tick_interval_ms: %d\n", cfg.Gesture.TickIntervalMillis)
	fmt.Fprintf(stdout, "  source.kind: %s\n", cfg.Source.Kind)
	switch cfg.Source.Kind {
	case "replay":
		fmt.Fprintf(stdout, "  source.replay_path: %s\n", cfg.Source.ReplayPath)
	case "nats":
		fmt.Fprintf(stdout, "  source.nats: %s %s\n", cfg.Source.NATS.URL, cfg.Source.NATS.Subject)
	}
	fmt.Fprintf(stdout, "  actuator.kind: %s\n", cfg.Actuator.Kind)
	fmt.Fprintf(stdout, "  logging.level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(stdout, "  logging.format: %s\n", cfg.Logging.Format)
	if cfg.Metrics.Listen != "" {
		fmt.Fprintf(stdout, "  metrics.listen: %s\n", cfg.Metrics.Listen)
	}
}

func componentStatuses() []session.ComponentStatus {
	src := events.DetectEnvironment(nil)
	act := actuator.DetectEnvironment()
	return []session.ComponentStatus{
		{Name: "event_source", Available: src.Available, Provider: src.Provider, Permission: src.Permission, Message: src.Message},
		{Name: "actuator", Available: act.Available, Provider: act.Provider, Message: act.Message},
	}
}

func boolFlag(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	value, err := strconv.ParseBool(f.Value.String())
	if err != nil {
		return false
	}
	return value
}

func durationFlag(fs *flag.FlagSet, name string) time.Duration {
	f := fs.Lookup(name)
	if f == nil {
		return 0
	}
	value, err := time.ParseDuration(f.Value.String())
	if err != nil {
		return 0
	}
	return value
}

func stringFlag(fs *flag.FlagSet, name string) string {
	f := fs.Lookup(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// toggleFeedback flips the controller and logs the resulting state.
func toggleFeedback(control *feedback.Controller, logger *slog.Logger) string {
	control.Toggle()
	state := control.State()
	logger.Info("feedback toggled", "state", state)
	return state
}

func permissionsGuidance() string {
	return permissions.ProbeAccessibility(nil).Guidance
}
