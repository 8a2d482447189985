// Package feedback wires an event source, the gesture classifier, the
// cooldown gate and the pulse scheduler into a running feedback loop.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/offlinefirst/tactile/pkg/actuator"
	"github.com/offlinefirst/tactile/pkg/config"
	"github.com/offlinefirst/tactile/pkg/events"
	"github.com/offlinefirst/tactile/pkg/gesture"
	"github.com/offlinefirst/tactile/pkg/haptic"
	"github.com/offlinefirst/tactile/pkg/logging"
	"github.com/offlinefirst/tactile/pkg/metrics"
)

// Options controls the feedback loop.
type Options struct {
	Config  config.Config
	Source  events.EventSource
	Driver  actuator.Driver
	Logger  *slog.Logger
	Clock   func() time.Time
	Control *Controller
	Metrics *metrics.Metrics
}

// Summary reports what a run did.
type Summary struct {
	Events        int
	Classified    map[string]int
	Accepted      int
	Suppressed    int
	Dropped       int
	Pulses        int
	PulsesDropped int
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Run streams events until the source ends, ctx is cancelled or the
// controller is killed. Pulses already scheduled when the source ends still
// play before Run returns.
func Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.Logger == nil {
		return Summary{}, errors.New("logger must be provided")
	}
	if opts.Source == nil {
		return Summary{}, errors.New("event source must be provided")
	}
	if opts.Driver == nil {
		return Summary{}, errors.New("actuator driver must be provided")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	cfg := opts.Config

	classifier, err := newClassifier(cfg.Gesture, clock)
	if err != nil {
		return Summary{}, fmt.Errorf("initialise classifier: %w", err)
	}
	player := haptic.NewPlayer(playerOptions(cfg.Haptics))

	observer := &pulseCounter{next: opts.Metrics}
	scheduler, err := haptic.NewScheduler(haptic.SchedulerOptions{
		Driver:      opts.Driver,
		Clock:       clock,
		MaxLateness: time.Duration(cfg.Haptics.MaxLatenessMillis) * time.Millisecond,
		Capacity:    max(cfg.Haptics.QueueSize, 0),
		Observer:    observer,
		Logger:      opts.Logger,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("initialise scheduler: %w", err)
	}

	controller := opts.Control
	if controller == nil {
		controller = NewController(cfg.Haptics.Enabled)
	}
	if cfg.Haptics.CancelOnDisable {
		controller.OnDisable(func() {
			if n := scheduler.CancelAll(); n > 0 {
				opts.Logger.Debug("cancelled pending playbacks", "count", n)
			}
		})
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-controller.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	size := cfg.Haptics.QueueSize
	if size <= 0 {
		size = config.Default().Haptics.QueueSize
	}
	queue := make(chan events.Event, size)
	var dropped atomic.Int64
	dropLog := logging.NewSampler(time.Second, 1)

	summary := Summary{Classified: make(map[string]int), StartedAt: clock().UTC()}
	opts.Logger.Info("feedback loop starting",
		"state", controller.State(),
		"cooldown_ms", cfg.Haptics.CooldownMillis,
		"generic_bypasses_cooldown", cfg.Haptics.GenericBypassesCooldown)

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer close(queue)
		stamp := stamper{clock: clock}
		err := opts.Source.Stream(gctx, func(ev events.Event) error {
			ev = stamp.apply(ev)
			select {
			case queue <- ev:
				opts.Metrics.SetQueueDepth(len(queue))
			default:
				n := dropped.Add(1)
				opts.Metrics.EventDropped()
				if ok, skipped := dropLog.Allow(); ok {
					opts.Logger.Debug("event queue full, dropping event", "kind", ev.Kind.String(), "dropped", n, "suppressed", skipped)
				}
			}
			return nil
		})
		if err != nil && !isCancellation(err) {
			return fmt.Errorf("event source: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		defer scheduler.Close()
		w := worker{
			classifier: classifier,
			player:     player,
			scheduler:  scheduler,
			control:    controller,
			metrics:    opts.Metrics,
			logger:     opts.Logger,
			clock:      clock,
			summary:    &summary,
			suppressed: logging.NewSampler(time.Second, 5),
		}
		for ev := range queue {
			w.handle(ev)
		}
		return nil
	})

	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	err = g.Wait()
	summary.Dropped = int(dropped.Load())
	summary.Pulses = int(observer.performed.Load())
	summary.PulsesDropped = int(observer.dropped.Load())
	summary.FinishedAt = clock().UTC()

	if killErr := controller.Err(); killErr != nil {
		return summary, killErr
	}
	if err != nil && !isCancellation(err) {
		return summary, err
	}

	opts.Logger.Info("feedback loop stopped",
		"state", controller.State(),
		"events", summary.Events,
		"accepted", summary.Accepted,
		"suppressed", summary.Suppressed,
		"dropped", summary.Dropped,
		"pulses", summary.Pulses)
	return summary, nil
}

type worker struct {
	classifier *gesture.Classifier
	player     *haptic.Player
	scheduler  *haptic.Scheduler
	control    *Controller
	metrics    *metrics.Metrics
	logger     *slog.Logger
	clock      func() time.Time
	summary    *Summary
	suppressed *logging.Sampler
	buf        [1]gesture.Trigger
}

func (w *worker) handle(ev events.Event) {
	w.summary.Events++
	w.metrics.Event(ev.Kind.String())
	if !w.control.Enabled() {
		return
	}

	start := w.clock()
	triggers := w.classifier.Classify(w.buf[:0], ev)
	w.metrics.ObserveClassify(w.clock().Sub(start))

	for _, t := range triggers {
		w.summary.Classified[t.String()]++
		pattern, ok := w.player.Accept(t, ev.Time)
		w.metrics.Trigger(t.String(), ok)
		if !ok {
			w.summary.Suppressed++
			if allow, skipped := w.suppressed.AllowAt(w.clock()); allow {
				w.logger.Debug("trigger suppressed by cooldown", "trigger", t.String(), "suppressed", skipped)
			}
			continue
		}
		w.summary.Accepted++
		pb, err := w.scheduler.Schedule(pattern, w.clock())
		if err != nil {
			w.logger.Debug("pattern not scheduled", "trigger", t.String(), "error", err)
			continue
		}
		w.logger.Debug("trigger accepted", "trigger", t.String(), "playback", pb.ID.String(), "pulses", len(pattern))
	}
}

// stamper fills in missing event times. An event without a time inherits
// the previous event's time so recorded streams keep their own timeline;
// only a leading untimed event is stamped from the clock.
type stamper struct {
	clock func() time.Time
	last  time.Time
}

func (s *stamper) apply(ev events.Event) events.Event {
	if ev.Time.IsZero() {
		switch {
		case !s.last.IsZero():
			ev.Time = s.last
		case s.clock != nil:
			ev.Time = s.clock()
		}
	}
	s.last = ev.Time
	return ev
}

// pulseCounter tallies scheduler outcomes for the summary and forwards them
// to the metrics.
type pulseCounter struct {
	next      *metrics.Metrics
	performed atomic.Int64
	dropped   atomic.Int64
}

func (p *pulseCounter) PulsePerformed(k actuator.Kind) {
	p.performed.Add(1)
	p.next.PulsePerformed(k)
}

func (p *pulseCounter) PulseDropped(reason string) {
	p.dropped.Add(1)
	p.next.PulseDropped(reason)
}

func newClassifier(cfg config.GestureConfig, clock func() time.Time) (*gesture.Classifier, error) {
	return gesture.New(gesture.Options{
		SwipeThreshold: cfg.SwipeThreshold,
		TickThreshold:  cfg.TickThreshold,
		TickInterval:   time.Duration(cfg.TickIntervalMillis) * time.Millisecond,
		Clock:          clock,
	})
}

func playerOptions(cfg config.HapticsConfig) haptic.PlayerOptions {
	cooldown := time.Duration(cfg.CooldownMillis) * time.Millisecond
	if cooldown == 0 {
		// An explicit zero in the config turns the gate off.
		cooldown = -1
	}
	return haptic.PlayerOptions{Cooldown: cooldown, GenericBypassesCooldown: cfg.GenericBypassesCooldown}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
