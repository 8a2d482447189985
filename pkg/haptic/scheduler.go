package haptic

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/offlinefirst/tactile/pkg/actuator"
	"github.com/offlinefirst/tactile/pkg/logging"
)

// Reasons a scheduled pulse is not performed.
const (
	DropCancelled   = "cancelled"
	DropLate        = "late"
	DropUnavailable = "unavailable"
	DropOverflow    = "overflow"
)

// ErrClosed is returned by Schedule after Close.
var ErrClosed = errors.New("scheduler closed")

// Observer receives pulse outcomes. Calls come from the goroutine running
// Fire.
type Observer interface {
	PulsePerformed(actuator.Kind)
	PulseDropped(reason string)
}

// Playback is one scheduled pattern. Cancelling it stops its remaining
// pulses.
type Playback struct {
	ID      uuid.UUID
	Start   time.Time
	Pattern Pattern

	cancelled atomic.Bool
	remaining atomic.Int32
}

// Cancel marks the playback so none of its pending pulses fire.
func (p *Playback) Cancel() { p.cancelled.Store(true) }

// Cancelled reports whether Cancel was called.
func (p *Playback) Cancelled() bool { return p.cancelled.Load() }

// Done reports whether every pulse was performed or dropped.
func (p *Playback) Done() bool { return p.remaining.Load() <= 0 }

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	Driver actuator.Driver
	Clock  func() time.Time
	// MaxLateness drops pulses that would fire later than this past their
	// due time. Zero disables the check.
	MaxLateness time.Duration
	// Capacity bounds the number of pending pulses. Zero means unbounded.
	Capacity int
	Observer Observer
	Logger   *slog.Logger
}

// Scheduler owns the pulse queue and is the only caller of the driver.
type Scheduler struct {
	driver      actuator.Driver
	clock       func() time.Time
	maxLateness time.Duration
	capacity    int
	observer    Observer
	logger      *slog.Logger
	failures    *logging.Sampler

	mu      sync.Mutex
	queue   Queue
	pending map[uuid.UUID]*Playback
	closed  bool
	wake    chan struct{}
}

// NewScheduler validates options and returns an idle scheduler.
func NewScheduler(opts SchedulerOptions) (*Scheduler, error) {
	if opts.Driver == nil {
		return nil, errors.New("actuator driver must be provided")
	}
	if opts.MaxLateness < 0 {
		return nil, errors.New("max lateness must not be negative")
	}
	if opts.Capacity < 0 {
		return nil, errors.New("capacity must not be negative")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scheduler{
		driver:      opts.Driver,
		clock:       clock,
		maxLateness: opts.MaxLateness,
		capacity:    opts.Capacity,
		observer:    opts.Observer,
		logger:      logger,
		failures:    logging.NewSampler(time.Second, 1),
		pending:     make(map[uuid.UUID]*Playback),
		wake:        make(chan struct{}, 1),
	}, nil
}

// Schedule enqueues every pulse of pattern at at+Delay. A pattern that does
// not fit in the remaining capacity is dropped whole.
func (s *Scheduler) Schedule(pattern Pattern, at time.Time) (*Playback, error) {
	pb := &Playback{ID: uuid.New(), Start: at, Pattern: pattern}
	pb.remaining.Store(int32(len(pattern)))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.capacity > 0 && s.queue.Len()+len(pattern) > s.capacity {
		s.mu.Unlock()
		for range pattern {
			s.dropped(DropOverflow)
		}
		pb.Cancel()
		pb.remaining.Store(0)
		return pb, nil
	}
	for _, p := range pattern {
		s.queue.Push(at.Add(p.Delay), p.Kind, pb)
	}
	if len(pattern) > 0 {
		s.pending[pb.ID] = pb
	}
	s.mu.Unlock()

	s.signal()
	return pb, nil
}

// Fire performs every pulse due at now, in order, and returns how many
// reached the driver.
func (s *Scheduler) Fire(now time.Time) int {
	s.mu.Lock()
	due := s.queue.PopDue(now)
	s.mu.Unlock()

	performed := 0
	for _, e := range due {
		if s.perform(e, now) {
			performed++
		}
		s.settle(e.Playback)
	}
	return performed
}

func (s *Scheduler) perform(e Entry, now time.Time) bool {
	if e.Playback != nil && e.Playback.Cancelled() {
		s.dropped(DropCancelled)
		return false
	}
	if s.maxLateness > 0 && now.Sub(e.Due) > s.maxLateness {
		s.dropped(DropLate)
		return false
	}
	if err := s.driver.Perform(e.Kind); err != nil {
		s.dropped(DropUnavailable)
		if ok, skipped := s.failures.AllowAt(now); ok {
			s.logger.Debug("pulse failed", "kind", e.Kind.String(), "error", err, "suppressed", skipped)
		}
		return false
	}
	if s.observer != nil {
		s.observer.PulsePerformed(e.Kind)
	}
	return true
}

func (s *Scheduler) settle(pb *Playback) {
	if pb == nil {
		return
	}
	if pb.remaining.Add(-1) > 0 {
		return
	}
	s.mu.Lock()
	delete(s.pending, pb.ID)
	s.mu.Unlock()
}

func (s *Scheduler) dropped(reason string) {
	if s.observer != nil {
		s.observer.PulseDropped(reason)
	}
}

// CancelAll cancels every pending playback and discards its queued pulses.
// It returns the number of playbacks cancelled.
func (s *Scheduler) CancelAll() int {
	s.mu.Lock()
	drained := s.queue.Drain()
	cancelled := len(s.pending)
	for id, pb := range s.pending {
		pb.Cancel()
		delete(s.pending, id)
	}
	s.mu.Unlock()

	for _, e := range drained {
		s.dropped(DropCancelled)
		if e.Playback != nil {
			e.Playback.remaining.Add(-1)
		}
	}
	s.signal()
	return cancelled
}

// Pending reports the number of queued pulses.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Close stops accepting new patterns. Run returns once the queue empties.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run fires pulses as they fall due until ctx is done, or until Close was
// called and nothing is left to play.
func (s *Scheduler) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		s.mu.Lock()
		next, ok := s.queue.Next()
		closed := s.closed
		s.mu.Unlock()

		if !ok && closed {
			return nil
		}

		var fire <-chan time.Time
		if ok {
			wait := next.Sub(s.clock())
			if wait <= 0 {
				s.Fire(s.clock())
				continue
			}
			timer.Reset(wait)
			fire = timer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
			timer.Stop()
		case <-fire:
			s.Fire(s.clock())
		}
	}
}
