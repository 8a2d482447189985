// Package gesture turns raw input events into feedback triggers.
//
// A Classifier is not safe for concurrent use; the feedback engine gives it
// a single owning goroutine.
package gesture

import (
	"errors"
	"math"
	"time"

	"github.com/offlinefirst/tactile/pkg/events"
)

const (
	DefaultSwipeThreshold = 45.0
	DefaultTickThreshold  = 5.0
	DefaultTickInterval   = 30 * time.Millisecond
)

// Options tunes the classifier. Zero values select the defaults.
type Options struct {
	// SwipeThreshold is the continuous scroll delta a swipe must exceed.
	SwipeThreshold float64
	// TickThreshold is the accumulated scroll mass a detent tick must exceed.
	TickThreshold float64
	// TickInterval is the minimum spacing between two ticks.
	TickInterval time.Duration
	// Clock stamps events that arrive without a timestamp.
	Clock func() time.Time
}

// State is a snapshot of the classifier's scroll accounting.
type State struct {
	Accumulator float64
	LastTick    time.Time
}

// Classifier maps events to triggers.
type Classifier struct {
	swipe    float64
	tick     float64
	interval time.Duration
	clock    func() time.Time

	acc      float64
	lastTick time.Time
	ticked   bool
}

// New validates options and returns a classifier with a zeroed accumulator.
func New(opts Options) (*Classifier, error) {
	if opts.SwipeThreshold < 0 || math.IsNaN(opts.SwipeThreshold) {
		return nil, errors.New("swipe threshold must not be negative")
	}
	if opts.TickThreshold < 0 || math.IsNaN(opts.TickThreshold) {
		return nil, errors.New("tick threshold must not be negative")
	}
	if opts.TickInterval < 0 {
		return nil, errors.New("tick interval must not be negative")
	}
	c := &Classifier{
		swipe:    opts.SwipeThreshold,
		tick:     opts.TickThreshold,
		interval: opts.TickInterval,
		clock:    opts.Clock,
	}
	if c.swipe == 0 {
		c.swipe = DefaultSwipeThreshold
	}
	if c.tick == 0 {
		c.tick = DefaultTickThreshold
	}
	if c.interval == 0 {
		c.interval = DefaultTickInterval
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	return c, nil
}

// Classify appends the trigger ev produces, if any, to dst.
func (c *Classifier) Classify(dst []Trigger, ev events.Event) []Trigger {
	switch ev.Kind {
	case events.KindRightClick:
		return append(dst, ShortShort)
	case events.KindPinch:
		return append(dst, Launchpad)
	case events.KindWorkspaceChange:
		return append(dst, LongShortShort)
	case events.KindScroll:
		now := ev.Time
		if now.IsZero() {
			now = c.clock()
		}
		if t, ok := c.scroll(ev.DeltaY, ev.Continuous, now); ok {
			return append(dst, t)
		}
	}
	return dst
}

func (c *Classifier) scroll(dy float64, continuous bool, now time.Time) (Trigger, bool) {
	if math.IsNaN(dy) || math.IsInf(dy, 0) {
		return 0, false
	}
	if continuous && dy > c.swipe {
		c.acc = 0
		return MissionControl, true
	}
	c.acc += math.Abs(dy)
	if c.acc <= c.tick {
		return 0, false
	}
	if c.ticked && now.Sub(c.lastTick) <= c.interval {
		return 0, false
	}
	c.ticked = true
	c.lastTick = now
	c.acc = 0
	return Generic, true
}

// State returns the current accumulator and last tick instant.
func (c *Classifier) State() State {
	return State{Accumulator: c.acc, LastTick: c.lastTick}
}

// Reset zeroes the accumulator and forgets the last tick.
func (c *Classifier) Reset() {
	c.acc = 0
	c.lastTick = time.Time{}
	c.ticked = false
}
