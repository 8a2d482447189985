package events

import (
	"context"
	"time"
)

// SyntheticOptions configures the scripted source.
type SyntheticOptions struct {
	Clock   func() time.Time
	Sleeper Sleeper
	// Repeat loops the script until ctx is done.
	Repeat bool
}

type scriptStep struct {
	at time.Duration
	ev Event
}

// syntheticScript exercises every trigger once, spaced wider than the default
// cooldown, followed by a burst of small scrolls.
var syntheticScript = []scriptStep{
	{at: 0, ev: Event{Kind: KindRightClick, RawType: RawTypeRightMouseDown}},
	{at: 600 * time.Millisecond, ev: Event{Kind: KindScroll, DeltaY: -3, RawType: RawTypeScrollWheel}},
	{at: 620 * time.Millisecond, ev: Event{Kind: KindScroll, DeltaY: -4, RawType: RawTypeScrollWheel}},
	{at: 1200 * time.Millisecond, ev: Event{Kind: KindPinch, RawType: RawTypePinch}},
	{at: 1900 * time.Millisecond, ev: Event{Kind: KindScroll, DeltaY: 62, Continuous: true, RawType: RawTypeScrollWheel}},
	{at: 2600 * time.Millisecond, ev: Event{Kind: KindWorkspaceChange}},
	{at: 3300 * time.Millisecond, ev: Event{Kind: KindScroll, DeltaY: 2, Continuous: true, RawType: RawTypeScrollWheel}},
	{at: 3310 * time.Millisecond, ev: Event{Kind: KindScroll, DeltaY: 2, Continuous: true, RawType: RawTypeScrollWheel}},
	{at: 3320 * time.Millisecond, ev: Event{Kind: KindScroll, DeltaY: 2, Continuous: true, RawType: RawTypeScrollWheel}},
	{at: 3330 * time.Millisecond, ev: Event{Kind: KindScroll, DeltaY: 2, Continuous: true, RawType: RawTypeScrollWheel}},
	{at: 3340 * time.Millisecond, ev: Event{Kind: KindScroll, DeltaY: 2, Continuous: true, RawType: RawTypeScrollWheel}},
}

// syntheticPeriod is the script length used when repeating.
const syntheticPeriod = 4 * time.Second

type syntheticSource struct {
	clock  func() time.Time
	sleep  Sleeper
	repeat bool
}

// NewSyntheticSource returns a deterministic scripted source. Events are
// stamped with the clock at emission and paced with the sleeper.
func NewSyntheticSource(opts SyntheticOptions) EventSource {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	sleep := opts.Sleeper
	if sleep == nil {
		sleep = DefaultSleeper
	}
	return &syntheticSource{clock: clock, sleep: sleep, repeat: opts.Repeat}
}

// SyntheticScript returns the scripted events anchored at start.
func SyntheticScript(start time.Time) []Event {
	out := make([]Event, len(syntheticScript))
	for i, step := range syntheticScript {
		ev := step.ev
		ev.Time = start.Add(step.at)
		out[i] = ev
	}
	return out
}

func (s *syntheticSource) Stream(ctx context.Context, emit func(Event) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		var elapsed time.Duration
		for _, step := range syntheticScript {
			if err := ctx.Err(); err != nil {
				return err
			}
			if wait := step.at - elapsed; wait > 0 {
				if err := s.sleep(ctx, wait); err != nil {
					return err
				}
				elapsed = step.at
			}
			ev := step.ev
			ev.Time = s.clock()
			if err := emit(ev); err != nil {
				return err
			}
		}
		if !s.repeat {
			return nil
		}
		if err := s.sleep(ctx, syntheticPeriod-elapsed); err != nil {
			return err
		}
	}
}
