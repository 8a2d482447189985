package events

import (
	"context"
	"time"
)

// EventSource emits raw input events. Implementations call emit once per
// event in arrival order and stop when ctx is done or emit returns an error.
// emit must not be called concurrently.
type EventSource interface {
	Stream(ctx context.Context, emit func(Event) error) error
}

// EventSourceFunc adapts a function literal to the EventSource interface.
type EventSourceFunc func(ctx context.Context, emit func(Event) error) error

// Stream calls the underlying function.
func (f EventSourceFunc) Stream(ctx context.Context, emit func(Event) error) error {
	return f(ctx, emit)
}

// SliceSource replays a fixed list of events without pacing.
func SliceSource(evs []Event) EventSource {
	return EventSourceFunc(func(ctx context.Context, emit func(Event) error) error {
		if ctx == nil {
			ctx = context.Background()
		}
		for _, ev := range evs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := emit(ev); err != nil {
				return err
			}
		}
		return nil
	})
}

// Sleeper blocks for the given duration or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// DefaultSleeper waits on a timer.
func DefaultSleeper(ctx context.Context, wait time.Duration) error {
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
