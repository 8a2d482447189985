package events

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// ReplayOptions configures a JSONL replay source.
type ReplayOptions struct {
	Path string
	// Realtime paces emission by the recorded inter-event gaps.
	Realtime bool
	Sleeper  Sleeper
}

type replaySource struct {
	path     string
	realtime bool
	sleep    Sleeper
}

// NewReplaySource returns a source that re-emits a recorded JSONL file.
func NewReplaySource(opts ReplayOptions) (EventSource, error) {
	if opts.Path == "" {
		return nil, errors.New("replay path must not be empty")
	}
	sleep := opts.Sleeper
	if sleep == nil {
		sleep = DefaultSleeper
	}
	return &replaySource{path: opts.Path, realtime: opts.Realtime, sleep: sleep}, nil
}

func (s *replaySource) Stream(ctx context.Context, emit func(Event) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	file, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open replay file: %w", err)
	}
	defer file.Close()

	var prev time.Time
	return Decode(file, func(ev Event) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.realtime && !prev.IsZero() && ev.Time.After(prev) {
			if err := s.sleep(ctx, ev.Time.Sub(prev)); err != nil {
				return err
			}
		}
		if !ev.Time.IsZero() {
			prev = ev.Time
		}
		return emit(ev)
	})
}

// ReadFile loads every event from a JSONL file.
func ReadFile(path string) ([]Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer file.Close()

	var out []Event
	if err := Decode(file, func(ev Event) error {
		out = append(out, ev)
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// Decode parses JSONL from r, calling fn per event. Blank lines are skipped;
// a malformed line aborts with its line number.
func Decode(r io.Reader, fn func(Event) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("line %d: decode event: %w", line, err)
		}
		if ev.Kind == KindUnknown && ev.RawType != 0 {
			ev.Kind = KindForRawType(ev.RawType)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	return nil
}
