package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RecorderOptions controls recorder behaviour.
type RecorderOptions struct {
	Clock  func() time.Time
	Source EventSource
	// Kinds restricts capture to the listed kinds; empty records everything.
	Kinds []Kind
}

// Recorder persists a raw event stream as JSONL for later replay.
type Recorder struct {
	clock  func() time.Time
	source EventSource
	allow  map[Kind]struct{}
}

// RecordResult reports the file produced by a capture session.
type RecordResult struct {
	Path          string
	EventCount    int
	FilteredCount int
	ByKind        map[string]int
	CaptureStart  time.Time
	CaptureEnd    time.Time
}

// NewRecorder validates options and constructs a recorder.
func NewRecorder(opts RecorderOptions) (*Recorder, error) {
	if opts.Source == nil {
		return nil, errors.New("event source must be provided")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	var allow map[Kind]struct{}
	if len(opts.Kinds) > 0 {
		allow = make(map[Kind]struct{}, len(opts.Kinds))
		for _, k := range opts.Kinds {
			if k == KindUnknown {
				return nil, errors.New("cannot filter on unknown kind")
			}
			allow[k] = struct{}{}
		}
	}
	return &Recorder{clock: clock, source: opts.Source, allow: allow}, nil
}

// Capture streams events into path until the source ends or ctx is done.
// Cancellation is the normal way to end a live capture, so a cancelled
// context still yields the events written so far.
func (r *Recorder) Capture(ctx context.Context, path string) (RecordResult, error) {
	if path == "" {
		return RecordResult{}, errors.New("destination path must not be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return RecordResult{}, fmt.Errorf("ensure destination: %w", err)
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return RecordResult{}, fmt.Errorf("create events file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetEscapeHTML(false)

	start := r.clock().UTC()
	result := RecordResult{Path: path, ByKind: make(map[string]int), CaptureStart: start, CaptureEnd: start}
	streamErr := r.source.Stream(ctx, func(ev Event) error {
		if ev.Time.IsZero() {
			ev.Time = r.clock()
		}
		if r.allow != nil {
			if _, ok := r.allow[ev.Kind]; !ok {
				result.FilteredCount++
				return nil
			}
		}
		if err := encoder.Encode(ev); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
		if result.EventCount == 0 {
			result.CaptureStart = ev.Time.UTC()
		}
		result.EventCount++
		result.ByKind[ev.Kind.String()]++
		result.CaptureEnd = ev.Time.UTC()
		return nil
	})

	if err := file.Close(); err != nil {
		return RecordResult{}, fmt.Errorf("close events file: %w", err)
	}

	if streamErr != nil && !errors.Is(streamErr, context.Canceled) && !errors.Is(streamErr, context.DeadlineExceeded) {
		return result, fmt.Errorf("stream events: %w", streamErr)
	}
	return result, nil
}
