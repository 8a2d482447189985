package events

import "time"

// TapOptions configures the platform event tap.
type TapOptions struct {
	Clock func() time.Time
}

// NewTapSource returns the platform's live input source: the Quartz event
// tap on darwin, the repeating synthetic script elsewhere.
func NewTapSource(opts TapOptions) EventSource {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return defaultTapSource(clock)
}
