//go:build !darwin

package events

import "time"

func defaultTapSource(clock func() time.Time) EventSource {
	return NewSyntheticSource(SyntheticOptions{Clock: clock, Repeat: true})
}
