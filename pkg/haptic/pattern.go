// Package haptic expands accepted triggers into timed pulse patterns and
// plays them through an actuator driver.
package haptic

import (
	"time"

	"github.com/offlinefirst/tactile/pkg/actuator"
	"github.com/offlinefirst/tactile/pkg/gesture"
)

// Pulse is one actuation, offset from the start of its pattern.
type Pulse struct {
	Kind  actuator.Kind
	Delay time.Duration
}

// Pattern is an ordered pulse sequence with non-decreasing delays.
type Pattern []Pulse

// Duration is the delay of the final pulse.
func (p Pattern) Duration() time.Duration {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1].Delay
}

var patterns = map[gesture.Trigger]Pattern{
	gesture.ShortShort: {
		{Kind: actuator.Alignment},
		{Kind: actuator.Alignment, Delay: 80 * time.Millisecond},
	},
	gesture.LongShortShort: {
		{Kind: actuator.Generic},
		{Kind: actuator.Alignment, Delay: 120 * time.Millisecond},
		{Kind: actuator.Alignment, Delay: 200 * time.Millisecond},
	},
	gesture.MissionControl: {
		{Kind: actuator.Alignment},
		{Kind: actuator.Generic, Delay: 40 * time.Millisecond},
	},
	gesture.Launchpad: {
		{Kind: actuator.Alignment},
		{Kind: actuator.Alignment, Delay: 60 * time.Millisecond},
		{Kind: actuator.Alignment, Delay: 120 * time.Millisecond},
	},
	gesture.Generic: {
		{Kind: actuator.Generic},
	},
}

// PatternFor returns a copy of the pattern played for t, or nil for an
// unknown trigger.
func PatternFor(t gesture.Trigger) Pattern {
	p, ok := patterns[t]
	if !ok {
		return nil
	}
	out := make(Pattern, len(p))
	copy(out, p)
	return out
}
