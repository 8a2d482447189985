package gesture

import "fmt"

// Trigger is a semantic feedback cue produced by the classifier.
type Trigger uint8

const (
	// ShortShort follows a secondary click.
	ShortShort Trigger = iota + 1
	// LongShortShort follows a workspace (space) change.
	LongShortShort
	// MissionControl follows a fast continuous upward swipe.
	MissionControl
	// Launchpad follows a pinch.
	Launchpad
	// Generic is the scroll detent tick.
	Generic
)

// All lists every trigger in declaration order.
var All = []Trigger{ShortShort, LongShortShort, MissionControl, Launchpad, Generic}

var triggerNames = map[Trigger]string{
	ShortShort:     "short_short",
	LongShortShort: "long_short_short",
	MissionControl: "mission_control",
	Launchpad:      "launchpad",
	Generic:        "generic",
}

func (t Trigger) String() string {
	if name, ok := triggerNames[t]; ok {
		return name
	}
	return fmt.Sprintf("trigger(%d)", uint8(t))
}

// ParseTrigger looks a trigger up by the name String returns.
func ParseTrigger(name string) (Trigger, bool) {
	for t, n := range triggerNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}
