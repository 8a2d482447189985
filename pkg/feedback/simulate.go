package feedback

import (
	"time"

	"github.com/offlinefirst/tactile/pkg/actuator"
	"github.com/offlinefirst/tactile/pkg/events"
	"github.com/offlinefirst/tactile/pkg/gesture"
	"github.com/offlinefirst/tactile/pkg/haptic"
)

// TimedPulse is a pulse placed on the event timeline.
type TimedPulse struct {
	At   time.Time
	Kind actuator.Kind
}

// Step records what one event did. Trigger is zero when the event produced
// no trigger.
type Step struct {
	Event    events.Event
	Trigger  gesture.Trigger
	Accepted bool
	Pulses   []TimedPulse
}

// Timeline is the outcome of a simulated run.
type Timeline struct {
	Steps   []Step
	Summary Summary
}

// Pulses flattens every accepted pulse in due order. Steps are already in
// event order and patterns never reorder, so only overlaps need merging.
func (t Timeline) Pulses() []TimedPulse {
	var out []TimedPulse
	for _, s := range t.Steps {
		for _, p := range s.Pulses {
			i := len(out)
			for i > 0 && out[i-1].At.After(p.At) {
				i--
			}
			out = append(out, TimedPulse{})
			copy(out[i+1:], out[i:])
			out[i] = p
		}
	}
	return out
}

// Simulate runs evs through the classifier and cooldown gate without a
// driver. Pulses are stamped relative to each event's time. Events without
// a time inherit the previous event's time, as in Run; a leading untimed
// event uses opts.Clock when set.
func Simulate(evs []events.Event, opts Options) Timeline {
	cfg := opts.Config
	var last time.Time
	classifier, err := newClassifier(cfg.Gesture, func() time.Time { return last })
	if err != nil {
		classifier, _ = gesture.New(gesture.Options{})
	}
	player := haptic.NewPlayer(playerOptions(cfg.Haptics))

	tl := Timeline{Summary: Summary{Classified: make(map[string]int)}}
	if len(evs) > 0 {
		tl.Summary.StartedAt = evs[0].Time.UTC()
	}

	stamp := stamper{clock: opts.Clock}
	buf := make([]gesture.Trigger, 0, 1)
	for _, ev := range evs {
		ev = stamp.apply(ev)
		last = ev.Time
		tl.Summary.Events++

		if !cfg.Haptics.Enabled {
			tl.Steps = append(tl.Steps, Step{Event: ev})
			continue
		}
		buf = classifier.Classify(buf[:0], ev)
		if len(buf) == 0 {
			tl.Steps = append(tl.Steps, Step{Event: ev})
			continue
		}
		for _, trig := range buf {
			tl.Summary.Classified[trig.String()]++
			step := Step{Event: ev, Trigger: trig}
			pattern, ok := player.Accept(trig, ev.Time)
			if ok {
				step.Accepted = true
				tl.Summary.Accepted++
				tl.Summary.Pulses += len(pattern)
				for _, p := range pattern {
					step.Pulses = append(step.Pulses, TimedPulse{At: ev.Time.Add(p.Delay), Kind: p.Kind})
				}
			} else {
				tl.Summary.Suppressed++
			}
			tl.Steps = append(tl.Steps, step)
		}
	}
	tl.Summary.FinishedAt = last.UTC()
	return tl
}
