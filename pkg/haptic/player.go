package haptic

import (
	"time"

	"github.com/offlinefirst/tactile/pkg/gesture"
)

// DefaultCooldown is the global gap enforced between accepted triggers.
const DefaultCooldown = 500 * time.Millisecond

// PlayerOptions configures the cooldown gate.
type PlayerOptions struct {
	// Cooldown is the minimum gap after an accepted trigger. Zero selects
	// DefaultCooldown; negative disables the gate.
	Cooldown time.Duration
	// GenericBypassesCooldown lets detent ticks through unconditionally
	// without resetting the gate.
	GenericBypassesCooldown bool
}

// Player applies the global cooldown. It is not safe for concurrent use.
type Player struct {
	cooldown time.Duration
	bypass   bool

	last     time.Time
	accepted bool
}

// NewPlayer returns a player that has not accepted anything yet.
func NewPlayer(opts PlayerOptions) *Player {
	cooldown := opts.Cooldown
	if cooldown == 0 {
		cooldown = DefaultCooldown
	}
	return &Player{cooldown: cooldown, bypass: opts.GenericBypassesCooldown}
}

// Accept reports whether t may play at now and, if so, its pattern. A
// trigger within the cooldown of the last accepted one is dropped whole.
func (p *Player) Accept(t gesture.Trigger, now time.Time) (Pattern, bool) {
	pattern := PatternFor(t)
	if pattern == nil {
		return nil, false
	}
	if p.bypass && t == gesture.Generic {
		return pattern, true
	}
	if p.accepted && p.cooldown > 0 && now.Sub(p.last) <= p.cooldown {
		return nil, false
	}
	p.accepted = true
	p.last = now
	return pattern, true
}

// Last returns the instant of the last accepted trigger.
func (p *Player) Last() (time.Time, bool) {
	return p.last, p.accepted
}
