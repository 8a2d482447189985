// Package actuator performs single tactile pulses on the host's force
// feedback hardware.
package actuator

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Kind is the pulse flavour. Values match NSHapticFeedbackPattern.
type Kind uint8

const (
	Generic   Kind = 0
	Alignment Kind = 1
)

func (k Kind) String() string {
	switch k {
	case Generic:
		return "generic"
	case Alignment:
		return "alignment"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Driver performs one pulse. Implementations are called from a single
// goroutine and must not block for long.
type Driver interface {
	Perform(Kind) error
}

// DriverFunc adapts a function to the Driver interface.
type DriverFunc func(Kind) error

// Perform calls f.
func (f DriverFunc) Perform(k Kind) error { return f(k) }

// Driver names accepted by Open.
const (
	DriverNative = "native"
	DriverLog    = "log"
	DriverNone   = "none"
)

// Open returns the driver registered under name.
func Open(name string, logger *slog.Logger) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case DriverNative, "":
		return NewNative()
	case DriverLog:
		return NewLogDriver(logger), nil
	case DriverNone:
		return Discard, nil
	default:
		return nil, fmt.Errorf("unknown actuator driver %q", name)
	}
}

// Discard accepts and ignores every pulse.
var Discard Driver = DriverFunc(func(Kind) error { return nil })

// NewLogDriver returns a driver that logs each pulse at debug level.
func NewLogDriver(logger *slog.Logger) Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return DriverFunc(func(k Kind) error {
		logger.Debug("pulse", "kind", k.String())
		return nil
	})
}

// Performed is a pulse observed by a Recorder.
type Performed struct {
	Kind Kind
	At   time.Time
}

// Recorder remembers every pulse it performs. Fail, when set, is returned
// instead of recording.
type Recorder struct {
	Clock func() time.Time
	Fail  error

	mu    sync.Mutex
	items []Performed
}

// Perform records k.
func (r *Recorder) Perform(k Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	clock := r.Clock
	if clock == nil {
		clock = time.Now
	}
	r.items = append(r.items, Performed{Kind: k, At: clock()})
	return nil
}

// Pulses returns a copy of the recorded pulses.
func (r *Recorder) Pulses() []Performed {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Performed, len(r.items))
	copy(out, r.items)
	return out
}

// Kinds returns just the kinds of the recorded pulses.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Kind, len(r.items))
	for i, p := range r.items {
		out[i] = p.Kind
	}
	return out
}
