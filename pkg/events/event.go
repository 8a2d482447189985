package events

import (
	"fmt"
	"strings"
	"time"
)

// Kind discriminates the raw events the classifier understands.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindScroll
	KindRightClick
	KindPinch
	KindWorkspaceChange
)

// Quartz event type codes observed by the tap.
const (
	RawTypeRightMouseDown = 3
	RawTypeScrollWheel    = 22
	RawTypePinch          = 30
)

var kindNames = [...]string{
	KindUnknown:         "unknown",
	KindScroll:          "scroll",
	KindRightClick:      "right_click",
	KindPinch:           "pinch",
	KindWorkspaceChange: "workspace_change",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText. Unrecognised names
// decode to KindUnknown so foreign producers never break a stream.
func (k *Kind) UnmarshalText(text []byte) error {
	*k = ParseKind(string(text))
	return nil
}

// ParseKind maps a kind name to its value.
func ParseKind(name string) Kind {
	needle := strings.ToLower(strings.TrimSpace(name))
	for i, n := range kindNames {
		if n == needle {
			return Kind(i)
		}
	}
	return KindUnknown
}

// KindForRawType maps a Quartz event type code to a Kind. Code 30 is matched
// numerically; it has no named CGEventType constant.
func KindForRawType(code int) Kind {
	switch code {
	case RawTypeScrollWheel:
		return KindScroll
	case RawTypeRightMouseDown:
		return KindRightClick
	case RawTypePinch:
		return KindPinch
	default:
		return KindUnknown
	}
}

// Event describes a single raw input sample. Only Kind, DeltaY and Continuous
// feed classification; Time is the arrival instant.
type Event struct {
	Time       time.Time `json:"timestamp"`
	Kind       Kind      `json:"kind"`
	DeltaY     float64   `json:"delta_y,omitempty"`
	Continuous bool      `json:"continuous,omitempty"`
	RawType    int       `json:"raw_type,omitempty"`
}

// Scroll builds a scroll-wheel event.
func Scroll(at time.Time, dy float64, continuous bool) Event {
	return Event{Time: at, Kind: KindScroll, DeltaY: dy, Continuous: continuous, RawType: RawTypeScrollWheel}
}

// RightClick builds a right-mouse-down event.
func RightClick(at time.Time) Event {
	return Event{Time: at, Kind: KindRightClick, RawType: RawTypeRightMouseDown}
}

// Pinch builds a pinch gesture event.
func Pinch(at time.Time) Event {
	return Event{Time: at, Kind: KindPinch, RawType: RawTypePinch}
}

// WorkspaceChange builds an active-space-changed notification event.
func WorkspaceChange(at time.Time) Event {
	return Event{Time: at, Kind: KindWorkspaceChange}
}
