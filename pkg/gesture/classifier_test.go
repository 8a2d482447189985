package gesture

import (
	"math"
	"testing"
	"time"

	"github.com/offlinefirst/tactile/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return base.Add(time.Duration(ms) * time.Millisecond) }

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(Options{})
	require.NoError(t, err)
	return c
}

func classify(c *Classifier, ev events.Event) []Trigger {
	return c.Classify(nil, ev)
}

func TestDiscreteEventsMapDirectly(t *testing.T) {
	c := newClassifier(t)
	assert.Equal(t, []Trigger{ShortShort}, classify(c, events.RightClick(at(0))))
	assert.Equal(t, []Trigger{Launchpad}, classify(c, events.Pinch(at(0))))
	assert.Equal(t, []Trigger{LongShortShort}, classify(c, events.WorkspaceChange(at(0))))
	assert.Empty(t, classify(c, events.Event{Time: at(0), Kind: events.KindUnknown}))
	assert.Equal(t, State{}, c.State(), "discrete events must not touch scroll state")
}

func TestContinuousSwipeAboveThresholdIsMissionControl(t *testing.T) {
	c := newClassifier(t)
	assert.Empty(t, classify(c, events.Scroll(at(0), 3, false)))
	require.InDelta(t, 3, c.State().Accumulator, 1e-9)

	assert.Equal(t, []Trigger{MissionControl}, classify(c, events.Scroll(at(10), 50, true)))
	assert.Zero(t, c.State().Accumulator)
}

func TestSwipeThresholdIsStrict(t *testing.T) {
	c := newClassifier(t)
	got := classify(c, events.Scroll(at(0), 45, true))
	assert.NotContains(t, got, MissionControl)
	// 45 > 5 and no previous tick, so the mass becomes a detent tick.
	assert.Equal(t, []Trigger{Generic}, got)

	c.Reset()
	c.tick = 100
	assert.Empty(t, classify(c, events.Scroll(at(0), 45, true)))
	assert.InDelta(t, 45, c.State().Accumulator, 1e-9)
}

func TestNonContinuousLargeScrollIsNotSwipe(t *testing.T) {
	c := newClassifier(t)
	assert.Equal(t, []Trigger{Generic}, classify(c, events.Scroll(at(0), 80, false)))
}

func TestNegativeSwipeIsAccumulated(t *testing.T) {
	c := newClassifier(t)
	assert.Equal(t, []Trigger{Generic}, classify(c, events.Scroll(at(0), -80, true)))
	assert.Zero(t, c.State().Accumulator)
}

func TestAccumulationUsesMagnitude(t *testing.T) {
	c := newClassifier(t)
	assert.Empty(t, classify(c, events.Scroll(at(0), -3, false)))
	assert.Equal(t, []Trigger{Generic}, classify(c, events.Scroll(at(40), 4, false)))
	state := c.State()
	assert.Zero(t, state.Accumulator)
	assert.Equal(t, at(40), state.LastTick)
}

func TestTickThresholdIsStrict(t *testing.T) {
	c := newClassifier(t)
	assert.Empty(t, classify(c, events.Scroll(at(0), 5, false)))
	assert.InDelta(t, 5, c.State().Accumulator, 1e-9)
}

func TestSpacedScrollsEmitOneTickPerThreshold(t *testing.T) {
	c := newClassifier(t)
	var got []Trigger
	for i := 0; i < 10; i++ {
		got = c.Classify(got, events.Scroll(at(i*40), 6, false))
	}
	assert.Len(t, got, 10)
	for _, tr := range got {
		assert.Equal(t, Generic, tr)
	}
}

func TestTickDiscardsMassAboveThreshold(t *testing.T) {
	c := newClassifier(t)
	var got []Trigger
	for i := 0; i < 12; i++ {
		got = c.Classify(got, events.Scroll(at(i*40), 5, false))
	}
	assert.Len(t, got, 6, "each tick resets the accumulator to zero")
	assert.Zero(t, c.State().Accumulator)
}

func TestFastScrollsAccumulateWithoutEarlyTicks(t *testing.T) {
	c := newClassifier(t)
	require.Equal(t, []Trigger{Generic}, classify(c, events.Scroll(at(0), 6, false)))

	// Inside the tick interval the mass grows but nothing fires.
	for i := 1; i <= 3; i++ {
		assert.Empty(t, classify(c, events.Scroll(at(i*10), 6, false)))
	}
	assert.InDelta(t, 18, c.State().Accumulator, 1e-9)

	// Exactly at the interval is still too early.
	assert.Empty(t, classify(c, events.Scroll(at(30), 1, false)))

	assert.Equal(t, []Trigger{Generic}, classify(c, events.Scroll(at(31), 1, false)))
	assert.Zero(t, c.State().Accumulator)
}

func TestZeroAndNonFiniteDeltasContributeNothing(t *testing.T) {
	c := newClassifier(t)
	_ = classify(c, events.Scroll(at(0), 2, false))
	for _, dy := range []float64{0, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.Empty(t, classify(c, events.Scroll(at(10), dy, true)))
	}
	assert.InDelta(t, 2, c.State().Accumulator, 1e-9)
}

func TestFirstTickAtZeroTimeIsAccepted(t *testing.T) {
	c := newClassifier(t)
	ev := events.Scroll(time.Unix(0, 0), 10, false)
	assert.Equal(t, []Trigger{Generic}, classify(c, ev))
}

func TestMissingTimestampUsesClock(t *testing.T) {
	c, err := New(Options{Clock: func() time.Time { return at(500) }})
	require.NoError(t, err)
	_ = classify(c, events.Event{Kind: events.KindScroll, DeltaY: 9})
	assert.Equal(t, at(500), c.State().LastTick)
}

func TestClassifyAppendsWithoutAllocating(t *testing.T) {
	c := newClassifier(t)
	buf := make([]Trigger, 0, 1)
	ev := events.RightClick(at(0))
	allocs := testing.AllocsPerRun(100, func() {
		buf = c.Classify(buf[:0], ev)
	})
	assert.Zero(t, allocs)
}

func TestNewRejectsNegativeOptions(t *testing.T) {
	_, err := New(Options{SwipeThreshold: -1})
	assert.Error(t, err)
	_, err = New(Options{TickThreshold: -1})
	assert.Error(t, err)
	_, err = New(Options{TickInterval: -time.Millisecond})
	assert.Error(t, err)
}

func TestResetClearsState(t *testing.T) {
	c := newClassifier(t)
	_ = classify(c, events.Scroll(at(0), 10, false))
	_ = classify(c, events.Scroll(at(5), 3, false))
	c.Reset()
	assert.Equal(t, State{}, c.State())
	assert.Equal(t, []Trigger{Generic}, classify(c, events.Scroll(at(6), 6, false)))
}

func TestTriggerNames(t *testing.T) {
	for _, tr := range All {
		parsed, ok := ParseTrigger(tr.String())
		require.True(t, ok, tr.String())
		assert.Equal(t, tr, parsed)
	}
	assert.Equal(t, "trigger(99)", Trigger(99).String())
}
