package actuator

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindValuesMatchAppKit(t *testing.T) {
	assert.Equal(t, Kind(0), Generic)
	assert.Equal(t, Kind(1), Alignment)
	assert.Equal(t, "alignment", Alignment.String())
	assert.Equal(t, "kind(7)", Kind(7).String())
}

func TestOpenSelectsDriver(t *testing.T) {
	d, err := Open("LOG", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.NoError(t, d.Perform(Alignment))

	d, err = Open(DriverNone, nil)
	require.NoError(t, err)
	assert.NoError(t, d.Perform(Generic))

	_, err = Open("taptic", nil)
	assert.Error(t, err)
}

func TestRecorderKeepsOrder(t *testing.T) {
	tick := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := &Recorder{Clock: func() time.Time {
		tick = tick.Add(time.Millisecond)
		return tick
	}}
	require.NoError(t, rec.Perform(Alignment))
	require.NoError(t, rec.Perform(Generic))

	assert.Equal(t, []Kind{Alignment, Generic}, rec.Kinds())
	pulses := rec.Pulses()
	require.Len(t, pulses, 2)
	assert.True(t, pulses[1].At.After(pulses[0].At))
}

func TestRecorderFailure(t *testing.T) {
	rec := &Recorder{Fail: ErrUnavailable}
	assert.ErrorIs(t, rec.Perform(Generic), ErrUnavailable)
	assert.Empty(t, rec.Pulses())
}

func TestUnavailableErrorMatchesSentinel(t *testing.T) {
	err := newUnavailableError("  no trackpad ")
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, "no trackpad", err.Error())
	assert.Equal(t, ErrUnavailable.Error(), newUnavailableError("").Error())
}

func TestDetectEnvironment(t *testing.T) {
	env := detectEnvironment("linux", func() (Driver, error) { return nil, newUnavailableError("") })
	assert.False(t, env.Available)
	assert.Equal(t, providerNone, env.Provider)
	assert.NotEmpty(t, env.Message)

	env = detectEnvironment("darwin", func() (Driver, error) { return Discard, nil })
	assert.True(t, env.Available)
	assert.Equal(t, providerAppKit, env.Provider)

	assert.NotEmpty(t, DetectEnvironment().Message)
}
