package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offlinefirst/tactile/pkg/actuator"
)

func TestCountersTrackPipeline(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.Event("scroll")
	m.Event("scroll")
	m.EventDropped()
	m.Trigger("launchpad", true)
	m.Trigger("launchpad", false)
	m.PulsePerformed(actuator.Alignment)
	m.PulseDropped("late")
	m.SetQueueDepth(3)
	m.ObserveClassify(time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("scroll")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsDropped))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TriggersTotal.WithLabelValues("launchpad")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TriggersAccepted.WithLabelValues("launchpad")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TriggersSuppressed.WithLabelValues("launchpad")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PulsesTotal.WithLabelValues("alignment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PulsesDropped.WithLabelValues("late")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.QueueDepth))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ClassifyLatency))
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Event("scroll")
		m.EventDropped()
		m.Trigger("generic", true)
		m.PulsePerformed(actuator.Generic)
		m.PulseDropped("cancelled")
		m.SetQueueDepth(1)
		m.ObserveClassify(time.Second)
	})
}

func TestServeExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	m.Event("pinch")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, ln, reg) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `tactile_events_total{kind="pinch"} 1`), string(body))

	cancel()
	assert.NoError(t, <-done)
}

func TestClassifyLatencyMeasuresClassificationOnly(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	m.ObserveClassify(2 * time.Microsecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "tactile_classify_latency_seconds" {
			continue
		}
		assert.Equal(t, "Time spent classifying one event", mf.GetHelp())
		require.Len(t, mf.GetMetric(), 1)
		assert.Equal(t, uint64(1), mf.GetMetric()[0].GetHistogram().GetSampleCount())
		return
	}
	t.Fatalf("classify latency histogram not registered")
}
