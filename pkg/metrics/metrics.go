// Package metrics exposes Prometheus counters for the feedback pipeline.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/offlinefirst/tactile/pkg/actuator"
)

// Metrics groups the pipeline collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	EventsTotal        *prometheus.CounterVec
	EventsDropped      prometheus.Counter
	TriggersTotal      *prometheus.CounterVec
	TriggersAccepted   *prometheus.CounterVec
	TriggersSuppressed *prometheus.CounterVec
	PulsesTotal        *prometheus.CounterVec
	PulsesDropped      *prometheus.CounterVec
	QueueDepth         prometheus.Gauge
	ClassifyLatency    prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tactile_events_total",
			Help: "The total number of raw input events received",
		}, []string{"kind"}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tactile_events_dropped_total",
			Help: "The total number of raw events dropped because the pipeline was full",
		}),
		TriggersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tactile_triggers_total",
			Help: "The total number of triggers produced by the classifier",
		}, []string{"trigger"}),
		TriggersAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tactile_triggers_accepted_total",
			Help: "The total number of triggers that passed the cooldown gate",
		}, []string{"trigger"}),
		TriggersSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tactile_triggers_suppressed_total",
			Help: "The total number of triggers dropped by the cooldown gate",
		}, []string{"trigger"}),
		PulsesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tactile_pulses_total",
			Help: "The total number of pulses performed by the actuator",
		}, []string{"kind"}),
		PulsesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tactile_pulses_dropped_total",
			Help: "The total number of scheduled pulses that were not performed",
		}, []string{"reason"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tactile_event_queue_depth",
			Help: "The current number of raw events waiting for classification",
		}),
		ClassifyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tactile_classify_latency_seconds",
			Help:    "Time spent classifying one event",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.EventsTotal, m.EventsDropped, m.TriggersTotal, m.TriggersAccepted,
		m.TriggersSuppressed, m.PulsesTotal, m.PulsesDropped, m.QueueDepth, m.ClassifyLatency,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Event(kind string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.EventsDropped.Inc()
}

func (m *Metrics) Trigger(trigger string, accepted bool) {
	if m == nil {
		return
	}
	m.TriggersTotal.WithLabelValues(trigger).Inc()
	if accepted {
		m.TriggersAccepted.WithLabelValues(trigger).Inc()
	} else {
		m.TriggersSuppressed.WithLabelValues(trigger).Inc()
	}
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) ObserveClassify(d time.Duration) {
	if m == nil {
		return
	}
	m.ClassifyLatency.Observe(d.Seconds())
}

// PulsePerformed counts a pulse that reached the actuator.
func (m *Metrics) PulsePerformed(kind actuator.Kind) {
	if m == nil {
		return
	}
	m.PulsesTotal.WithLabelValues(kind.String()).Inc()
}

// PulseDropped counts a pulse skipped for reason.
func (m *Metrics) PulseDropped(reason string) {
	if m == nil {
		return
	}
	m.PulsesDropped.WithLabelValues(reason).Inc()
}

// Serve exposes reg on addr at /metrics until ctx is done.
func Serve(ctx context.Context, addr string, reg prometheus.Gatherer) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serve(ctx, ln, reg)
}

func serve(ctx context.Context, ln net.Listener, reg prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
