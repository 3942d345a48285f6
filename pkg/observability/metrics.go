package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeInvalid   = "invalid"
	OutcomeStale     = "stale"
	OutcomeProtocol  = "protocol_error"
	OutcomeTransport = "transport_error"
)

// Effect outcomes.
const (
	EffectApplied = "applied"
	EffectSkipped = "skipped"
	EffectFailed  = "failed"
)

// Metrics records client and endpoint activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	submissions *prometheus.CounterVec
	roundTrip   prometheus.Histogram
	effects     *prometheus.CounterVec
	inFlight    prometheus.Gauge
	actions     *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := newMetrics(reg)
	m.gatherer = reg
	return m
}

// NewMetricsWith registers the collectors on reg, e.g. prometheus.DefaultRegisterer.
func NewMetricsWith(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := newMetrics(reg)
	m.gatherer = g
	return m
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guiapi_submissions_total",
				Help: "Total number of batch submissions by outcome",
			},
			[]string{"outcome"},
		),
		roundTrip: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "guiapi_roundtrip_seconds",
				Help:    "Duration of GUI API round trips",
				Buckets: prometheus.DefBuckets,
			},
		),
		effects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guiapi_effects_total",
				Help: "Total number of interpreted effects by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "guiapi_submissions_in_flight",
				Help: "Number of submissions waiting for a response",
			},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guiapi_endpoint_actions_total",
				Help: "Total number of actions handled by the endpoint",
			},
			[]string{"action", "outcome"},
		),
	}
	reg.MustRegister(m.submissions, m.roundTrip, m.effects, m.inFlight, m.actions)
	return m
}

// Submission records one finished submission.
func (m *Metrics) Submission(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		m.roundTrip.Observe(elapsed.Seconds())
	}
}

// Effect records one interpreted effect. kind is "html" or "js".
func (m *Metrics) Effect(kind, outcome string) {
	if m == nil {
		return
	}
	m.effects.WithLabelValues(kind, outcome).Inc()
}

// Begin marks a submission as in flight and returns the func that ends it.
func (m *Metrics) Begin() func() {
	if m == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}

// Action records one action handled on the endpoint side.
func (m *Metrics) Action(name, outcome string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(name, outcome).Inc()
}

// Handler exposes the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
