package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the collection pipeline. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	// Per-source outcomes: ok, cached, failed, skipped
	SourceOutcome *prometheus.CounterVec

	// Fetch+parse latency by family and source
	SourceLatency *prometheus.HistogramVec

	// Records kept after threshold filtering
	RecordsAccepted *prometheus.CounterVec

	CacheLookups *prometheus.CounterVec

	RateLimitWait *prometheus.HistogramVec

	CollaboratorCalls *prometheus.CounterVec

	WorkflowDuration prometheus.Histogram

	WorkflowRisk *prometheus.CounterVec
}

// New registers all pipeline metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		SourceOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "personintel_source_outcomes_total",
			Help: "Source collection outcomes by family, source and result",
		}, []string{"family", "source", "outcome"}),

		SourceLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "personintel_source_fetch_duration_seconds",
			Help:    "Duration of fetch and parse including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"family", "source"}),

		RecordsAccepted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "personintel_records_accepted_total",
			Help: "Records that passed the family acceptance threshold",
		}, []string{"family"}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "personintel_cache_lookups_total",
			Help: "Cache lookups by result",
		}, []string{"result"}),

		RateLimitWait: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "personintel_ratelimit_wait_seconds",
			Help:    "Time spent waiting for rate limiter admission",
			Buckets: []float64{0, 1, 2, 5, 10, 30, 60},
		}, []string{"source"}),

		CollaboratorCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "personintel_text_generation_calls_total",
			Help: "Text generation calls by prompt and result",
		}, []string{"prompt", "result"}),

		WorkflowDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "personintel_workflow_duration_seconds",
			Help:    "Duration of a full intelligence run",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		WorkflowRisk: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "personintel_workflow_risk_total",
			Help: "Finished runs by assessed risk level",
		}, []string{"risk_level"}),
	}
}

// IncrementSourceOutcome records how one source finished.
func (m *Metrics) IncrementSourceOutcome(family, source, outcome string) {
	if m != nil {
		m.SourceOutcome.WithLabelValues(family, source, outcome).Inc()
	}
}

// ObserveSourceLatency records fetch duration for a source.
func (m *Metrics) ObserveSourceLatency(family, source string, d time.Duration) {
	if m != nil {
		m.SourceLatency.WithLabelValues(family, source).Observe(d.Seconds())
	}
}

// AddAccepted counts records kept for a family.
func (m *Metrics) AddAccepted(family string, n int) {
	if m != nil && n > 0 {
		m.RecordsAccepted.WithLabelValues(family).Add(float64(n))
	}
}

// IncrementCacheLookup records a hit or miss.
func (m *Metrics) IncrementCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveRateLimitWait records time spent before admission.
func (m *Metrics) ObserveRateLimitWait(source string, d time.Duration) {
	if m != nil {
		m.RateLimitWait.WithLabelValues(source).Observe(d.Seconds())
	}
}

// IncrementCollaboratorCall records a text generation attempt.
func (m *Metrics) IncrementCollaboratorCall(prompt string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CollaboratorCalls.WithLabelValues(prompt, result).Inc()
}

// ObserveWorkflow records a finished run.
func (m *Metrics) ObserveWorkflow(risk string, d time.Duration) {
	if m != nil {
		m.WorkflowDuration.Observe(d.Seconds())
		m.WorkflowRisk.WithLabelValues(risk).Inc()
	}
}
