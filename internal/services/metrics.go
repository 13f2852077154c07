package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the custom Prometheus metrics for the application
type Metrics struct {
	// Record metrics
	RecordMutations *prometheus.CounterVec
	StoreFaults     *prometheus.CounterVec

	// Assistant metrics
	AssistantRequests *prometheus.CounterVec
	OracleLatency     prometheus.Histogram
}

// NewMetrics registers the application metrics on reg.
// feed may be nil; when set, its subscriber count is exported as a gauge.
func NewMetrics(reg prometheus.Registerer, feed *ChangeFeed) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		RecordMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "firdesk_records_mutations_total",
			Help: "Total number of successful record mutations by collection and action",
		}, []string{"collection", "action"}),

		StoreFaults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "firdesk_store_faults_total",
			Help: "Reads that found a unit unreadable or corrupt and served an empty collection",
		}, []string{"collection"}),

		AssistantRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "firdesk_assistant_requests_total",
			Help: "Total assistant queries by profile and outcome",
		}, []string{"profile", "outcome"}), // outcome: "ok", "draft" or "fallback"

		OracleLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "firdesk_oracle_request_duration_seconds",
			Help:    "Generative oracle latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
	}

	if feed != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "firdesk_feed_subscribers_current",
			Help: "Current number of change feed subscribers",
		}, func() float64 {
			return float64(feed.Count())
		})
	}

	return m
}

// RecordMutation counts a successful create or delete
func (m *Metrics) RecordMutation(collection, action string) {
	if m == nil {
		return
	}
	m.RecordMutations.WithLabelValues(collection, action).Inc()
}

// RecordStoreFault counts a read fault on a unit
func (m *Metrics) RecordStoreFault(collection string) {
	if m == nil {
		return
	}
	m.StoreFaults.WithLabelValues(collection).Inc()
}

// RecordAssistantRequest counts an assistant query
func (m *Metrics) RecordAssistantRequest(profile, outcome string) {
	if m == nil {
		return
	}
	m.AssistantRequests.WithLabelValues(profile, outcome).Inc()
}

// RecordOracleLatency records one oracle round trip
func (m *Metrics) RecordOracleLatency(seconds float64) {
	if m == nil {
		return
	}
	m.OracleLatency.Observe(seconds)
}
