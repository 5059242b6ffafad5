// Package metrics holds the Prometheus collectors for ingestion, rollups and
// the HTTP surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Report outcomes
const (
	OutcomeStored    = "stored"
	OutcomeInvalid   = "invalid"
	OutcomeNotFound  = "not_found"
	OutcomeStale     = "stale"
	OutcomeForbidden = "forbidden"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

// Metrics is the set of collectors the service records into
type Metrics struct {
	PositionsReported *prometheus.CounterVec
	EventsRecorded    *prometheus.CounterVec
	RollupDuration    *prometheus.HistogramVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
// Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PositionsReported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perimeter_positions_reported_total",
			Help: "Position reports by outcome.",
		}, []string{"outcome"}),
		EventsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perimeter_events_recorded_total",
			Help: "Stored event-tagged reports by event label.",
		}, []string{"event"}),
		RollupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "perimeter_rollup_duration_seconds",
			Help:    "Rollup query latency by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perimeter_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "perimeter_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	if reg != nil {
		reg.MustRegister(m.PositionsReported, m.EventsRecorded, m.RollupDuration, m.HTTPRequests, m.HTTPDuration)
	}
	return m
}

// ObserveRollup records the latency of one rollup operation since start
func (m *Metrics) ObserveRollup(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.RollupDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// CountReport records one report outcome
func (m *Metrics) CountReport(outcome string) {
	if m == nil {
		return
	}
	m.PositionsReported.WithLabelValues(outcome).Inc()
}

// CountEvent records one stored event
func (m *Metrics) CountEvent(label string) {
	if m == nil {
		return
	}
	m.EventsRecorded.WithLabelValues(label).Inc()
}
