// Package metrics defines the Prometheus collectors exported by the service.
//
// All Record* methods are safe to call on a nil *Metrics, so components can run
// without instrumentation in tests.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds every collector the service updates.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	FetchesTotal     *prometheus.CounterVec
	BaseChangesTotal prometheus.Counter
	MatchesTotal     *prometheus.CounterVec
	FactTasksTotal   *prometheus.CounterVec
	RateSymbols      prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status_class"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		FetchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_fetches_total",
				Help: "Snapshot fetches from the rate source by outcome",
			},
			[]string{"outcome"},
		),
		BaseChangesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_base_changes_total",
				Help: "Accepted base currency changes",
			},
		),
		MatchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_matches_total",
				Help: "Nearest-rate queries by symbol class and outcome",
			},
			[]string{"class", "outcome"},
		),
		FactTasksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fact_tasks_total",
				Help: "Finished fact generation tasks by final status",
			},
			[]string{"status"},
		),
		RateSymbols: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "rate_symbols",
				Help: "Number of symbols in the loaded snapshot",
			},
		),
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// RecordFetch counts one snapshot fetch. symbols is ignored on failure.
func (m *Metrics) RecordFetch(symbols int, err error) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		m.RateSymbols.Set(float64(symbols))
	}
}

// RecordBaseChange counts an accepted base change.
func (m *Metrics) RecordBaseChange() {
	if m == nil {
		return
	}
	m.BaseChangesTotal.Inc()
}

// RecordMatch counts a nearest-rate query.
func (m *Metrics) RecordMatch(class string, err error) {
	if m == nil {
		return
	}
	m.MatchesTotal.WithLabelValues(class, outcome(err)).Inc()
}

// RecordFact counts a fact task reaching a final status.
func (m *Metrics) RecordFact(status string) {
	if m == nil {
		return
	}
	m.FactTasksTotal.WithLabelValues(status).Inc()
}

// RecordHTTP records one served request.
func (m *Metrics) RecordHTTP(route, method string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(route, method).Observe(seconds)
	m.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status/100)+"xx").Inc()
}
