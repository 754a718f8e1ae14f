package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordFetch(170, nil)
	m.RecordFetch(0, errors.New("boom"))
	m.RecordBaseChange()
	m.RecordMatch("fiat", nil)
	m.RecordMatch("fiat", nil)
	m.RecordMatch("alt", errors.New("no data"))
	m.RecordFact("SUCCESS")
	m.RecordHTTP("/match", "GET", 200, 0.01)
	m.RecordHTTP("/match", "GET", 404, 0.01)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, 170.0, testutil.ToFloat64(m.RateSymbols))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BaseChangesTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MatchesTotal.WithLabelValues("fiat", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MatchesTotal.WithLabelValues("alt", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FactTasksTotal.WithLabelValues("SUCCESS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/match", "GET", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/match", "GET", "4xx")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordFetch(1, nil)
		m.RecordBaseChange()
		m.RecordMatch("fiat", nil)
		m.RecordFact("FAILED")
		m.RecordHTTP("/", "GET", 500, 1)
	})
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
