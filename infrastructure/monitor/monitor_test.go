package monitor

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorRecords(t *testing.T) {
	m := New(DefaultConfig())
	m.RecordAttempt("filled")
	m.RecordAttempt("filled")
	m.RecordAttempt("dropped")
	m.RecordFill("BUY", 20)
	m.RecordFill("BUY", 5)
	m.RecordOrderLatency(0.15)
	m.UpdateEquity(1010)
	m.UpdateMaxDrawdown(0.02)
	m.RecordEvaluation("feasible")
	m.UpdateGeneration(3, 1.5)
	m.RecordWSConnection()
	m.RecordWSDisconnect()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts.WithLabelValues("filled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("dropped")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.fills.WithLabelValues("BUY")))
	assert.Equal(t, 25.0, testutil.ToFloat64(m.filledNotional))
	assert.Equal(t, 1010.0, testutil.ToFloat64(m.equity))
	assert.Equal(t, 0.02, testutil.ToFloat64(m.maxDrawdown))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.evaluations.WithLabelValues("feasible")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.generation))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.generationBest))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.wsConnections))
	assert.Equal(t, 1, testutil.CollectAndCount(m.orderLatency))
}

func TestMonitorNilSafe(t *testing.T) {
	var m *Monitor
	assert.NotPanics(t, func() {
		m.RecordAttempt("filled")
		m.RecordFill("SELL", 1)
		m.RecordOrderLatency(1)
		m.UpdateEquity(1)
		m.UpdateMaxDrawdown(1)
		m.RecordEvaluation("infeasible")
		m.UpdateGeneration(1, 1)
		m.RecordWSConnection()
		m.RecordWSDisconnect()
	})
}

func TestMonitorHandler(t *testing.T) {
	m := New(DefaultConfig())
	m.RecordAttempt("no_book")
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `paper_sim_attempts_total{outcome="no_book"} 1`))
}
