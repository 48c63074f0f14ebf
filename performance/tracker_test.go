package performance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackerBoundedBuffer(t *testing.T) {
	tr := NewTracker(Config{ReturnsWindow: 5, Regime: DefaultRegimeConfig()})
	base := time.Unix(0, 0)
	for i := 0; i < 40; i++ {
		tr.Update(Account{Ts: base.Add(time.Duration(i) * time.Second), Equity: 1000 + float64(i)})
	}
	assert.Equal(t, 15, tr.Len())
}

func TestTrackerSummaryTooFewPoints(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	tr.Update(Account{Equity: 1000, Cash: 1000})
	tr.Update(Account{Equity: 990, Cash: 1000, Fills: 1})
	s := tr.Summary()
	assert.Equal(t, 990.0, s.Equity)
	assert.Equal(t, 1, s.Fills)
	assert.Zero(t, s.MaxDrawdown)
	assert.Zero(t, s.SharpeLike)
	assert.False(t, s.RegimeOK)
}

func TestTrackerSummaryUsesWindow(t *testing.T) {
	tr := NewTracker(Config{ReturnsWindow: 12, Regime: RegimeConfig{Enabled: false}})
	eqs := []float64{1000, 500, 1000}
	for i := 0; i < 20; i++ {
		eqs = append(eqs, 1000+float64(i))
	}
	for _, e := range eqs {
		tr.Update(Account{Equity: e})
	}
	s := tr.Summary()
	// 早期的大回撤已滑出最近 12 个点的窗口
	assert.Zero(t, s.MaxDrawdown)
	assert.Greater(t, s.SharpeLike, 0.0)
	assert.Zero(t, s.PointsLow)
	assert.Zero(t, s.PointsHigh)
}

func TestTrackerSummaryRegime(t *testing.T) {
	tr := NewTracker(Config{ReturnsWindow: 720, Regime: RegimeConfig{Enabled: true, VolWindow: 30, HighVolThreshold: 0.001, MinPointsEach: 5}})
	e := 1000.0
	for i := 0; i < 60; i++ {
		if i%2 == 0 {
			e *= 1.01
		} else {
			e *= 0.995
		}
		tr.Update(Account{Equity: e})
	}
	s := tr.Summary()
	assert.Equal(t, 59, s.PointsLow+s.PointsHigh)
	assert.Equal(t, 9, s.PointsLow)
	assert.True(t, s.RegimeOK)
	assert.Greater(t, s.MaxDrawdown, 0.0)
}
