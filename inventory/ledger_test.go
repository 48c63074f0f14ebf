package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerBuySell(t *testing.T) {
	l := NewLedger(100)
	require.NoError(t, l.Buy("B", 50, 100))
	assert.InDelta(t, 50, l.Cash(), 1e-12)
	qty, cost := l.Position("B")
	assert.InDelta(t, 100, qty, 1e-12)
	assert.InDelta(t, 0.5, cost, 1e-12)

	require.NoError(t, l.Sell("B", 30, 50))
	assert.InDelta(t, 80, l.Cash(), 1e-12)
	assert.InDelta(t, 5, l.Realized(), 1e-12)
	qty, _ = l.Position("B")
	assert.InDelta(t, 50, qty, 1e-12)
}

func TestLedgerRejectsWithoutMutation(t *testing.T) {
	l := NewLedger(10)
	err := l.Buy("B", 11, 20)
	assert.ErrorIs(t, err, ErrInsufficientCash)
	assert.Equal(t, 10.0, l.Cash())
	assert.Empty(t, l.Positions())

	err = l.Sell("B", 1, 1)
	assert.ErrorIs(t, err, ErrInsufficientPosition)
	assert.Equal(t, 10.0, l.Cash())

	require.NoError(t, l.Buy("B", 5, 10))
	err = l.Sell("B", 6, 10.001)
	assert.ErrorIs(t, err, ErrInsufficientPosition)
	qty, _ := l.Position("B")
	assert.Equal(t, 10.0, qty)
}

func TestLedgerSellWithinEpsilon(t *testing.T) {
	l := NewLedger(10)
	require.NoError(t, l.Buy("B", 5, 10))
	require.NoError(t, l.Sell("B", 5, 10+1e-10))
	qty, cost := l.Position("B")
	assert.Zero(t, qty)
	assert.Zero(t, cost)
	assert.Empty(t, l.Positions())
}

func TestLedgerEquityExcludesUnknownMids(t *testing.T) {
	l := NewLedger(100)
	require.NoError(t, l.Buy("A", 10, 20))
	require.NoError(t, l.Buy("B", 10, 10))

	eq := l.Equity(map[string]float64{"A": 0.6})
	assert.InDelta(t, 80+20*0.6, eq, 1e-12)

	eq = l.Equity(map[string]float64{"A": 0.6, "B": 1.2})
	assert.InDelta(t, 80+12+12, eq, 1e-12)
	assert.InDelta(t, 24, l.Unrealized(map[string]float64{"A": 0.6, "B": 1.2}), 1e-12)
}
