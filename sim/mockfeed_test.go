package sim

import (
	"context"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-evolve/strategy"
)

func TestMockFeedTicks(t *testing.T) {
	cfg := DefaultMockFeedConfig()
	cfg.MaxTicks = 60
	f := NewMockFeed(cfg, strategy.DefaultDependencyConfig(), 200*time.Millisecond, rand.New(rand.NewSource(5)))
	ctx := context.Background()

	first, err := f.Next(ctx)
	require.NoError(t, err)
	require.Len(t, first.Snapshots, 1)
	snap := first.Snapshots[0]
	assert.Equal(t, "MARKET_B", snap.Instrument)
	assert.Len(t, snap.Bids, 59)
	assert.Len(t, snap.Asks, 59)
	assert.InDelta(t, 0.499, snap.Bids[0].Price, 1e-9)
	assert.InDelta(t, 0.501, snap.Asks[0].Price, 1e-9)
	assert.Equal(t, cfg.Start, first.Ts)

	reseeds := 1
	prev := first.Ts
	for i := 1; i < 60; i++ {
		tick, err := f.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, 200*time.Millisecond, tick.Ts.Sub(prev))
		prev = tick.Ts
		if len(tick.Snapshots) > 0 {
			reseeds++
		}
		for _, top := range tick.Tops {
			mid, ok := top.Mid()
			require.True(t, ok)
			assert.GreaterOrEqual(t, mid, 0.01-1e-9)
			assert.LessOrEqual(t, mid, 0.99+1e-9)
		}
	}
	// tick 0、25、50
	assert.Equal(t, 3, reseeds)

	_, err = f.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestMockFeedDeterministic(t *testing.T) {
	mk := func() *MockFeed {
		return NewMockFeed(DefaultMockFeedConfig(), strategy.DefaultDependencyConfig(), 0, rand.New(rand.NewSource(11)))
	}
	a, b := mk(), mk()
	for i := 0; i < 100; i++ {
		ta, _ := a.Next(context.Background())
		tb, _ := b.Next(context.Background())
		ma, _ := ta.Tops[1].Mid()
		mb, _ := tb.Tops[1].Mid()
		require.Equal(t, ma, mb)
	}
}

func TestMockFeedHonorsContext(t *testing.T) {
	f := NewMockFeed(DefaultMockFeedConfig(), strategy.DefaultDependencyConfig(), 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
