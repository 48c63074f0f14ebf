package sim

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-evolve/journal"
)

func TestLocalRunnerRunsToCompletion(t *testing.T) {
	lr := NewLocalRunner(nil, nil)
	lr.Sleep = noSleep
	cfg := DefaultConfig()
	cfg.MaxTicks = 40

	h, err := lr.Start(context.Background(), "g1_0", cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h.RunID, "g1_0-"))
	assert.Len(t, h.RunID, len("g1_0-")+8)

	art, err := lr.Await(context.Background(), h, time.Now().Add(10*time.Second))
	require.NoError(t, err)
	require.NotNil(t, art)
	assert.Len(t, art.Equity, 40)
	assert.Equal(t, "g1_0", art.Tag)

	_, err = lr.Await(context.Background(), h, time.Now())
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestLocalRunnerStopsAtDeadline(t *testing.T) {
	lr := NewLocalRunner(nil, nil)
	cfg := DefaultConfig()
	cfg.TickInterval = time.Hour

	h, err := lr.Start(context.Background(), "slow", cfg)
	require.NoError(t, err)
	start := time.Now()
	art, err := lr.Await(context.Background(), h, time.Now().Add(50*time.Millisecond))
	require.NoError(t, err)
	require.NotNil(t, art)
	assert.Empty(t, art.Equity)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestLocalRunnerSameSeedSameSeries(t *testing.T) {
	lr := NewLocalRunner(nil, nil)
	lr.Sleep = noSleep
	cfg := DefaultConfig()
	cfg.MaxTicks = 200
	cfg.Seed = 99
	cfg.Strategy.TriggerMovePct = 0.002
	cfg.Strategy.MinGapPct = 0.001

	run := func() []float64 {
		h, err := lr.Start(context.Background(), "det", cfg)
		require.NoError(t, err)
		art, err := lr.Await(context.Background(), h, time.Now().Add(10*time.Second))
		require.NoError(t, err)
		out := make([]float64, len(art.Equity))
		for i, s := range art.Equity {
			out[i] = s.Equity
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestLocalRunnerSinkFactory(t *testing.T) {
	base := t.TempDir()
	lr := NewLocalRunner(nil, nil)
	lr.Sleep = noSleep
	lr.SinkFactory = func(runID string) (journal.Sink, error) {
		return journal.NewFileSink(base, runID)
	}
	cfg := DefaultConfig()
	cfg.MaxTicks = 5
	h, err := lr.Start(context.Background(), "file", cfg)
	require.NoError(t, err)
	_, err = lr.Await(context.Background(), h, time.Now().Add(10*time.Second))
	require.NoError(t, err)

	eq, err := journal.ReadEquity(base + "/" + h.RunID + "/" + journal.EquityFile)
	require.NoError(t, err)
	assert.Len(t, eq, 5)
}

func TestLocalRunnerStartRejectsBadConfig(t *testing.T) {
	lr := NewLocalRunner(nil, nil)
	cfg := DefaultConfig()
	cfg.Strategy.CashFraction = 0
	_, err := lr.Start(context.Background(), "bad", cfg)
	assert.Error(t, err)
}
