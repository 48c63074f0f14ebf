package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-evolve/journal"
)

func writeRun(t *testing.T, base, runID string, equity []float64) {
	t.Helper()
	sink, err := journal.NewFileSink(base, runID)
	require.NoError(t, err)
	ts := time.Unix(1700000000, 0)
	for i, e := range equity {
		require.NoError(t, sink.Equity(journal.Equity{Ts: ts.Add(time.Duration(i) * time.Second), RunID: runID, Equity: e, Fills: i}))
	}
	require.NoError(t, sink.Close())
}

func TestSummarize(t *testing.T) {
	st, ok := summarize("r", []journal.Equity{{Equity: 1000}, {Equity: 1100}, {Equity: 990}, {Equity: 1200, Fills: 3}})
	require.True(t, ok)
	assert.Equal(t, 4, st.Points)
	assert.InDelta(t, 0.2, st.Return, 1e-12)
	assert.InDelta(t, 0.1, st.MaxDrawdown, 1e-12)
	assert.Equal(t, 3, st.Fills)

	_, ok = summarize("empty", nil)
	assert.False(t, ok)
}

func TestLeaderboardRanksBySharpe(t *testing.T) {
	base := t.TempDir()
	writeRun(t, base, "steady", []float64{1000, 1001, 1002, 1003, 1004.5})
	writeRun(t, base, "choppy", []float64{1000, 1020, 990, 1030, 980})
	writeRun(t, filepath.Join(base, "evolution"), "skip", []float64{1, 2})

	rows, err := leaderboard(base)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "steady", rows[0].RunID)
	assert.Equal(t, "choppy", rows[1].RunID)

	var buf bytes.Buffer
	printLeaderboard(&buf, rows)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[1], "steady")
}

func TestReportCommand(t *testing.T) {
	base := t.TempDir()
	writeRun(t, base, "one", []float64{1000, 1010, 1005})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"report", filepath.Join(base, "one")})
	require.NoError(t, rootCmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "=== PAPER REPORT ===")
	assert.Contains(t, out, "Start: 1000.00 End: 1005.00 Ret: 0.50%")
	assert.Contains(t, out, "Equity points: 3")
}
