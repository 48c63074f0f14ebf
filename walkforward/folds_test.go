package walkforward

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// calm 段几乎不动，wild 段高波动
func regimeMids(seed int64, calm, wild int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	mids := make([]float64, 0, calm+wild)
	mid := 0.5
	for i := 0; i < calm+wild; i++ {
		sigma := 0.0001
		if i >= calm {
			sigma = 0.004
		}
		mid += sigma * rng.NormFloat64()
		mid = min(0.99, max(0.01, mid))
		mids = append(mids, mid)
	}
	return mids
}

func TestOverlap(t *testing.T) {
	a := FoldWindow{Start: 0, End: 30}
	assert.Equal(t, 1.0, Overlap(a, a))
	assert.Equal(t, 0.0, Overlap(a, FoldWindow{Start: 30, End: 60}))
	assert.InDelta(t, 0.5, Overlap(a, FoldWindow{Start: 15, End: 45}), 1e-12)
	assert.Equal(t, 1.0, Overlap(a, FoldWindow{Start: 10, End: 20}))
}

func TestSelectFoldsRespectsOverlapBound(t *testing.T) {
	cfg := DefaultConfig()
	for seed := int64(1); seed <= 20; seed++ {
		folds := SelectFolds(regimeMids(seed, 150, 250), cfg)
		require.NotEmpty(t, folds)
		assert.LessOrEqual(t, len(folds), cfg.Folds)
		for i := range folds {
			assert.Equal(t, cfg.MinFoldPoints(), folds[i].Points)
			assert.GreaterOrEqual(t, folds[i].HighFrac, cfg.MinHighFrac)
			for j := i + 1; j < len(folds); j++ {
				assert.LessOrEqual(t, Overlap(folds[i], folds[j]), cfg.MaxOverlapFrac)
			}
		}
	}
}

func TestSelectFoldsIdenticalWindowsOnlyWhenOverlapAllowed(t *testing.T) {
	mids := regimeMids(7, 150, 250)
	cfg := DefaultConfig()
	cfg.Folds = 2

	folds := SelectFolds(mids, cfg)
	require.Len(t, folds, 2)
	assert.NotEqual(t, folds[0], folds[1])

	cfg.MaxOverlapFrac = 1.0
	folds = SelectFolds(mids, cfg)
	require.Len(t, folds, 2)
	assert.Equal(t, folds[0], folds[1])
	assert.Equal(t, 1.0, Overlap(folds[0], folds[1]))
}

func TestSelectFoldsPrefersWildSegment(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Folds = 1
	folds := SelectFolds(regimeMids(3, 200, 200), cfg)
	require.Len(t, folds, 1)
	assert.GreaterOrEqual(t, folds[0].Start, 200)
	assert.Equal(t, 1.0, folds[0].HighFrac)
}

func TestSelectFoldsNoCandidates(t *testing.T) {
	cfg := DefaultConfig()
	assert.Nil(t, SelectFolds(regimeMids(1, 59, 0), cfg), "shorter than two windows")
	assert.Nil(t, SelectFolds(regimeMids(1, 400, 0), cfg), "calm series has no high-vol window")
}

func TestMinFoldPoints(t *testing.T) {
	assert.Equal(t, 30, Config{MinFoldMinutes: 0.5}.MinFoldPoints())
	assert.Equal(t, 90, Config{MinFoldMinutes: 3}.MinFoldPoints())
}
