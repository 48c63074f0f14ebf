package walkforward

import (
	"paper-evolve/market"
)

// Config 滚动 walk-forward 参数。
type Config struct {
	Enabled            bool    `yaml:"enabled"`
	VolBalanced        bool    `yaml:"market_vol_balanced_folds"`
	Folds              int     `yaml:"folds"`
	MinFoldMinutes     float64 `yaml:"min_fold_minutes"`
	MinHighFrac        float64 `yaml:"min_high_frac"`
	MaxOverlapFrac     float64 `yaml:"max_overlap_frac"`
	CandidateStride    int     `yaml:"candidate_stride_points"`
	CandidatesPerFold  int     `yaml:"candidates_per_fold"`
	VolWindow          int     `yaml:"market_vol_window_points"`
	HighVolThreshold   float64 `yaml:"market_high_vol_threshold"`
	InstabilityPenalty float64 `yaml:"instability_penalty"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		VolBalanced:        true,
		Folds:              4,
		MinFoldMinutes:     1,
		MinHighFrac:        0.2,
		MaxOverlapFrac:     0.35,
		CandidateStride:    10,
		CandidatesPerFold:  200,
		VolWindow:          60,
		HighVolThreshold:   0.0015,
		InstabilityPenalty: 0.4,
	}
}

// MinFoldPoints 每分钟按 30 个点估算，至少 30 个点。
func (c Config) MinFoldPoints() int {
	return max(30, int(c.MinFoldMinutes*30))
}

// FoldWindow 序列上的半开区间 [Start, End)。
type FoldWindow struct {
	Start    int     `json:"start_idx"`
	End      int     `json:"end_idx"`
	Points   int     `json:"points"`
	HighFrac float64 `json:"high_frac"`
	VolMean  float64 `json:"vol_mean"`
}

// Overlap 交集长度 / 较短窗口长度。
func Overlap(a, b FoldWindow) float64 {
	inter := max(0, min(a.End, b.End)-max(a.Start, b.Start))
	return float64(inter) / float64(max(1, min(a.End-a.Start, b.End-b.Start)))
}

// SelectFolds 在中间价序列上贪心挑选高波动占比最大的定长窗口。
// 序列短于两个窗口长度或没有合格候选时返回 nil。
func SelectFolds(mids []float64, c Config) []FoldWindow {
	size := c.MinFoldPoints()
	n := len(mids)
	if n < size*2 {
		return nil
	}
	// 收益比中间价少一个点，前补 0 对齐
	vols := append([]float64{0}, market.RollingStd(market.SimpleReturns(mids), c.VolWindow)...)
	stride := max(1, c.CandidateStride)

	var chosen []FoldWindow
	for len(chosen) < c.Folds {
		best, ok := bestCandidate(vols, n, size, stride, c, chosen)
		if !ok {
			break
		}
		chosen = append(chosen, best)
	}
	return chosen
}

func bestCandidate(vols []float64, n, size, stride int, c Config, chosen []FoldWindow) (FoldWindow, bool) {
	var best FoldWindow
	found := false
	examined := 0
	for start := 0; start < n-size; start += stride {
		end := start + size
		examined++
		if c.CandidatesPerFold > 0 && examined > c.CandidatesPerFold {
			break
		}
		cand := window(vols, start, end, c.HighVolThreshold)
		if cand.HighFrac < c.MinHighFrac {
			continue
		}
		if overlapsAny(cand, chosen, c.MaxOverlapFrac) {
			continue
		}
		if !found || cand.HighFrac > best.HighFrac ||
			(cand.HighFrac == best.HighFrac && cand.VolMean > best.VolMean) {
			best, found = cand, true
		}
	}
	return best, found
}

func window(vols []float64, start, end int, threshold float64) FoldWindow {
	sl := vols[start:end]
	high := 0
	sum := 0.0
	for _, v := range sl {
		if v >= threshold {
			high++
		}
		sum += v
	}
	return FoldWindow{
		Start:    start,
		End:      end,
		Points:   end - start,
		HighFrac: float64(high) / float64(max(1, len(sl))),
		VolMean:  sum / float64(max(1, len(sl))),
	}
}

func overlapsAny(w FoldWindow, chosen []FoldWindow, maxFrac float64) bool {
	for _, u := range chosen {
		if Overlap(w, u) > maxFrac {
			return true
		}
	}
	return false
}
