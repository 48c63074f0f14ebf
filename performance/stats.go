package performance

import (
	"math"
	"time"

	"paper-evolve/market"
)

// Sample 一个权益采样点。
type Sample struct {
	Ts     time.Time `json:"ts"`
	Equity float64   `json:"equity"`
}

// MeanStd 均值与样本标准差（n-1）；少于 2 个点返回 0,0。
func MeanStd(xs []float64) (mean, std float64) {
	n := len(xs)
	if n < 2 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(n)
	var v float64
	for _, x := range xs {
		d := x - mean
		v += d * d
	}
	return mean, math.Sqrt(v / float64(n-1))
}

// SharpeLike mean/std*sqrt(n)，std 为 0 时返回 0。
func SharpeLike(returns []float64) float64 {
	m, s := MeanStd(returns)
	if s <= 0 {
		return 0
	}
	return m / s * math.Sqrt(float64(len(returns)))
}

// MaxDrawdown 相对滚动峰值的最大回撤比例。
func MaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0]
	maxDD := 0.0
	for _, e := range equity {
		peak = math.Max(peak, e)
		maxDD = math.Max(maxDD, (peak-e)/math.Max(peak, 1e-9))
	}
	return maxDD
}

// RegimeConfig 波动率分档参数。
type RegimeConfig struct {
	Enabled          bool    `yaml:"enabled"`
	VolWindow        int     `yaml:"vol_window_points"`
	HighVolThreshold float64 `yaml:"high_vol_threshold"`
	MinPointsEach    int     `yaml:"min_points_each"`
}

func DefaultRegimeConfig() RegimeConfig {
	return RegimeConfig{Enabled: true, VolWindow: 60, HighVolThreshold: 0.0015, MinPointsEach: 80}
}

// RegimeSplit 按到当前为止的滚动波动率把收益分到低/高波动两档；热身期归入低波动。
func RegimeSplit(returns []float64, volWindow int, highThreshold float64) (low, high []float64) {
	w := market.NewVolatilityWindow(volWindow)
	for _, r := range returns {
		vol, ready := w.Add(r)
		if ready && vol >= highThreshold {
			high = append(high, r)
		} else {
			low = append(low, r)
		}
	}
	return low, high
}

// RegimeStats 分档统计。
type RegimeStats struct {
	SharpeLow  float64 `json:"sharpe_low"`
	SharpeHigh float64 `json:"sharpe_high"`
	PointsLow  int     `json:"points_low"`
	PointsHigh int     `json:"points_high"`
	RegimeOK   bool    `json:"regime_ok"`
}

// ComputeRegime 对收益序列做分档统计；两档都达到 MinPointsEach 时 RegimeOK。
func ComputeRegime(returns []float64, cfg RegimeConfig) RegimeStats {
	low, high := RegimeSplit(returns, cfg.VolWindow, cfg.HighVolThreshold)
	return RegimeStats{
		SharpeLow:  SharpeLike(low),
		SharpeHigh: SharpeLike(high),
		PointsLow:  len(low),
		PointsHigh: len(high),
		RegimeOK:   len(low) >= cfg.MinPointsEach && len(high) >= cfg.MinPointsEach,
	}
}

// SliceStats 一段权益序列的统计。
type SliceStats struct {
	StartTs     time.Time
	EndTs       time.Time
	Points      int
	EquityStart float64
	EquityEnd   float64
	TotalReturn float64
	MaxDrawdown float64
	SharpeLike  float64
	RegimeStats
}

// MinSlicePoints 切片统计所需的最少点数。
const MinSlicePoints = 10

// ComputeSlice 统计 samples[start:end]。end 截断到序列长度；总点数或切片点数少于 10 时返回 ok=false。
func ComputeSlice(samples []Sample, start, end int, cfg RegimeConfig) (SliceStats, bool) {
	if len(samples) < MinSlicePoints {
		return SliceStats{}, false
	}
	start = max(0, start)
	end = min(len(samples), end)
	if end-start < MinSlicePoints {
		return SliceStats{}, false
	}
	sl := samples[start:end]
	eq := make([]float64, len(sl))
	for i, s := range sl {
		eq[i] = s.Equity
	}
	returns := market.SimpleReturns(eq)
	total := 0.0
	if eq[0] > 0 {
		total = eq[len(eq)-1]/eq[0] - 1
	}
	return SliceStats{
		StartTs:     sl[0].Ts,
		EndTs:       sl[len(sl)-1].Ts,
		Points:      len(sl),
		EquityStart: eq[0],
		EquityEnd:   eq[len(eq)-1],
		TotalReturn: total,
		MaxDrawdown: MaxDrawdown(eq),
		SharpeLike:  SharpeLike(returns),
		RegimeStats: ComputeRegime(returns, cfg),
	}, true
}
