package walkforward

import (
	"paper-evolve/performance"
)

// FoldResult 单个窗口的评分。
type FoldResult struct {
	Index  int     `json:"fold_idx"`
	Start  int     `json:"start_idx"`
	End    int     `json:"end_idx"`
	OK     bool    `json:"ok"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Result 一次运行的 walk-forward 评分。
type Result struct {
	OK     bool         `json:"ok"`
	Score  float64      `json:"score"`
	Reason string       `json:"reason"`
	Folds  []FoldResult `json:"folds"`
}

// Scorer 对运行产出按波动率均衡的窗口逐段评分后聚合。
type Scorer struct {
	cfg     Config
	regime  performance.RegimeConfig
	fitness Fitness
}

func NewScorer(cfg Config, regime performance.RegimeConfig, fitness Fitness) *Scorer {
	return &Scorer{cfg: cfg, regime: regime, fitness: fitness}
}

// Windows 选出的窗口；没有合格窗口时退回 [0, min(MinFoldPoints, len))。
func (s *Scorer) Windows(art *performance.Artifact) []FoldWindow {
	var windows []FoldWindow
	if s.cfg.VolBalanced {
		windows = SelectFolds(art.Mids, s.cfg)
	}
	if len(windows) == 0 {
		end := min(s.cfg.MinFoldPoints(), len(art.Equity))
		windows = []FoldWindow{{Start: 0, End: end, Points: end}}
	}
	return windows
}

// Score 对各窗口评分；通过门槛的窗口取均值，两个以上时再减去 penalty*std。
func (s *Scorer) Score(art *performance.Artifact) Result {
	windows := s.Windows(art)
	folds := make([]FoldResult, 0, len(windows))
	var passed []float64
	for i, w := range windows {
		fr := FoldResult{Index: i, Start: w.Start, End: w.End}
		st, ok := performance.ComputeSlice(art.Equity, w.Start, w.End, s.regime)
		if !ok {
			fr.Score, fr.Reason = Sentinel, ReasonNoStats
			folds = append(folds, fr)
			continue
		}
		sc := s.fitness.Evaluate(performance.Summary{
			Ts:          st.EndTs,
			Equity:      st.EquityEnd,
			Fills:       art.Fills,
			MaxDrawdown: st.MaxDrawdown,
			SharpeLike:  st.SharpeLike,
			RegimeStats: st.RegimeStats,
		})
		fr.OK, fr.Score, fr.Reason = sc.OK, sc.Value, sc.Reason
		if sc.OK {
			passed = append(passed, sc.Value)
		}
		folds = append(folds, fr)
	}

	if len(passed) == 0 {
		return Result{Score: Sentinel, Reason: ReasonNoOKFolds, Folds: folds}
	}
	avg := 0.0
	for _, v := range passed {
		avg += v
	}
	avg /= float64(len(passed))
	if len(passed) >= 2 {
		_, std := performance.MeanStd(passed)
		avg -= s.cfg.InstabilityPenalty * std
	}
	return Result{OK: true, Score: avg, Reason: ReasonOK, Folds: folds}
}
