package walkforward

import (
	"math"

	"paper-evolve/performance"
)

// Sentinel 不可行结果的分数。
const Sentinel = -1e9

// 评分原因；不可行原因按检查顺序排列。
const (
	ReasonOK        = "ok"
	ReasonMinFills  = "min_fills"
	ReasonDrawdown  = "drawdown"
	ReasonEquity    = "equity"
	ReasonRegime    = "regime"
	ReasonNoStats   = "no_stats"
	ReasonNoOKFolds = "no_ok_folds"
)

// DefaultBaseline 权益基准（起始资金）。
const DefaultBaseline = 1000.0

// Objective 评分权重。
type Objective struct {
	WSharpe   float64 `yaml:"w_sharpe" json:"w_sharpe"`
	WEquity   float64 `yaml:"w_equity" json:"w_equity"`
	WDrawdown float64 `yaml:"w_drawdown" json:"w_drawdown"`
	WFills    float64 `yaml:"w_fills" json:"w_fills"`
}

func DefaultObjective() Objective {
	return Objective{WSharpe: 1}
}

// Constraints 可行性门槛。
type Constraints struct {
	MinFills       int     `yaml:"min_fills" json:"min_fills"`
	MaxDrawdown    float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
	RegimeRequired bool    `yaml:"regime_required" json:"regime_required"`
	MinPointsEach  int     `yaml:"min_points_each_regime" json:"min_points_each_regime"`
}

func DefaultConstraints() Constraints {
	return Constraints{MaxDrawdown: 1}
}

// Score 评分结果。
type Score struct {
	OK     bool    `json:"ok"`
	Value  float64 `json:"score"`
	Reason string  `json:"reason"`
}

func infeasible(reason string) Score {
	return Score{Value: Sentinel, Reason: reason}
}

// Fitness 纯函数评分：结果只取决于汇总、权重与门槛。
type Fitness struct {
	Objective   Objective
	Constraints Constraints
	Baseline    float64
}

// Evaluate 先过门槛，再计算
// wS*(0.55*sharpe_high+0.45*sharpe_low) + wE*(equity-baseline)/baseline - wD*dd + wF*min(1, fills/50)。
func (f Fitness) Evaluate(s performance.Summary) Score {
	c := f.Constraints
	if s.Fills < c.MinFills {
		return infeasible(ReasonMinFills)
	}
	if s.MaxDrawdown > c.MaxDrawdown {
		return infeasible(ReasonDrawdown)
	}
	if s.Equity <= 0 {
		return infeasible(ReasonEquity)
	}
	if c.RegimeRequired {
		if !s.RegimeOK || s.PointsLow < c.MinPointsEach || s.PointsHigh < c.MinPointsEach {
			return infeasible(ReasonRegime)
		}
	}

	low, high := s.SharpeLow, s.SharpeHigh
	if s.PointsLow == 0 && s.PointsHigh == 0 {
		// 未做分档时两档都用整体值
		low, high = s.SharpeLike, s.SharpeLike
	}
	base := f.Baseline
	if base <= 0 {
		base = DefaultBaseline
	}
	o := f.Objective
	val := o.WSharpe*(0.55*high+0.45*low) +
		o.WEquity*((s.Equity-base)/base) -
		o.WDrawdown*s.MaxDrawdown +
		o.WFills*math.Min(1, float64(s.Fills)/50)
	return Score{OK: true, Value: val, Reason: ReasonOK}
}
