package strategy

import (
	"errors"
	"math"

	"paper-evolve/order"
)

// DependencyConfig 领先/跟随两个标的之间的线性依赖策略参数。
type DependencyConfig struct {
	Leader          string  `yaml:"leader"`
	Follower        string  `yaml:"follower"`
	TriggerMovePct  float64 `yaml:"trigger_move_pct"` // 领先标的单步变动阈值（小数）
	MinGapPct       float64 `yaml:"min_gap_pct"`      // 公允价偏离阈值（小数）
	Beta            float64 `yaml:"beta"`
	Intercept       float64 `yaml:"intercept"`
	SentimentWeight float64 `yaml:"sentiment_weight"` // 新闻情绪乘数，本模块不消费
	LimitOffset     float64 `yaml:"limit_offset"`     // 限价相对中间价的偏移
	CashFraction    float64 `yaml:"cash_fraction"`    // 每次下单占现金比例
	MaxNotional     float64 `yaml:"max_notional"`
}

// DefaultDependencyConfig 默认参数。
func DefaultDependencyConfig() DependencyConfig {
	return DependencyConfig{
		Leader:         "MARKET_A",
		Follower:       "MARKET_B",
		TriggerMovePct: 0.03,
		MinGapPct:      0.02,
		Beta:           1.0,
		Intercept:      0.0,
		LimitOffset:    0.001,
		CashFraction:   0.02,
		MaxNotional:    25,
	}
}

// Validate 检查参数。
func (c DependencyConfig) Validate() error {
	if c.Leader == "" || c.Follower == "" {
		return errors.New("dependency leader/follower required")
	}
	if c.Leader == c.Follower {
		return errors.New("dependency leader and follower must differ")
	}
	if c.TriggerMovePct < 0 || c.MinGapPct < 0 {
		return errors.New("dependency thresholds must be >= 0")
	}
	if c.LimitOffset < 0 || c.LimitOffset >= 1 {
		return errors.New("dependency limit_offset must be in [0,1)")
	}
	if c.CashFraction <= 0 || c.MaxNotional <= 0 {
		return errors.New("dependency sizing must be > 0")
	}
	return nil
}

// Engine 依赖策略：领先标的大幅变动后，若跟随标的偏离线性公允价则下单。
type Engine struct {
	cfg        DependencyConfig
	lastLeader float64
	hasLast    bool
}

func NewEngine(cfg DependencyConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config 返回当前参数。
func (e *Engine) Config() DependencyConfig { return e.cfg }

// FairFollower clip(intercept + beta*leader, 0.01, 0.99)。
func (e *Engine) FairFollower(leaderMid float64) float64 {
	return math.Max(0.01, math.Min(0.99, e.cfg.Intercept+e.cfg.Beta*leaderMid))
}

// OnTick 输入两边中间价与可用现金，返回需要提交的下单意图。首个 tick 只记录领先价。
func (e *Engine) OnTick(leaderMid, followerMid, cash float64) (order.Intent, bool) {
	if !e.hasLast {
		e.lastLeader = leaderMid
		e.hasLast = true
		return order.Intent{}, false
	}
	move := math.Abs(leaderMid-e.lastLeader) / math.Max(e.lastLeader, 1e-9)
	e.lastLeader = leaderMid
	if move < e.cfg.TriggerMovePct || followerMid <= 0 {
		return order.Intent{}, false
	}

	gap := (e.FairFollower(leaderMid) - followerMid) / math.Max(followerMid, 1e-9)
	if math.Abs(gap) < e.cfg.MinGapPct {
		return order.Intent{}, false
	}

	side := order.Sell
	limit := followerMid * (1 - e.cfg.LimitOffset)
	if gap > 0 {
		side = order.Buy
		limit = followerMid * (1 + e.cfg.LimitOffset)
	}
	notional := math.Min(cash*e.cfg.CashFraction, e.cfg.MaxNotional)
	if notional <= 0 {
		return order.Intent{}, false
	}
	return order.Intent{
		Instrument: e.cfg.Follower,
		Side:       side,
		LimitPrice: limit,
		Notional:   notional,
	}, true
}
