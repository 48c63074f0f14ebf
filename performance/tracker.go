package performance

import (
	"sync"
	"time"

	"paper-evolve/market"
)

// Config 绩效跟踪参数。
type Config struct {
	ReturnsWindow int          `yaml:"returns_window_points"`
	Regime        RegimeConfig `yaml:"regime"`
}

func DefaultConfig() Config {
	return Config{ReturnsWindow: 720, Regime: DefaultRegimeConfig()}
}

// Account 采样时刻的账户状态。
type Account struct {
	Ts         time.Time
	Equity     float64
	Cash       float64
	Realized   float64
	Unrealized float64
	Fills      int
}

// Summary 滚动绩效汇总。
type Summary struct {
	Ts          time.Time `json:"ts"`
	Equity      float64   `json:"equity"`
	Cash        float64   `json:"cash"`
	Realized    float64   `json:"realized_pnl"`
	Unrealized  float64   `json:"unrealized_pnl"`
	Fills       int       `json:"fills"`
	MaxDrawdown float64   `json:"max_drawdown_pct"`
	SharpeLike  float64   `json:"sharpe_like"`
	RegimeStats
}

// Tracker 保留最多 3×ReturnsWindow 个权益点用于滚动统计。
type Tracker struct {
	mu      sync.RWMutex
	cfg     Config
	samples []Sample
	last    Account
}

func NewTracker(cfg Config) *Tracker {
	if cfg.ReturnsWindow <= 0 {
		cfg.ReturnsWindow = DefaultConfig().ReturnsWindow
	}
	return &Tracker{cfg: cfg}
}

// Update 追加一个权益点。
func (t *Tracker) Update(a Account) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = append(t.samples, Sample{Ts: a.Ts, Equity: a.Equity})
	if limit := t.cfg.ReturnsWindow * 3; len(t.samples) > limit {
		t.samples = append(t.samples[:0], t.samples[len(t.samples)-limit:]...)
	}
	t.last = a
}

// Len 缓冲点数。
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.samples)
}

// Summary 基于最近 ReturnsWindow 个点（不足 11 个点时用全部）计算；少于 3 个点时统计项为 0。
func (t *Tracker) Summary() Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := Summary{
		Ts:         t.last.Ts,
		Equity:     t.last.Equity,
		Cash:       t.last.Cash,
		Realized:   t.last.Realized,
		Unrealized: t.last.Unrealized,
		Fills:      t.last.Fills,
	}
	window := t.samples
	if len(window) > 10 && len(window) > t.cfg.ReturnsWindow {
		window = window[len(window)-t.cfg.ReturnsWindow:]
	}
	if len(window) < 3 {
		return s
	}
	eq := make([]float64, len(window))
	for i, p := range window {
		eq[i] = p.Equity
	}
	returns := market.SimpleReturns(eq)
	s.MaxDrawdown = MaxDrawdown(eq)
	s.SharpeLike = SharpeLike(returns)
	if t.cfg.Regime.Enabled {
		s.RegimeStats = ComputeRegime(returns, t.cfg.Regime)
	}
	return s
}

// Artifact 一次模拟运行的产出，供评分使用。
type Artifact struct {
	RunID   string    `json:"run_id"`
	Tag     string    `json:"tag"`
	Equity  []Sample  `json:"equity"`
	Mids    []float64 `json:"mids"`
	Fills   int       `json:"fills"`
	Summary Summary   `json:"summary"`
	Meta    any       `json:"meta,omitempty"`
}
