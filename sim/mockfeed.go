package sim

import (
	"context"
	"io"
	"math"
	"math/rand"
	"time"

	"paper-evolve/market"
	"paper-evolve/strategy"
)

// MockFeedConfig 合成行情参数。
type MockFeedConfig struct {
	StartLeader   float64   `yaml:"start_leader"`
	StartFollower float64   `yaml:"start_follower"`
	Start         time.Time `yaml:"start"`
	ReseedEvery   int       `yaml:"reseed_every_ticks"` // 跟随标的深度重建间隔
	Levels        int       `yaml:"levels"`
	LevelStep     float64   `yaml:"level_step"`
	LevelSize     float64   `yaml:"level_size"`
	HalfSpread    float64   `yaml:"half_spread"`
	CalmSigma     float64   `yaml:"calm_sigma"`
	WildSigma     float64   `yaml:"wild_sigma"`
	SwitchProb    float64   `yaml:"switch_prob"` // 每 tick 切换波动状态的概率
	Reversion     float64   `yaml:"reversion"`
	MaxTicks      int       `yaml:"max_ticks"` // 0 表示无限
}

func DefaultMockFeedConfig() MockFeedConfig {
	return MockFeedConfig{
		StartLeader:   0.5,
		StartFollower: 0.5,
		Start:         time.Unix(1700000000, 0).UTC(),
		ReseedEvery:   25,
		Levels:        59,
		LevelStep:     0.001,
		LevelSize:     500,
		HalfSpread:    0.001,
		CalmSigma:     0.0005,
		WildSigma:     0.004,
		SwitchProb:    0.01,
		Reversion:     0.01,
	}
}

// MockFeed 确定性的领先/跟随合成行情：周期性跳变 + 状态切换的高斯噪声 + 均值回归。
type MockFeed struct {
	cfg      MockFeedConfig
	leader   string
	follower string
	interval time.Duration
	rng      *rand.Rand

	n        int
	a, b     float64
	volatile bool
}

func NewMockFeed(cfg MockFeedConfig, dep strategy.DependencyConfig, interval time.Duration, rng *rand.Rand) *MockFeed {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	if cfg.Levels <= 0 {
		cfg.Levels = 59
	}
	if cfg.LevelStep <= 0 {
		cfg.LevelStep = 0.001
	}
	return &MockFeed{
		cfg:      cfg,
		leader:   dep.Leader,
		follower: dep.Follower,
		interval: interval,
		rng:      rng,
		a:        cfg.StartLeader,
		b:        cfg.StartFollower,
	}
}

func clip(x float64) float64 { return math.Max(0.01, math.Min(0.99, x)) }

// Next 生成下一个 tick；时间戳按 interval 虚拟推进。
func (f *MockFeed) Next(ctx context.Context) (market.Tick, error) {
	if err := ctx.Err(); err != nil {
		return market.Tick{}, err
	}
	if f.cfg.MaxTicks > 0 && f.n >= f.cfg.MaxTicks {
		return market.Tick{}, io.EOF
	}
	reseed := f.n == 0 || (f.cfg.ReseedEvery > 0 && f.n%f.cfg.ReseedEvery == 0)
	if f.n > 0 {
		f.move()
	}
	ts := f.cfg.Start.Add(time.Duration(f.n) * f.interval)
	f.n++

	tick := market.Tick{
		Ts: ts,
		Tops: []market.TopOfBook{
			market.NewTopOfBook(f.leader, ts, f.a-f.cfg.HalfSpread, f.a+f.cfg.HalfSpread),
			market.NewTopOfBook(f.follower, ts, f.b-f.cfg.HalfSpread, f.b+f.cfg.HalfSpread),
		},
	}
	if reseed {
		tick.Snapshots = []market.Snapshot{f.seedBook(f.b)}
	}
	return tick, nil
}

func (f *MockFeed) move() {
	if f.rng.Float64() < f.cfg.SwitchProb {
		f.volatile = !f.volatile
	}
	sigma := f.cfg.CalmSigma
	if f.volatile {
		sigma = f.cfg.WildSigma
	}
	jumpA, jumpB := -0.001, -0.0008
	if f.n%17 == 0 {
		jumpA = 0.004
	}
	if f.n%19 == 0 {
		jumpB = 0.002
	}
	f.a = clip(f.a + jumpA + f.cfg.Reversion*(f.cfg.StartLeader-f.a) + sigma*f.rng.NormFloat64())
	f.b = clip(f.b + jumpB + f.cfg.Reversion*(f.cfg.StartFollower-f.b) + sigma*f.rng.NormFloat64())
}

func (f *MockFeed) seedBook(mid float64) market.Snapshot {
	snap := market.Snapshot{
		Instrument: f.follower,
		Bids:       make([]market.Level, 0, f.cfg.Levels),
		Asks:       make([]market.Level, 0, f.cfg.Levels),
	}
	for i := 1; i <= f.cfg.Levels; i++ {
		off := float64(i) * f.cfg.LevelStep
		if px := round4(mid - off); px > 0 {
			snap.Bids = append(snap.Bids, market.Level{Price: px, Size: f.cfg.LevelSize})
		}
		snap.Asks = append(snap.Asks, market.Level{Price: round4(mid + off), Size: f.cfg.LevelSize})
	}
	return snap
}

func round4(x float64) float64 { return math.Round(x*1e4) / 1e4 }
