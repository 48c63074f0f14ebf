package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"paper-evolve/gateway"
	"paper-evolve/infrastructure/logger"
	"paper-evolve/infrastructure/monitor"
	"paper-evolve/journal"
	"paper-evolve/market"
	"paper-evolve/order"
	"paper-evolve/performance"
	"paper-evolve/posttrade"
	"paper-evolve/strategy"
)

var (
	// ErrNoBook 目标标的从未收到深度数据。
	ErrNoBook = errors.New("no book")
	// ErrDropped 订单在传输中丢失。
	ErrDropped = errors.New("dropped")
)

// 下单尝试结果
const (
	OutcomeFilled   = "filled"
	OutcomeDropped  = "dropped"
	OutcomeNoBook   = "no_book"
	OutcomeRejected = "rejected"
)

// Config 一个模拟实例的全部参数（值类型，运行期间不变）。
type Config struct {
	Tag             string                            `yaml:"tag"`
	Seed            int64                             `yaml:"seed"`
	Broker          BrokerConfig                      `yaml:"broker"`
	MaxBookLevels   int                               `yaml:"max_book_levels"`
	Region          string                            `yaml:"region"`
	LatencyProfiles map[string]gateway.LatencyProfile `yaml:"latency_profiles"`
	AdvSel          posttrade.AdvSelConfig            `yaml:"advsel"`
	Performance     performance.Config                `yaml:"performance"`
	Strategy        strategy.DependencyConfig         `yaml:"dependency"`
	Mock            MockFeedConfig                    `yaml:"mock"`
	TickInterval    time.Duration                     `yaml:"tick_interval"`
	MicroCapacity   int                               `yaml:"micro_capacity"`
	SummaryEvery    int                               `yaml:"summary_every_ticks"`
	MaxTicks        int                               `yaml:"max_ticks"`
}

// DefaultConfig 默认参数。
func DefaultConfig() Config {
	return Config{
		Tag:           "paper",
		Seed:          1337,
		Broker:        DefaultBrokerConfig(),
		MaxBookLevels: market.DefaultMaxLevels,
		Region:        "us-central",
		LatencyProfiles: map[string]gateway.LatencyProfile{
			"us-central": gateway.DefaultLatencyProfile(),
		},
		AdvSel:        posttrade.DefaultAdvSelConfig(),
		Performance:   performance.DefaultConfig(),
		Strategy:      strategy.DefaultDependencyConfig(),
		Mock:          DefaultMockFeedConfig(),
		TickInterval:  200 * time.Millisecond,
		MicroCapacity: market.DefaultMicroCapacity,
		SummaryEvery:  75,
	}
}

// Deps 运行时依赖；nil 字段使用默认实现。
type Deps struct {
	Feed  market.Feed
	Rng   *rand.Rand
	Sleep gateway.SleepFunc
	Sink  journal.Sink
	Log   *logger.Logger
	Mon   *monitor.Monitor
}

// Runner 单线程 tick 循环：行情 → 策略 → 延迟 → 逆向选择 → FOK 撮合 → 记账 → 权益采样。
type Runner struct {
	cfg     Config
	runID   string
	feed    market.Feed
	sleep   gateway.SleepFunc
	sink    journal.Sink
	log     *logger.Logger
	mon     *monitor.Monitor
	books   *market.BookStore
	tops    *market.Service
	micro   *market.MicrostructureTracker
	latency *gateway.LatencyModel
	broker  *PaperBroker
	perf    *performance.Tracker
	strat   *strategy.Engine

	ticks    int
	equity   []performance.Sample
	mids     []float64
	sinkErrs int
}

// NewRunner 组装一个独立的模拟实例；每个实例拥有自己的深度、账本和缓冲。
func NewRunner(runID string, cfg Config, deps Deps) (*Runner, error) {
	strat, err := strategy.NewEngine(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	rng := deps.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}
	if deps.Sleep == nil {
		deps.Sleep = gateway.ContextSleep
	}
	if deps.Sink == nil {
		deps.Sink = journal.Discard{}
	}
	if deps.Feed == nil {
		deps.Feed = NewMockFeed(cfg.Mock, cfg.Strategy, cfg.TickInterval, rng)
	}
	return &Runner{
		cfg:     cfg,
		runID:   runID,
		feed:    deps.Feed,
		sleep:   deps.Sleep,
		sink:    deps.Sink,
		log:     logger.OrNop(deps.Log).WithFields(map[string]interface{}{"run_id": runID}),
		mon:     deps.Mon,
		books:   market.NewBookStore(cfg.MaxBookLevels),
		tops:    market.NewService(),
		micro:   market.NewMicrostructureTracker(cfg.MicroCapacity),
		latency: gateway.NewLatencyModel(cfg.LatencyProfiles, cfg.Region, rng, deps.Sleep),
		broker:  NewPaperBroker(cfg.Broker),
		perf:    performance.NewTracker(cfg.Performance),
		strat:   strat,
	}, nil
}

// RunID 运行标识。
func (r *Runner) RunID() string { return r.runID }

// Broker 纸面券商。
func (r *Runner) Broker() *PaperBroker { return r.broker }

// Run 执行 tick 循环直到 ctx 结束、行情耗尽或达到 MaxTicks。ctx 结束属于正常停止，
// 不返回错误；已采集的数据总会生成 artifact。
func (r *Runner) Run(ctx context.Context) (*performance.Artifact, error) {
	r.noteSinkErr("meta", r.sink.Meta(journal.Meta{RunID: r.runID, Tag: r.cfg.Tag, CreatedAt: time.Now().UTC(), Config: r.cfg}))
	var runErr error
	for r.cfg.MaxTicks <= 0 || r.ticks < r.cfg.MaxTicks {
		if err := r.step(ctx); err != nil {
			if !isStop(ctx, err) {
				runErr = err
			}
			break
		}
	}
	art := r.Artifact()
	r.log.Info("run finished",
		zap.Int("ticks", r.ticks),
		zap.Int("fills", art.Fills),
		zap.Float64("equity", art.Summary.Equity),
		zap.Float64("max_drawdown", art.Summary.MaxDrawdown),
		zap.Int("journal_errors", r.sinkErrs))
	return art, runErr
}

func isStop(ctx context.Context, err error) bool {
	return errors.Is(err, io.EOF) || ctx.Err() != nil
}

func (r *Runner) step(ctx context.Context) error {
	if r.cfg.TickInterval > 0 {
		if err := r.sleep(ctx, r.cfg.TickInterval); err != nil {
			return err
		}
	}
	tick, err := r.feed.Next(ctx)
	if err != nil {
		return err
	}
	r.ticks++
	r.apply(tick)

	follower := r.cfg.Strategy.Follower
	followerMid, ok := r.tops.Mid(follower)
	if !ok {
		return nil
	}
	if leaderMid, ok := r.tops.Mid(r.cfg.Strategy.Leader); ok {
		if intent, ok := r.strat.OnTick(leaderMid, followerMid, r.broker.Cash()); ok {
			if err := r.attempt(ctx, tick.Ts, intent); err != nil {
				return err
			}
		}
	}
	r.sample(tick.Ts, follower, followerMid)
	return nil
}

func (r *Runner) apply(tick market.Tick) {
	for _, snap := range tick.Snapshots {
		r.books.ApplySnapshot(snap)
	}
	for _, top := range tick.Tops {
		r.tops.OnTopOfBook(top)
		if top.Instrument == r.cfg.Strategy.Follower {
			r.micro.OnTopOfBook(top)
		}
	}
}

// attempt 至多一个在途订单；延迟等待只挂起本次尝试。
func (r *Runner) attempt(ctx context.Context, ts time.Time, intent order.Intent) error {
	delivered, lat, err := r.latency.Wait(ctx)
	if err != nil {
		return err
	}
	if !delivered {
		r.record(ts, intent, 0, OutcomeDropped, ErrDropped.Error())
		return nil
	}
	r.mon.RecordOrderLatency(lat.Seconds())

	var pen posttrade.Penalty
	if st, ok := r.micro.StatsOver(lat); ok {
		pen = r.cfg.AdvSel.Compute(st.AbsMovePct)
	}

	book, ok := r.books.Book(intent.Instrument)
	if !ok {
		r.record(ts, intent, lat, OutcomeNoBook, ErrNoBook.Error())
		return nil
	}

	reason := fmt.Sprintf("dep(lat=%dms extra=%.1f shrink=%.2f)", lat.Milliseconds(), pen.ExtraSlippageBps, pen.LiquidityShrink)
	fill, err := r.broker.TryFill(ts.Add(lat), intent, book, pen.ExtraSlippageBps, pen.LiquidityShrink, reason)
	if err != nil {
		r.record(ts, intent, lat, OutcomeRejected, err.Error())
		return nil
	}
	r.record(ts, intent, lat, OutcomeFilled, OutcomeFilled)
	r.mon.RecordFill(string(fill.Side), fill.Notional)
	r.log.LogFill(fill.Instrument, string(fill.Side), fill.AvgPrice, fill.Notional, fill.Quantity, fill.Reason)
	r.noteSinkErr("fill", r.sink.Fill(journal.Fill{RunID: r.runID, Fill: fill}))
	return nil
}

func (r *Runner) record(ts time.Time, intent order.Intent, lat time.Duration, outcome, reason string) {
	r.mon.RecordAttempt(outcome)
	r.log.LogAttempt(intent.Instrument, string(intent.Side), intent.LimitPrice, intent.Notional, lat, outcome, reason)
	r.noteSinkErr("attempt", r.sink.Attempt(journal.Attempt{
		Ts:         ts,
		RunID:      r.runID,
		Instrument: intent.Instrument,
		Side:       intent.Side,
		LimitPrice: intent.LimitPrice,
		Notional:   intent.Notional,
		LatencyMs:  float64(lat) / float64(time.Millisecond),
		Outcome:    outcome,
		Reason:     reason,
	}))
}

// noteSinkErr 只在第一次写入失败时告警，之后仅计数。
func (r *Runner) noteSinkErr(record string, err error) {
	if err == nil {
		return
	}
	r.sinkErrs++
	if r.sinkErrs == 1 {
		r.log.Warn("journal write failed", zap.String("record", record), zap.Error(err))
	}
}

// JournalErrors 本次运行中失败的记录写入次数。
func (r *Runner) JournalErrors() int { return r.sinkErrs }

// sample 每个 tick 在下单尝试之后采样一次，权益与中间价序列一一对应。
func (r *Runner) sample(ts time.Time, follower string, followerMid float64) {
	mids := r.tops.Mids()
	acct := performance.Account{
		Ts:         ts,
		Equity:     r.broker.Equity(mids),
		Cash:       r.broker.Cash(),
		Realized:   r.broker.Realized(),
		Unrealized: r.broker.Unrealized(mids),
		Fills:      r.broker.FillCount(),
	}
	r.perf.Update(acct)
	r.equity = append(r.equity, performance.Sample{Ts: ts, Equity: acct.Equity})
	r.mids = append(r.mids, followerMid)
	r.mon.UpdateEquity(acct.Equity)

	r.noteSinkErr("equity", r.sink.Equity(journal.Equity{
		Ts:         ts,
		RunID:      r.runID,
		Equity:     acct.Equity,
		Cash:       acct.Cash,
		Realized:   acct.Realized,
		Unrealized: acct.Unrealized,
		Fills:      acct.Fills,
	}))
	r.noteSinkErr("mid", r.sink.Mid(journal.Mid{Ts: ts, RunID: r.runID, Instrument: follower, Mid: followerMid}))

	if r.cfg.SummaryEvery > 0 && len(r.equity)%r.cfg.SummaryEvery == 0 {
		s := r.perf.Summary()
		r.mon.UpdateMaxDrawdown(s.MaxDrawdown)
		r.log.Info("performance summary",
			zap.Float64("equity", s.Equity),
			zap.Int("fills", s.Fills),
			zap.Float64("max_drawdown_pct", s.MaxDrawdown),
			zap.Float64("sharpe_like", s.SharpeLike),
			zap.Int("points_low", s.PointsLow),
			zap.Int("points_high", s.PointsHigh),
			zap.Bool("regime_ok", s.RegimeOK))
	}
}

// Artifact 当前运行产出的快照。
func (r *Runner) Artifact() *performance.Artifact {
	return &performance.Artifact{
		RunID:   r.runID,
		Tag:     r.cfg.Tag,
		Equity:  append([]performance.Sample(nil), r.equity...),
		Mids:    append([]float64(nil), r.mids...),
		Fills:   r.broker.FillCount(),
		Summary: r.perf.Summary(),
		Meta:    r.cfg,
	}
}
