package evolution

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"paper-evolve/infrastructure/logger"
	"paper-evolve/infrastructure/monitor"
	"paper-evolve/performance"
	"paper-evolve/sim"
	"paper-evolve/walkforward"
)

// ErrNoArtifact 评估实例没有产出。
var ErrNoArtifact = errors.New("no summary")

// ReasonNoSummary 没有产出时的评分原因。
const ReasonNoSummary = "no summary"

// Runner 模拟运行能力：启动带标签的实例，并在截止时间前后取回产出。
type Runner interface {
	Start(ctx context.Context, tag string, cfg sim.Config) (sim.Handle, error)
	Await(ctx context.Context, h sim.Handle, deadline time.Time) (*performance.Artifact, error)
}

// Annealing 变异率/强度随代数线性退火。
type Annealing struct {
	Enabled       bool    `yaml:"enabled"`
	RateStart     float64 `yaml:"mutation_rate_start"`
	RateEnd       float64 `yaml:"mutation_rate_end"`
	StrengthStart float64 `yaml:"mutation_strength_start"`
	StrengthEnd   float64 `yaml:"mutation_strength_end"`
}

func DefaultAnnealing() Annealing {
	return Annealing{Enabled: true, RateStart: 0.45, RateEnd: 0.15, StrengthStart: 0.25, StrengthEnd: 0.08}
}

// 关闭退火时的固定值
const (
	FixedMutationRate     = 0.35
	FixedMutationStrength = 0.18
)

// Schedule 第 gen 代（从 1 开始）的变异率与强度。
func (a Annealing) Schedule(gen, generations int) (rate, strength float64) {
	if !a.Enabled {
		return FixedMutationRate, FixedMutationStrength
	}
	t := 0.5
	if generations > 1 {
		t = float64(gen-1) / float64(generations-1)
	}
	return lerp(a.RateStart, a.RateEnd, t), lerp(a.StrengthStart, a.StrengthEnd, t)
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// Config 进化参数。
type Config struct {
	Generations     int                     `yaml:"generations"`
	Population      int                     `yaml:"population"`
	Elite           int                     `yaml:"elite"`
	MaxParallel     int                     `yaml:"max_parallel"`
	EvalDuration    time.Duration           `yaml:"eval_duration"`
	MaxTicksPerEval int                     `yaml:"max_ticks_per_eval"`
	Seed            int64                   `yaml:"seed"`
	Annealing       Annealing               `yaml:"annealing"`
	Space           Space                   `yaml:"space"`
	Objective       walkforward.Objective   `yaml:"objective"`
	Constraints     walkforward.Constraints `yaml:"constraints"`
	WalkForward     walkforward.Config      `yaml:"walkforward"`
}

func DefaultConfig() Config {
	return Config{
		Generations:  4,
		Population:   8,
		Elite:        2,
		MaxParallel:  2,
		EvalDuration: 2 * time.Minute,
		Seed:         1337,
		Annealing:    DefaultAnnealing(),
		Space:        DefaultSpace(),
		Objective:    walkforward.DefaultObjective(),
		Constraints:  walkforward.DefaultConstraints(),
		WalkForward:  walkforward.DefaultConfig(),
	}
}

// Validate 返回第一个不合法的参数。
func (c Config) Validate() error {
	switch {
	case c.Generations < 1:
		return fmt.Errorf("evolution generations must be >= 1")
	case c.Population < 1:
		return fmt.Errorf("evolution population must be >= 1")
	case c.Elite < 1 || c.Elite > c.Population:
		return fmt.Errorf("evolution elite must be in [1, population]")
	case c.MaxParallel < 1:
		return fmt.Errorf("evolution max_parallel must be >= 1")
	case c.EvalDuration <= 0:
		return fmt.Errorf("evolution eval_duration must be > 0")
	}
	return c.Space.Validate()
}

// Result 一个基因组的评估结果。
type Result struct {
	Tag    string                   `json:"tag"`
	RunID  string                   `json:"run_id,omitempty"`
	Genome Genome                   `json:"genome"`
	Score  float64                  `json:"score"`
	OK     bool                     `json:"ok"`
	Reason string                   `json:"reason"`
	Equity float64                  `json:"equity"`
	Folds  []walkforward.FoldResult `json:"rolling_walkforward,omitempty"`
}

// GenerationReport 每代结束时的汇总。
type GenerationReport struct {
	Gen      int      `json:"gen"`
	Rate     float64  `json:"mutation_rate"`
	Strength float64  `json:"mutation_strength"`
	Feasible int      `json:"feasible"`
	Ranked   []Result `json:"ranked"`
}

// Engine 分代遗传搜索；每代最多 MaxParallel 个评估并发运行，各自拥有独立的模拟实例。
type Engine struct {
	cfg     Config
	base    sim.Config
	runner  Runner
	scorer  *walkforward.Scorer
	fitness walkforward.Fitness
	rng     *rand.Rand
	log     *logger.Logger
	mon     *monitor.Monitor

	// OnGeneration 每代排序完成后调用。
	OnGeneration func(GenerationReport)
}

func NewEngine(cfg Config, base sim.Config, runner Runner, log *logger.Logger, mon *monitor.Monitor) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if runner == nil {
		return nil, errors.New("evolution runner is required")
	}
	fitness := walkforward.Fitness{
		Objective:   cfg.Objective,
		Constraints: cfg.Constraints,
		Baseline:    base.Broker.StartingCash,
	}
	return &Engine{
		cfg:     cfg,
		base:    base,
		runner:  runner,
		scorer:  walkforward.NewScorer(cfg.WalkForward, base.Performance.Regime, fitness),
		fitness: fitness,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		log:     logger.OrNop(log),
		mon:     mon,
	}, nil
}

// Run 跑满 Generations 代，返回最后一代按分数降序排列的结果。
// ctx 取消时返回已完成代的最新排序与 ctx 错误。
func (e *Engine) Run(ctx context.Context) ([]Result, error) {
	pop := make([]Genome, e.cfg.Population)
	for i := range pop {
		pop[i] = Random(e.rng, e.cfg.Space)
	}

	var ranked []Result
	for gen := 1; gen <= e.cfg.Generations; gen++ {
		rate, strength := e.cfg.Annealing.Schedule(gen, e.cfg.Generations)

		tags := make([]string, len(pop))
		for i := range pop {
			tags[i] = fmt.Sprintf("evo-gen%02d-v%02d", gen, i)
		}
		results := e.evaluateAll(ctx, tags, pop)
		if err := ctx.Err(); err != nil {
			if ranked == nil {
				ranked = Rank(results)
			}
			return ranked, err
		}
		ranked = Rank(results)
		elites := Elites(ranked, e.cfg.Elite)

		report := GenerationReport{Gen: gen, Rate: rate, Strength: strength, Feasible: countFeasible(ranked), Ranked: ranked}
		e.reportGeneration(report)

		if gen < e.cfg.Generations {
			pop = e.breed(elites, rate, strength)
		}
	}
	return ranked, nil
}

// RunVariants 用同样的并发上限评估一组固定参数。
func (e *Engine) RunVariants(ctx context.Context, variants []Variant) ([]Result, error) {
	tags := make([]string, len(variants))
	genomes := make([]Genome, len(variants))
	for i, v := range variants {
		tags[i] = "paper-" + v.Name
		genomes[i] = v.Genome
	}
	ranked := Rank(e.evaluateAll(ctx, tags, genomes))
	return ranked, ctx.Err()
}

// breed 精英原样保留，其余由两个随机精英交叉再变异产生；没有可行精英时整代重新随机。
func (e *Engine) breed(elites []Genome, rate, strength float64) []Genome {
	next := make([]Genome, 0, e.cfg.Population)
	if len(elites) == 0 {
		e.log.Warn("no feasible genomes, drawing a fresh population")
		for len(next) < e.cfg.Population {
			next = append(next, Random(e.rng, e.cfg.Space))
		}
		return next
	}
	for _, g := range elites {
		next = append(next, g.Clone())
	}
	for len(next) < e.cfg.Population {
		a := elites[e.rng.Intn(len(elites))]
		b := elites[e.rng.Intn(len(elites))]
		child := Crossover(e.rng, e.cfg.Space, a, b)
		next = append(next, Mutate(e.rng, child, e.cfg.Space, rate, strength))
	}
	return next
}

// evaluateAll 种子在启动前按顺序抽取，结果与调度顺序无关。
func (e *Engine) evaluateAll(ctx context.Context, tags []string, pop []Genome) []Result {
	seeds := make([]int64, len(pop))
	for i := range seeds {
		seeds[i] = e.rng.Int63()
	}

	results := make([]Result, len(pop))
	sem := make(chan struct{}, e.cfg.MaxParallel)
	var wg sync.WaitGroup
	for i := range pop {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = failed(tags[i], pop[i], ctx.Err().Error())
				return
			}
			defer func() { <-sem }()
			results[i] = e.evaluate(ctx, tags[i], pop[i], seeds[i])
		}(i)
	}
	wg.Wait()
	return results
}

func failed(tag string, g Genome, reason string) Result {
	return Result{Tag: tag, Genome: g, Score: walkforward.Sentinel, Reason: reason}
}

func (e *Engine) evaluate(ctx context.Context, tag string, g Genome, seed int64) Result {
	cfg := ApplyGenome(e.base, g, tag)
	cfg.Seed = seed
	if e.cfg.MaxTicksPerEval > 0 {
		cfg.MaxTicks = e.cfg.MaxTicksPerEval
	}

	art, err := e.run(ctx, tag, cfg)
	if err != nil {
		e.log.Warn("evaluation failed", zap.String("tag", tag), zap.Error(err))
		e.mon.RecordEvaluation("error")
		return failed(tag, g, ReasonNoSummary)
	}

	res := Result{Tag: tag, RunID: art.RunID, Genome: g, Equity: art.Summary.Equity}
	if e.cfg.WalkForward.Enabled {
		wf := e.scorer.Score(art)
		res.Score, res.OK, res.Reason, res.Folds = wf.Score, wf.OK, wf.Reason, wf.Folds
	} else {
		sc := e.fitness.Evaluate(art.Summary)
		res.Score, res.OK, res.Reason = sc.Value, sc.OK, sc.Reason
	}
	if res.OK {
		e.mon.RecordEvaluation("feasible")
	} else {
		e.mon.RecordEvaluation("infeasible")
	}
	return res
}

func (e *Engine) run(ctx context.Context, tag string, cfg sim.Config) (*performance.Artifact, error) {
	h, err := e.runner.Start(ctx, tag, cfg)
	if err != nil {
		return nil, err
	}
	art, err := e.runner.Await(ctx, h, time.Now().Add(e.cfg.EvalDuration))
	if art == nil {
		if err == nil {
			err = ErrNoArtifact
		}
		return nil, fmt.Errorf("%s: %w", h.RunID, err)
	}
	if err != nil {
		e.log.Warn("run ended with error", zap.String("run_id", h.RunID), zap.Error(err))
	}
	return art, nil
}

func (e *Engine) reportGeneration(r GenerationReport) {
	best := r.Ranked[0]
	e.log.LogGeneration(r.Gen, best.Score, best.Tag, r.Rate, r.Strength, r.Feasible, len(r.Ranked))
	e.mon.UpdateGeneration(r.Gen, best.Score)
	if e.OnGeneration != nil {
		e.OnGeneration(r)
	}
}

// Rank 按分数降序稳定排序，分数相同时权益高者在前。
func Rank(results []Result) []Result {
	out := append([]Result(nil), results...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Equity > out[j].Equity
	})
	return out
}

// Elites 排序结果中前 k 个可行基因组；可能为空。
func Elites(ranked []Result, k int) []Genome {
	var out []Genome
	for _, r := range ranked {
		if len(out) >= k {
			break
		}
		if r.OK {
			out = append(out, r.Genome)
		}
	}
	return out
}

func countFeasible(results []Result) int {
	n := 0
	for _, r := range results {
		if r.OK {
			n++
		}
	}
	return n
}
