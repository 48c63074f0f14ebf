package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"paper-evolve/gateway"
	"paper-evolve/infrastructure/logger"
	"paper-evolve/infrastructure/monitor"
	"paper-evolve/journal"
	"paper-evolve/market"
	"paper-evolve/performance"
)

// ErrUnknownHandle 句柄不存在或已被读取。
var ErrUnknownHandle = errors.New("unknown run handle")

// Handle 指向一个已启动的模拟实例。
type Handle struct {
	RunID string
	Tag   string
}

// NewRunID tag-<8 位随机后缀>。
func NewRunID(tag string) string {
	return fmt.Sprintf("%s-%s", tag, uuid.NewString()[:8])
}

type localRun struct {
	cancel context.CancelFunc
	done   chan struct{}
	art    *performance.Artifact
	err    error
}

// LocalRunner 在本进程的 goroutine 中运行模拟实例。
type LocalRunner struct {
	// FeedFactory 为每个实例创建行情源；nil 时使用 MockFeed。
	FeedFactory func(cfg Config) market.Feed
	// SinkFactory 为每个实例创建记录输出；nil 时丢弃。
	SinkFactory func(runID string) (journal.Sink, error)
	// Sleep 为 nil 时使用真实计时。
	Sleep gateway.SleepFunc
	Log   *logger.Logger
	Mon   *monitor.Monitor

	mu   sync.Mutex
	runs map[string]*localRun
}

func NewLocalRunner(log *logger.Logger, mon *monitor.Monitor) *LocalRunner {
	return &LocalRunner{Log: log, Mon: mon}
}

// Start 启动一个带标签的实例并立即返回句柄。
func (l *LocalRunner) Start(ctx context.Context, tag string, cfg Config) (Handle, error) {
	cfg.Tag = tag
	runID := NewRunID(tag)

	sink := journal.Sink(journal.Discard{})
	if l.SinkFactory != nil {
		s, err := l.SinkFactory(runID)
		if err != nil {
			return Handle{}, fmt.Errorf("open journal for %s: %w", runID, err)
		}
		sink = s
	}
	deps := Deps{Sleep: l.Sleep, Sink: sink, Log: l.Log, Mon: l.Mon}
	if l.FeedFactory != nil {
		deps.Feed = l.FeedFactory(cfg)
	}
	runner, err := NewRunner(runID, cfg, deps)
	if err != nil {
		_ = sink.Close()
		return Handle{}, fmt.Errorf("build runner %s: %w", runID, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &localRun{cancel: cancel, done: make(chan struct{})}
	l.mu.Lock()
	if l.runs == nil {
		l.runs = make(map[string]*localRun)
	}
	l.runs[runID] = run
	l.mu.Unlock()

	go func() {
		defer close(run.done)
		defer func() { _ = sink.Close() }()
		run.art, run.err = runner.Run(runCtx)
	}()
	return Handle{RunID: runID, Tag: tag}, nil
}

// Await 等待实例结束或到达 deadline；到期时强制停止实例，并在其完全退出后返回产出。
func (l *LocalRunner) Await(ctx context.Context, h Handle, deadline time.Time) (*performance.Artifact, error) {
	l.mu.Lock()
	run, ok := l.runs[h.RunID]
	delete(l.runs, h.RunID)
	l.mu.Unlock()
	if !ok {
		return nil, ErrUnknownHandle
	}

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case <-run.done:
	case <-timer.C:
	case <-ctx.Done():
	}
	run.cancel()
	<-run.done

	if run.err != nil {
		logger.OrNop(l.Log).Warn("run ended with error", zap.String("run_id", h.RunID), zap.Error(run.err))
	}
	if run.art == nil {
		return nil, run.err
	}
	return run.art, run.err
}
