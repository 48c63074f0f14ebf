package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"paper-evolve/config"
	"paper-evolve/gateway"
	"paper-evolve/journal"
	"paper-evolve/sim"
)

var (
	paperWatch    bool
	paperDuration time.Duration
)

var paperCmd = &cobra.Command{
	Use:   "paper",
	Short: "Run a single paper-trading session",
	Long: `Run one simulation instance until interrupted (or for --duration).
With --watch the session is restarted whenever the config file changes.

Examples:
  tournament paper --config configs/paper.yaml
  tournament paper --watch --duration 30m`,
	RunE: runPaper,
}

func init() {
	rootCmd.AddCommand(paperCmd)
	paperCmd.Flags().BoolVar(&paperWatch, "watch", false, "配置文件变化时重启会话")
	paperCmd.Flags().DurationVar(&paperDuration, "duration", 0, "会话时长，0 表示直到中断")
}

func runPaper(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if paperDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, paperDuration)
		defer cancel()
	}

	reloads := make(chan config.AppConfig, 1)
	if paperWatch {
		w, err := config.NewWatcher(cfgPath, 2*time.Second, a.log)
		if err != nil {
			return err
		}
		go func() {
			_ = w.Run(ctx, func(c config.AppConfig) {
				select {
				case reloads <- c:
				default:
				}
			})
		}()
	}

	cfg := a.cfg
	for {
		sessionCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func(cfg config.AppConfig) { done <- a.paperSession(sessionCtx, cfg) }(cfg)

		select {
		case err := <-done:
			cancel()
			return err
		case next := <-reloads:
			a.log.Info("config changed, restarting paper session")
			cancel()
			if err := <-done; err != nil {
				a.log.Warn("paper session ended with error", zap.Error(err))
			}
			cfg = next
		}
	}
}

func (a *app) paperSession(ctx context.Context, cfg config.AppConfig) error {
	runID := sim.NewRunID(cfg.Paper.Tag)
	deps := sim.Deps{Log: a.log, Mon: a.mon, Sink: journal.Discard{}}
	if factory := a.sinkFactory(cfg); factory != nil {
		sink, err := factory(runID)
		if err != nil {
			return err
		}
		defer sink.Close()
		deps.Sink = sink
	}
	if cfg.Feed.Mode == config.FeedWS {
		feed := gateway.NewWSFeed(cfg.Feed.WS, a.log, a.mon)
		defer feed.Close()
		deps.Feed = feed
	}

	runner, err := sim.NewRunner(runID, cfg.Paper, deps)
	if err != nil {
		return err
	}
	a.log.Info("paper session started", zap.String("run_id", runID), zap.String("feed", cfg.Feed.Mode))
	art, err := runner.Run(ctx)
	if art != nil {
		s := art.Summary
		a.log.Info("paper session summary",
			zap.String("run_id", runID),
			zap.Float64("equity", s.Equity),
			zap.Int("fills", s.Fills),
			zap.Float64("max_drawdown_pct", s.MaxDrawdown),
			zap.Float64("sharpe_like", s.SharpeLike),
			zap.Bool("regime_ok", s.RegimeOK))
	}
	return err
}
