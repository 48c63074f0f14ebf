package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"paper-evolve/config"
	"paper-evolve/infrastructure/logger"
	"paper-evolve/infrastructure/monitor"
	"paper-evolve/journal"
	"paper-evolve/metrics"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "tournament",
	Short: "Paper-trading simulator and strategy evolution",
	Long: `tournament runs the depth-aware paper simulator against a mock or live
market feed, evolves dependency-strategy parameters with walk-forward scoring,
and summarizes recorded runs.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "configs/paper.yaml", "配置文件路径，不存在时使用默认配置")
}

// app 各子命令共享的运行时组件。
type app struct {
	cfg     config.AppConfig
	log     *logger.Logger
	mon     *monitor.Monitor
	stopSrv func(context.Context) error
}

func setup() (*app, error) {
	cfg := config.Default()
	if _, err := os.Stat(cfgPath); err == nil {
		loaded, err := config.LoadWithEnvOverrides(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("加载配置失败: %w", err)
		}
		cfg = loaded
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	a := &app{cfg: cfg, log: log, mon: monitor.New(cfg.Metrics.Monitor)}
	if cfg.Metrics.Addr != "" {
		a.stopSrv = metrics.StartMetricsServer(cfg.Metrics.Addr, a.mon.Registry(), log)
	}
	return a, nil
}

func (a *app) close() {
	if a.stopSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.stopSrv(ctx); err != nil {
			a.log.Warn("metrics server shutdown", zap.Error(err))
		}
	}
	_ = a.log.Close()
}

// sinkFactory 按配置为每个运行创建 JSONL 记录目录。
func (a *app) sinkFactory(cfg config.AppConfig) func(runID string) (journal.Sink, error) {
	if !cfg.Journal.Enabled {
		return nil
	}
	base := cfg.Journal.BaseDir
	return func(runID string) (journal.Sink, error) {
		return journal.NewFileSink(base, runID)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
