package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"paper-evolve/evolution"
	"paper-evolve/journal"
	"paper-evolve/sim"
)

var evolveVariants bool

var evolveCmd = &cobra.Command{
	Use:   "evolve",
	Short: "Evolve strategy parameters with walk-forward scoring",
	Long: `Run the generational search configured under "evolution". Each genome is
evaluated in its own simulation instance on the mock feed; generation rankings
are written to <journal.base_dir>/evolution/genNN.jsonl.

With --variants the fixed "variants" list is evaluated once instead.

Examples:
  tournament evolve --config configs/paper.yaml
  tournament evolve --variants`,
	RunE: runEvolve,
}

func init() {
	rootCmd.AddCommand(evolveCmd)
	evolveCmd.Flags().BoolVar(&evolveVariants, "variants", false, "只评估配置中的固定参数组合")
}

func runEvolve(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lr := sim.NewLocalRunner(a.log, a.mon)
	lr.SinkFactory = a.sinkFactory(a.cfg)
	eng, err := evolution.NewEngine(a.cfg.Evolution, a.cfg.Paper, lr, a.log, a.mon)
	if err != nil {
		return err
	}
	outDir := filepath.Join(a.cfg.Journal.BaseDir, "evolution")
	eng.OnGeneration = func(r evolution.GenerationReport) {
		notify(a, fmt.Sprintf("STATUS=generation %d/%d best=%.4f feasible=%d",
			r.Gen, a.cfg.Evolution.Generations, r.Ranked[0].Score, r.Feasible))
		if a.cfg.Journal.Enabled {
			if err := writeResults(filepath.Join(outDir, fmt.Sprintf("gen%02d.jsonl", r.Gen)), r.Ranked); err != nil {
				a.log.Warn("write generation results", zap.Error(err))
			}
		}
	}

	notify(a, daemon.SdNotifyReady)
	defer notify(a, daemon.SdNotifyStopping)

	var ranked []evolution.Result
	if evolveVariants {
		if len(a.cfg.Variants) == 0 {
			return fmt.Errorf("no variants configured")
		}
		ranked, err = eng.RunVariants(ctx, a.cfg.Variants)
	} else {
		ranked, err = eng.Run(ctx)
	}
	printResults(cmd.OutOrStdout(), ranked)
	return err
}

func notify(a *app, state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		a.log.Debug("sd_notify failed", zap.Error(err))
	}
}

func writeResults(path string, ranked []evolution.Result) error {
	w := journal.NewWriter(path)
	defer w.Close()
	for _, r := range ranked {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}
