package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"paper-evolve/evolution"
	"paper-evolve/journal"
	"paper-evolve/market"
	"paper-evolve/performance"
)

var reportLeaderboard bool

var reportCmd = &cobra.Command{
	Use:   "report <run-dir|equity.jsonl>",
	Short: "Summarize recorded paper runs",
	Long: `Print start/end equity, return, max drawdown and Sharpe-like score for one
recorded run. With --leaderboard the argument is a runs directory and every run
under it is ranked by (sharpe_like, equity).

Examples:
  tournament report runs/paper-1a2b3c4d
  tournament report --leaderboard runs`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().BoolVar(&reportLeaderboard, "leaderboard", false, "对目录下所有运行排名")
}

// runStats 一条权益序列的汇总。
type runStats struct {
	RunID       string
	Points      int
	Start       float64
	End         float64
	Return      float64
	MaxDrawdown float64
	SharpeLike  float64
	Fills       int
}

func summarize(runID string, recs []journal.Equity) (runStats, bool) {
	if len(recs) == 0 {
		return runStats{}, false
	}
	eq := make([]float64, len(recs))
	for i, r := range recs {
		eq[i] = r.Equity
	}
	st := runStats{
		RunID:       runID,
		Points:      len(eq),
		Start:       eq[0],
		End:         eq[len(eq)-1],
		MaxDrawdown: performance.MaxDrawdown(eq),
		SharpeLike:  performance.SharpeLike(market.SimpleReturns(eq)),
		Fills:       recs[len(recs)-1].Fills,
	}
	if st.Start > 0 {
		st.Return = st.End/st.Start - 1
	}
	return st, true
}

func equityPath(arg string) string {
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		return filepath.Join(arg, journal.EquityFile)
	}
	return arg
}

func runReport(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if reportLeaderboard {
		rows, err := leaderboard(args[0])
		if err != nil {
			return err
		}
		printLeaderboard(out, rows)
		return nil
	}

	path := equityPath(args[0])
	recs, err := journal.ReadEquity(path)
	if err != nil {
		return err
	}
	st, ok := summarize(filepath.Base(filepath.Dir(path)), recs)
	if !ok {
		fmt.Fprintln(out, "No equity series found.")
		return nil
	}
	fmt.Fprintln(out, "=== PAPER REPORT ===")
	fmt.Fprintf(out, "Start: %.2f End: %.2f Ret: %.2f%%\n", st.Start, st.End, st.Return*100)
	fmt.Fprintf(out, "MaxDD: %.2f%% Sharpe~: %.2f\n", st.MaxDrawdown*100, st.SharpeLike)
	fmt.Fprintf(out, "Equity points: %d Fills: %d\n", st.Points, st.Fills)
	return nil
}

// leaderboard 读取 dir 下每个运行目录的权益序列并按 (sharpe_like, equity) 降序排列。
func leaderboard(dir string) ([]runStats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var rows []runStats
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "evolution" {
			continue
		}
		recs, err := journal.ReadEquity(filepath.Join(dir, e.Name(), journal.EquityFile))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		if st, ok := summarize(e.Name(), recs); ok {
			rows = append(rows, st)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].SharpeLike != rows[j].SharpeLike {
			return rows[i].SharpeLike > rows[j].SharpeLike
		}
		return rows[i].End > rows[j].End
	})
	return rows, nil
}

func printLeaderboard(w io.Writer, rows []runStats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tRUN\tSHARPE~\tEQUITY\tMAXDD\tFILLS")
	for i, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%.2f%%\t%d\n", i+1, r.RunID, r.SharpeLike, r.End, r.MaxDrawdown*100, r.Fills)
	}
	_ = tw.Flush()
}

func printResults(w io.Writer, ranked []evolution.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTAG\tSCORE\tOK\tREASON\tRUN")
	for i, r := range ranked {
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%v\t%s\t%s\n", i+1, r.Tag, r.Score, r.OK, r.Reason, r.RunID)
	}
	_ = tw.Flush()
}
