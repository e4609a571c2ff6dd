package main

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/tradelab/internal/pipeline"
)

var (
	btSymbols    []string
	btStrategies []string
	btWorkers    int
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Evaluate and simulate every symbol and strategy pair",
	Long: `Runs each strategy over each symbol, simulates the actionable signals
with barrier exits and writes signals, orders and per-pair metrics, plus a
summary for the run date.`,
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().StringSliceVarP(&btSymbols, "symbols", "s", nil, "symbols to process (default from config)")
	backtestCmd.Flags().StringSliceVar(&btStrategies, "strategies", nil, "strategies to run (default all registered)")
	backtestCmd.Flags().IntVarP(&btWorkers, "workers", "w", 0, "worker pool size (default from config)")
	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	return runBatch(cmd, pipeline.ModeBacktest, btSymbols, btStrategies, btWorkers)
}

func runBatch(cmd *cobra.Command, mode pipeline.Mode, symbols, strategies []string, workers int) error {
	ctx, cancel := signalContext()
	defer cancel()

	e, err := setup(ctx, workers)
	if err != nil {
		return err
	}
	defer e.finish()

	symbols = pick(symbols, e.cfg.Runner.Symbols)
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols given, use --symbols or runner.symbols")
	}
	strategies = pick(strategies, e.cfg.Runner.Strategies)

	report, err := e.runner.Run(ctx, mode, symbols, strategies)
	if err != nil {
		if report == nil {
			return err
		}
		e.log.Warn("batch interrupted", zap.Error(err))
	}

	out := cmd.OutOrStdout()
	if mode == pipeline.ModeBacktest {
		printMetrics(out, report)
	}
	printFailures(out, report)

	if err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("%d of %d pairs failed", len(report.Failures), report.Pairs)
	}
	return nil
}

func printMetrics(w io.Writer, report *pipeline.BatchReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tSTRATEGY\tTRADES\tWIN RATE\tAVG RET\tPROFIT FACTOR\tSHARPE\tMAX DD")
	for _, m := range report.Metrics {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			m.Symbol, m.Strategy, m.TradeCount,
			pct(m.WinRate), pct(m.AvgReturn), ratio(m.ProfitFactor),
			ratio(m.SharpeSimplified), pct(m.MaxDrawdown))
	}
	tw.Flush()
}

func printFailures(w io.Writer, report *pipeline.BatchReport) {
	if report.OK() {
		fmt.Fprintf(w, "\n%d pairs processed in %s (run %s)\n", report.Pairs, report.Duration.Round(time.Millisecond), report.RunID)
		return
	}
	fmt.Fprintf(w, "\n%d of %d pairs failed:\n", len(report.Failures), report.Pairs)
	for _, f := range report.Failures {
		fmt.Fprintf(w, "  %s\n", f.Error())
	}
}

func pct(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func ratio(v float64) string {
	switch {
	case math.IsNaN(v):
		return "-"
	case math.IsInf(v, 1):
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}
