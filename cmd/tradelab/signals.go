package main

import (
	"github.com/spf13/cobra"

	"github.com/newthinker/tradelab/internal/pipeline"
)

var (
	sigSymbols    []string
	sigStrategies []string
	sigWorkers    int
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Evaluate strategies and write signal artifacts only",
	Long: `Evaluates each strategy over each symbol without simulation. Strategies
whose filters read future bars fall back to hold here.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, pipeline.ModeSignals, sigSymbols, sigStrategies, sigWorkers)
	},
}

func init() {
	signalsCmd.Flags().StringSliceVarP(&sigSymbols, "symbols", "s", nil, "symbols to process (default from config)")
	signalsCmd.Flags().StringSliceVar(&sigStrategies, "strategies", nil, "strategies to run (default all registered)")
	signalsCmd.Flags().IntVarP(&sigWorkers, "workers", "w", 0, "worker pool size (default from config)")
	rootCmd.AddCommand(signalsCmd)
}
