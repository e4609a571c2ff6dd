package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "tradelab",
	Short: "tradelab - heuristic signal engine and barrier backtester",
	Long: `tradelab evaluates a catalog of technical strategies over stored bar
histories, simulates the signals with take-profit, stop-loss and timeout
exits, and writes signal, order and metrics artifacts.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
