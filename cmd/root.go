package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "kalshi-odds-scanner",
	Short: "Binary-market vs. sportsbook dislocation scanner",
	Long: `Compares a binary prediction-market exchange's top-of-book against a
sportsbook odds aggregator's quotes, surfaces priced dislocations as ranked
opportunities, and optionally runs a daily strategy-driven trading cycle
against the exchange.

sync-markets and sync-odds refresh the local contract/quote mirror. scan
(and its continuous form, run) compare them and rank opportunities. detail,
execute, and show inspect and act on the last scan's results. The runner
subcommand drives the separate discover-evaluate-backtest-trade cycle.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	// Flags can be added here if needed
}
