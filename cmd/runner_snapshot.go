package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalshi-odds/scanner/internal/app"
	"github.com/kalshi-odds/scanner/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runnerSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture one top-of-book snapshot for the given tickers",
	RunE:  runRunnerSnapshot,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	runnerCmd.AddCommand(runnerSnapshotCmd)
	runnerSnapshotCmd.Flags().String("tickers", "", "Comma-separated contract tickers to snapshot")
	_ = runnerSnapshotCmd.MarkFlagRequired("tickers")
}

func runRunnerSnapshot(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	tickersFlag, _ := cmd.Flags().GetString("tickers")
	var tickers []string
	for _, t := range strings.Split(tickersFlag, ",") {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			tickers = append(tickers, trimmed)
		}
	}
	if len(tickers) == 0 {
		return fmt.Errorf("--tickers must name at least one contract")
	}

	ctx := context.Background()
	bundle, err := app.BuildRunner(ctx, cfg, logger, types.TradingModeDryRun)
	if err != nil {
		return fmt.Errorf("build runner: %w", err)
	}
	defer func() { _ = bundle.Store.Close() }()

	if err := bundle.Runner.RunSnapshotOnly(ctx, tickers); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	fmt.Printf("captured snapshots for %d tickers\n", len(tickers))
	return nil
}
