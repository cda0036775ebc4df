package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kalshi-odds/scanner/internal/app"
)

//nolint:gochecknoglobals // Cobra boilerplate
var syncMarketsCmd = &cobra.Command{
	Use:   "sync-markets",
	Short: "Refresh the local exchange contract mirror",
	RunE:  runSyncMarkets,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(syncMarketsCmd)
}

func runSyncMarkets(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	defer func() { _ = a.Close() }()

	ctx := context.Background()
	count, err := a.SyncMarkets(ctx)
	if err != nil {
		return fmt.Errorf("sync markets: %w", err)
	}

	fmt.Printf("synced %d contracts\n", count)
	return nil
}
