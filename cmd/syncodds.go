package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kalshi-odds/scanner/internal/app"
)

//nolint:gochecknoglobals // Cobra boilerplate
var syncOddsCmd = &cobra.Command{
	Use:   "sync-odds",
	Short: "Refresh the local sportsbook quote mirror for a sport",
	RunE:  runSyncOdds,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(syncOddsCmd)
	syncOddsCmd.Flags().StringP("sport", "s", "", "Sport key, e.g. basketball_nba (default: DEFAULT_SPORT)")
}

func runSyncOdds(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	sport, _ := cmd.Flags().GetString("sport")
	if sport == "" {
		sport = cfg.DefaultSport
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	defer func() { _ = a.Close() }()

	ctx := context.Background()
	count, err := a.SyncOdds(ctx, sport)
	if err != nil {
		return fmt.Errorf("sync odds: %w", err)
	}

	fmt.Printf("synced %d quotes for %s\n", count, sport)
	return nil
}
