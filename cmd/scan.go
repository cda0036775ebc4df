package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kalshi-odds/scanner/internal/app"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one dislocation scan and print ranked opportunities",
	RunE:  runScan,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringP("sport", "s", "", "Sport key, e.g. basketball_nba (default: DEFAULT_SPORT)")
	scanCmd.Flags().Bool("auto-map", false, "Run the team-code auto-mapper (updates the mapping registry) and log fuzzy mapping suggestions for this run")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	sport, _ := cmd.Flags().GetString("sport")
	if sport == "" {
		sport = cfg.DefaultSport
	}
	if autoMap, _ := cmd.Flags().GetBool("auto-map"); autoMap {
		cfg.AutoMapEnabled = true
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	defer func() { _ = a.Close() }()

	ctx := context.Background()
	opportunities, err := a.Scan(ctx, sport)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if len(opportunities) == 0 {
		fmt.Println("no opportunities found")
		return nil
	}

	for i, opp := range opportunities {
		fmt.Printf("%2d. %-30s %-14s edge=%.1fbps rank=%.2f books=%d\n",
			i+1, opp.MarketKey, opp.Direction, opp.EdgeBps, opp.RankScore, opp.BookCount)
	}
	return nil
}
