package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalshi-odds/scanner/internal/app"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Continuously scan for dislocations on an interval",
	Long: `Starts the health/metrics HTTP server and scans on a fixed interval
until interrupted. The most recent scan's opportunities are always
available via GET /api/opportunities and the LAST_OPPORTUNITIES_PATH file.`,
	RunE: runContinuousScan,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("sport", "s", "", "Sport key, e.g. basketball_nba (default: DEFAULT_SPORT)")
	runCmd.Flags().IntP("interval", "i", 60, "Seconds between scans")
}

func runContinuousScan(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	sport, _ := cmd.Flags().GetString("sport")
	if sport == "" {
		sport = cfg.DefaultSport
	}
	intervalSeconds, _ := cmd.Flags().GetInt("interval")
	if intervalSeconds <= 0 {
		return fmt.Errorf("--interval must be positive, got %d", intervalSeconds)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	return a.RunContinuous(context.Background(), sport, time.Duration(intervalSeconds)*time.Second)
}
