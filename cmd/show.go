package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kalshi-odds/scanner/internal/app"
)

//nolint:gochecknoglobals // Cobra boilerplate
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show recent alerts from the alert log",
	RunE:  runShow,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Int("last", 20, "Number of most recent alerts to show (0 for all)")
}

func runShow(cmd *cobra.Command, args []string) error {
	last, _ := cmd.Flags().GetInt("last")

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

	alerts, err := a.ShowAlerts(last)
	if err != nil {
		return fmt.Errorf("show alerts: %w", err)
	}

	if len(alerts) == 0 {
		fmt.Println("no alerts recorded")
		return nil
	}

	for _, alert := range alerts {
		fmt.Printf("%s  %-30s %-14s edge=%.1fbps %s@%s conf=%s\n",
			alert.Timestamp.Format("2006-01-02T15:04:05Z"),
			alert.MarketKey, alert.Direction, alert.EdgeBps, alert.Selection, alert.Bookmaker, alert.Confidence)
	}
	return nil
}
