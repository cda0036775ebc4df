package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kalshi-odds/scanner/internal/app"
)

//nolint:gochecknoglobals // Cobra boilerplate
var detailCmd = &cobra.Command{
	Use:   "detail N",
	Short: "Show full detail for opportunity N from the last scan",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetail,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(detailCmd)
}

func runDetail(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid opportunity number %q: %w", args[0], err)
	}

	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opportunities, err := app.ReadLastOpportunities(cfg.LastOpportunitiesPath)
	if err != nil {
		return err
	}
	if n < 1 || n > len(opportunities) {
		return fmt.Errorf("opportunity %d out of range (1-%d)", n, len(opportunities))
	}
	opp := opportunities[n-1]

	fmt.Printf("Market:        %s\n", opp.MarketKey)
	fmt.Printf("Direction:     %s\n", opp.Direction)
	fmt.Printf("Exchange:      %s\n", opp.ExchangeAction)
	fmt.Printf("Hedge:         %s\n", opp.HedgeAction)
	fmt.Printf("Edge:          %.2f cents (%.1f bps)\n", opp.EdgeCents, opp.EdgeBps)
	fmt.Printf("P&L / 100sh:   %.2f\n", opp.PnlPer100Shares)
	fmt.Printf("Max shares:    %d\n", opp.MaxShares)
	fmt.Printf("Confidence:    %s\n", opp.Confidence)
	fmt.Printf("Rank score:    %.3f\n", opp.RankScore)
	fmt.Printf("Books agreeing: %d (of %d raw alerts)\n", opp.BookCount, opp.RawAlertCount)
	fmt.Printf("Deep link:     %s\n", opp.DeepLink)
	return nil
}
