package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kalshi-odds/scanner/internal/app"
)

//nolint:gochecknoglobals // Cobra boilerplate
var executeCmd = &cobra.Command{
	Use:   "execute N",
	Short: "Place the exchange leg of opportunity N",
	Long: `Places only the exchange leg of opportunity N; the hedge leg on the
sportsbook side is informational only. Requires --confirm and
EXECUTION_ENABLED=true unless --dry-run is passed.`,
	Args: cobra.ExactArgs(1),
	RunE: runExecute,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(executeCmd)
	executeCmd.Flags().Int("shares", 0, "Number of shares to buy or sell")
	executeCmd.Flags().Bool("dry-run", false, "Log the order that would be placed without submitting it")
	executeCmd.Flags().Bool("confirm", false, "Required for a real (non-dry-run) submission")
	_ = executeCmd.MarkFlagRequired("shares")
}

func runExecute(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid opportunity number %q: %w", args[0], err)
	}

	shares, _ := cmd.Flags().GetInt("shares")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	confirm, _ := cmd.Flags().GetBool("confirm")

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

	ack, err := a.Execute(context.Background(), n, shares, dryRun, confirm)
	if err != nil {
		return err
	}

	fmt.Printf("order %s: %s\n", ack.ExchangeOrderID, ack.Status)
	return nil
}
