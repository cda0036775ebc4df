package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/internal/app"
	"github.com/kalshi-odds/scanner/internal/runner"
	"github.com/kalshi-odds/scanner/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runnerCmd = &cobra.Command{
	Use:   "runner",
	Short: "Trading runner commands",
}

//nolint:gochecknoglobals // Cobra boilerplate
var runnerRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Schedule and run the daily trading cycle",
	Long: `Schedules RunCycle to fire once a day at RUNNER_DAILY_TIME in
RUNNER_TIMEZONE, and blocks until interrupted. --mode overrides
EXECUTION_MODE for this invocation.`,
	RunE: runRunnerRun,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runnerCmd)
	runnerCmd.AddCommand(runnerRunCmd)
	runnerRunCmd.Flags().String("mode", "", "paper, live, or dry_run (default: EXECUTION_MODE)")
	runnerRunCmd.Flags().Bool("once", false, "Run one cycle immediately instead of waiting for the schedule")
}

func runRunnerRun(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	modeFlag, _ := cmd.Flags().GetString("mode")
	if modeFlag == "" {
		modeFlag = cfg.ExecutionMode
	}
	mode := types.TradingMode(modeFlag)
	if mode != types.TradingModeDryRun && mode != types.TradingModePaper && mode != types.TradingModeLive {
		return fmt.Errorf("--mode must be dry_run, paper, or live, got %q", modeFlag)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bundle, err := app.BuildRunner(ctx, cfg, logger, mode)
	if err != nil {
		return fmt.Errorf("build runner: %w", err)
	}
	defer func() { _ = bundle.Store.Close() }()

	runCycle := func(now time.Time) {
		if bundle.Breaker != nil && !bundle.Breaker.IsEnabled() {
			logger.Warn("run-cycle-skipped", zap.String("reason", "circuit breaker tripped"))
			return
		}
		summary, rerr := bundle.Runner.RunCycle(ctx, now)
		if rerr != nil {
			logger.Error("run-cycle-failed", zap.Error(rerr))
			return
		}
		logger.Info("run-cycle-finished",
			zap.Int("placed", summary.OrdersPlaced), zap.Int("filled", summary.OrdersFilled),
			zap.Int("errors", len(summary.Errors)))
	}

	if once, _ := cmd.Flags().GetBool("once"); once {
		runCycle(time.Now().UTC())
		return nil
	}

	scheduler, err := runner.NewScheduler(logger, cfg.RunnerTimezone)
	if err != nil {
		return fmt.Errorf("build scheduler: %w", err)
	}
	if err := scheduler.ScheduleDaily(cfg.RunnerDailyTime, runCycle); err != nil {
		return fmt.Errorf("schedule daily cycle: %w", err)
	}

	logger.Info("runner-waiting", zap.String("daily-time", cfg.RunnerDailyTime), zap.String("timezone", cfg.RunnerTimezone))
	scheduler.Start()
	defer scheduler.Stop()

	<-ctx.Done()
	logger.Info("runner-shutting-down")
	return nil
}
