package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalshi-odds/scanner/internal/runner"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runnerReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the run summary recorded for a given day",
	RunE:  runRunnerReport,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	runnerCmd.AddCommand(runnerReportCmd)
	runnerReportCmd.Flags().String("date", "", "Date to report on, YYYY-MM-DD (default: today, UTC)")
}

func runRunnerReport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	dateFlag, _ := cmd.Flags().GetString("date")
	if dateFlag == "" {
		dateFlag = time.Now().UTC().Format("2006-01-02")
	}
	if _, perr := time.Parse("2006-01-02", dateFlag); perr != nil {
		return fmt.Errorf("--date must be YYYY-MM-DD: %w", perr)
	}

	summaryPath := cfg.LastOpportunitiesPath + ".runs.jsonl"
	summaries, err := readDaySummaries(summaryPath, dateFlag)
	if err != nil {
		return fmt.Errorf("read run summaries: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Printf("no run cycles recorded for %s\n", dateFlag)
		return nil
	}

	var placed, filled, discovered, tradeable int
	for _, s := range summaries {
		placed += s.OrdersPlaced
		filled += s.OrdersFilled
		discovered += s.MarketsDiscovered
		tradeable += s.MarketsTradeable
		errCount := len(s.Errors)
		fmt.Printf("%s  mode=%-8s discovered=%-4d tradeable=%-4d placed=%-3d filled=%-3d errors=%d\n",
			s.StartTime.Format("15:04:05Z"), s.Mode, s.MarketsDiscovered, s.MarketsTradeable,
			s.OrdersPlaced, s.OrdersFilled, errCount)
		for _, e := range s.Errors {
			fmt.Printf("    ! %s\n", e)
		}
	}

	fmt.Printf("\n%s totals: %d cycles, %d markets discovered, %d tradeable, %d orders placed, %d filled\n",
		dateFlag, len(summaries), discovered, tradeable, placed, filled)
	return nil
}

// readDaySummaries tails path's JSONL log of runner.Summary records,
// keeping only the ones whose StartTime falls on date (UTC, "YYYY-MM-DD").
func readDaySummaries(path, date string) ([]runner.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var out []runner.Summary
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var s runner.Summary
		if err := json.Unmarshal(line, &s); err != nil {
			continue
		}
		if s.StartTime.UTC().Format("2006-01-02") == date {
			out = append(out, s)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
