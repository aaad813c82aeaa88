package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DevMandalia/direction-sky-ingest/internal/pipeline"
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one ingestion cycle",
	Long: `Runs one snapshot ingestion cycle: market gate check, full chain
fetch, derivation, and upsert.

A closed market is a successful no-op unless --force is given.

Example:
  go run ./cmd/optionsfeed refresh
  go run ./cmd/optionsfeed refresh --expiry 2025-06-20
  go run ./cmd/optionsfeed refresh --force --fetch-only`,
	RunE: runRefresh,
}

var (
	refreshSymbol    string
	refreshExpiry    string
	refreshForce     bool
	refreshFetchOnly bool
)

func init() {
	rootCmd.AddCommand(refreshCmd)

	// Flags
	refreshCmd.Flags().StringVar(&refreshSymbol, "symbol", "", "underlying symbol (default from config)")
	refreshCmd.Flags().StringVar(&refreshExpiry, "expiry", "", "restrict to one expiration date (YYYY-MM-DD)")
	refreshCmd.Flags().BoolVar(&refreshForce, "force", false, "bypass the market-hours gate")
	refreshCmd.Flags().BoolVar(&refreshFetchOnly, "fetch-only", false, "fetch and derive without storing")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Options Snapshot Refresh ===")

	if refreshExpiry != "" {
		if _, err := time.Parse("2006-01-02", refreshExpiry); err != nil {
			return fmt.Errorf("invalid --expiry (expected YYYY-MM-DD): %w", err)
		}
	}

	d, cleanup, err := buildDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	start := time.Now()
	result, err := d.pipeline.Run(context.Background(), pipeline.Options{
		Symbol:    refreshSymbol,
		Expiry:    refreshExpiry,
		ForceTest: refreshForce,
		FetchOnly: refreshFetchOnly,
	})
	if err != nil {
		PrintError(fmt.Sprintf("Cycle failed: %v", err))
		return err
	}

	if result.MarketStatus == pipeline.StatusClosed {
		PrintWarning("Market is closed, nothing ingested")
		if result.NextMarketOpen != nil {
			PrintKeyValue("Next open", result.NextMarketOpen.Format(time.RFC3339), 14)
		}
		return nil
	}

	PrintSuccess(fmt.Sprintf("Cycle completed in %.2fs", time.Since(start).Seconds()))
	PrintSeparator()
	PrintKeyValue("Trading date", result.TradingDate, 14)
	PrintKeyValue("Fetched", fmt.Sprintf("%d", result.OptionsFetched), 14)
	PrintKeyValue("Calls", fmt.Sprintf("%d", result.Calls), 14)
	PrintKeyValue("Puts", fmt.Sprintf("%d", result.Puts), 14)
	PrintKeyValue("Stored", fmt.Sprintf("%d", result.Stored), 14)

	return nil
}
