package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DevMandalia/direction-sky-ingest/internal/marketcal"
	"github.com/DevMandalia/direction-sky-ingest/internal/pipeline"
	"github.com/DevMandalia/direction-sky-ingest/internal/store"
	"github.com/DevMandalia/direction-sky-ingest/pkg/config"
	"github.com/DevMandalia/direction-sky-ingest/pkg/database"
	"github.com/DevMandalia/direction-sky-ingest/pkg/logger"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show market gate and ingestion status",
	Long: `Shows the current market gate decision and, when the database is
reachable, the number of rows stored for the current trading date.

Example:
  go run ./cmd/optionsfeed status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Options Snapshot Ingest Status ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	now := time.Now().UTC()
	cal := marketcal.New(cfg.Market.Timezone)

	PrintKeyValue("Underlying", cfg.Market.Underlying, 14)
	PrintKeyValue("Timezone", cfg.Market.Timezone, 14)
	PrintSeparator()

	if cal.IsMarketOpen(now) {
		PrintKeyValue("Market", pipeline.StatusOpen, 14)
	} else {
		PrintKeyValue("Market", pipeline.StatusClosed, 14)
		if next := cal.NextMarketOpen(now); next != nil {
			PrintKeyValue("Next open", next.Format(time.RFC3339), 14)
		}
	}

	if !marketcal.HasHolidayTable(now.Year()) {
		PrintWarning(fmt.Sprintf("No holiday table for %d, holiday sessions treated as open", now.Year()))
	}

	// Storage is optional for this command; without it the gate status
	// above is still useful.
	db, err := database.New(cfg)
	if err != nil {
		PrintWarning(fmt.Sprintf("Database unreachable: %v", err))
		return nil
	}
	defer db.Close()

	tradingDate, ok := cal.TradingDate(now)
	if !ok {
		return nil
	}

	snapStore := store.New(db, cfg, log)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := snapStore.CountForDate(ctx, tradingDate)
	if err != nil {
		PrintWarning(fmt.Sprintf("Row count unavailable: %v", err))
		return nil
	}

	PrintSeparator()
	PrintKeyValue("Trading date", tradingDate.Format("2006-01-02"), 14)
	PrintKeyValue("Rows stored", fmt.Sprintf("%d", count), 14)

	return nil
}
