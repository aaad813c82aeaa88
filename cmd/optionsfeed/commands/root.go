package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "optionsfeed",
	Short: "Options chain snapshot ingestion service",
	Long: `Options chain snapshot ingestion service.

Fetches the full options chain for an underlying from the quote provider,
derives per-contract analytics, and upserts one row per (trading date,
contract) into PostgreSQL. Ingestion only runs during the exchange session.

Usage:
  go run ./cmd/optionsfeed [command]

Examples:
  go run ./cmd/optionsfeed api
  go run ./cmd/optionsfeed refresh --expiry 2025-06-20
  go run ./cmd/optionsfeed scheduler start
  go run ./cmd/optionsfeed test-db`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
