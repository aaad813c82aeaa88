package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DevMandalia/direction-sky-ingest/internal/api"
	"github.com/DevMandalia/direction-sky-ingest/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP trigger server",
	Long: `Starts the HTTP server exposing the ingestion trigger endpoint.

Endpoints:
  GET  /health                  - Liveness check
  GET/POST /                    - Action dispatch
  GET/POST /api/options         - Action dispatch (alias)

Actions (?action=...):
  health-check (default), fetch-and-store, fetch-only,
  get-expiry-dates, get-options-data, get-underlying-price

Example:
  go run ./cmd/optionsfeed api
  go run ./cmd/optionsfeed api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "8080", "HTTP listen port")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Options Snapshot Ingest API ===")

	d, cleanup, err := buildDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	// Override port if flag is set
	if apiPort != "" {
		d.cfg.Port = apiPort
	}

	d.log.WithFields(map[string]interface{}{
		"port":       d.cfg.Port,
		"env":        d.cfg.Env,
		"underlying": d.cfg.Market.Underlying,
	}).Info("Initializing API server")

	optionsHandler := handlers.NewOptionsHandler(d.pipeline, d.cfg.Market.Underlying, d.log)
	router := api.NewRouter(optionsHandler, d.log)
	server := api.New(d.cfg, d.log, router)

	go func() {
		if err := server.Start(); err != nil {
			d.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	PrintSuccess(fmt.Sprintf("Server running on http://localhost:%s", d.cfg.Port))
	fmt.Println("\nAvailable endpoints:")
	PrintList([]string{
		"GET  /health",
		"GET  /?action=fetch-and-store",
		"GET  /?action=get-expiry-dates",
		"POST /api/options",
	})
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	d.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	d.log.Info("Server stopped")
	return nil
}
