package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DevMandalia/direction-sky-ingest/internal/marketcal"
	"github.com/DevMandalia/direction-sky-ingest/internal/scheduler"
	"github.com/DevMandalia/direction-sky-ingest/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the ingestion scheduler",
	Long: `Starts the scheduler or inspects its jobs.

Registered jobs (all evaluated in the exchange timezone):
- options_refresh_open:   09:30 on weekdays (session open capture)
- options_refresh_hourly: top of every hour 10:00-15:00 on weekdays
- options_refresh_close:  16:00 on weekdays (session close capture)

Every run re-checks the market gate, so holiday ticks are no-ops.

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs
  run     - run one job immediately
  status  - show job execution statistics

Example:
  go run ./cmd/optionsfeed scheduler start
  go run ./cmd/optionsfeed scheduler run options_refresh_hourly`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show job execution statistics",
		RunE:  showSchedulerStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Options Snapshot Scheduler ===")

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	sched.Start()

	PrintSuccess("Scheduler started")
	fmt.Println("\nRegistered jobs:")
	PrintList(sched.GetAllJobs())
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Println("Registered jobs:")
	PrintList(sched.GetAllJobs())

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	// Give the detached job a moment before tearing down the pool.
	time.Sleep(30 * time.Second)

	fmt.Println("Job finished (see logs for outcome)")
	return nil
}

func showSchedulerStatus(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	stats := sched.GetJobStats()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for jobName, stat := range stats {
		fmt.Printf("%s\n", jobName)
		PrintKeyValue("Schedule", stat.Schedule, 12)
		PrintKeyValue("Total Runs", fmt.Sprintf("%d", stat.TotalRuns), 12)
		PrintKeyValue("Success", fmt.Sprintf("%d (%.1f%%)", stat.SuccessCount, stat.SuccessRate*100), 12)
		PrintKeyValue("Failures", fmt.Sprintf("%d", stat.FailureCount), 12)

		if stat.LastRun != nil {
			PrintKeyValue("Last Run", stat.LastRun.Format("2006-01-02 15:04:05"), 12)
		}

		fmt.Println()
	}

	return nil
}

func initScheduler() (*scheduler.Scheduler, func(), error) {
	d, cleanup, err := buildDeps()
	if err != nil {
		return nil, nil, err
	}

	// Session-aligned schedules need the exchange clock. Without it the
	// gate still fails closed, but the ticks would fire at host-local times.
	cal := marketcal.New(d.cfg.Market.Timezone)
	if cal.Location() == nil {
		d.log.WithField("timezone", d.cfg.Market.Timezone).
			Warn("Exchange timezone unavailable, schedules use host time and every cycle will no-op")
	}

	if year := time.Now().Year(); !marketcal.HasHolidayTable(year) {
		d.log.WithField("year", year).
			Warn("No holiday table for current year, holiday sessions will be treated as open")
	}

	sched := scheduler.New(d.log, cal.Location())

	if err := sched.AddJob(jobs.NewOpenRefreshJob(d.pipeline, d.log)); err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := sched.AddJob(jobs.NewHourlyRefreshJob(d.pipeline, d.log)); err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := sched.AddJob(jobs.NewCloseRefreshJob(d.pipeline, d.log)); err != nil {
		cleanup()
		return nil, nil, err
	}

	return sched, cleanup, nil
}
