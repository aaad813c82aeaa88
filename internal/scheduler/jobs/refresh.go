package jobs

import (
	"context"
	"fmt"

	"github.com/DevMandalia/direction-sky-ingest/internal/pipeline"
	"github.com/DevMandalia/direction-sky-ingest/pkg/logger"
)

// RefreshJob runs one snapshot ingestion cycle on a cron schedule. The
// pipeline re-checks the market gate on every run, so a tick that lands in
// a closed window (holiday, early host clock) is a successful no-op.
type RefreshJob struct {
	pipeline *pipeline.Pipeline
	logger   *logger.Logger
	name     string
	schedule string
}

func newRefreshJob(p *pipeline.Pipeline, log *logger.Logger, name, schedule string) *RefreshJob {
	return &RefreshJob{
		pipeline: p,
		logger:   log,
		name:     name,
		schedule: schedule,
	}
}

// NewHourlyRefreshJob refreshes the chain at the top of every in-session hour.
func NewHourlyRefreshJob(p *pipeline.Pipeline, log *logger.Logger) *RefreshJob {
	return newRefreshJob(p, log, "options_refresh_hourly", "0 0 10-15 * * MON-FRI")
}

// NewOpenRefreshJob captures the chain right at the session open.
func NewOpenRefreshJob(p *pipeline.Pipeline, log *logger.Logger) *RefreshJob {
	return newRefreshJob(p, log, "options_refresh_open", "0 30 9 * * MON-FRI")
}

// NewCloseRefreshJob captures the chain at the session close.
func NewCloseRefreshJob(p *pipeline.Pipeline, log *logger.Logger) *RefreshJob {
	return newRefreshJob(p, log, "options_refresh_close", "0 0 16 * * MON-FRI")
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return j.name
}

// Schedule returns the cron schedule expression (with seconds), evaluated
// in the exchange timezone by the scheduler.
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// Run executes one ingestion cycle
func (j *RefreshJob) Run(ctx context.Context) error {
	result, err := j.pipeline.Run(ctx, pipeline.Options{})
	if err != nil {
		return fmt.Errorf("refresh cycle: %w", err)
	}

	if result.MarketStatus == pipeline.StatusClosed {
		j.logger.WithField("job", j.name).Info("Market closed at tick, nothing to do")
		return nil
	}

	j.logger.WithFields(map[string]interface{}{
		"job":    j.name,
		"rows":   result.OptionsFetched,
		"stored": result.Stored,
	}).Info("Scheduled refresh completed")

	return nil
}
