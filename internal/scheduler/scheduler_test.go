package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/DevMandalia/direction-sky-ingest/pkg/config"
	"github.com/DevMandalia/direction-sky-ingest/pkg/logger"
)

type noopJob struct {
	name     string
	schedule string
	runs     int
}

func (j *noopJob) Name() string              { return j.name }
func (j *noopJob) Schedule() string          { return j.schedule }
func (j *noopJob) Run(context.Context) error { j.runs++; return nil }

func newTestScheduler() *Scheduler {
	log := logger.New(&config.Config{LogLevel: "error", LogFormat: "json"})
	return New(log, time.UTC)
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	job := &noopJob{name: "refresh", schedule: "0 0 * * * *"}
	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}

	if err := s.AddJob(job); err == nil {
		t.Error("expected duplicate job name to be rejected")
	}

	jobs := s.GetAllJobs()
	if len(jobs) != 1 || jobs[0] != "refresh" {
		t.Errorf("GetAllJobs() = %v", jobs)
	}
}

func TestAddJobInvalidSchedule(t *testing.T) {
	s := newTestScheduler()

	job := &noopJob{name: "broken", schedule: "not-a-cron-expr"}
	if err := s.AddJob(job); err == nil {
		t.Error("expected invalid schedule to be rejected")
	}
}

func TestRunJobUnknown(t *testing.T) {
	s := newTestScheduler()

	if err := s.RunJob("missing"); err == nil {
		t.Error("expected unknown job to be rejected")
	}
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}

	for i := 0; i < 3; i++ {
		h.AddResult(JobResult{JobName: "refresh", Success: i != 1})
	}

	if got := h.GetSuccessRate(); got < 0.66 || got > 0.67 {
		t.Errorf("GetSuccessRate() = %v", got)
	}
	if got := len(h.GetFailedResults()); got != 1 {
		t.Errorf("GetFailedResults() = %d results", got)
	}
	if got := len(h.GetLatestResults(2)); got != 2 {
		t.Errorf("GetLatestResults(2) = %d results", got)
	}
}

func TestJobHistoryCap(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 150; i++ {
		h.AddResult(JobResult{JobName: "refresh", Success: true})
	}
	if len(h.Results) != 100 {
		t.Errorf("history length = %d, want cap at 100", len(h.Results))
	}
}
