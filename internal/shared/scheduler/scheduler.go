package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
)

// Job is a named periodic task.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Scheduler runs jobs on cron schedules in one location.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

// New builds a scheduler whose jobs receive ctx.
func New(ctx context.Context, loc *time.Location, jobs ...Job) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	s := &Scheduler{cron: c, ctx: ctx}
	for _, job := range jobs {
		if job.Schedule == "" {
			continue
		}
		if _, err := c.AddFunc(job.Schedule, func() { s.run(job) }); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", job.Name, job.Schedule, err)
		}
	}
	return s, nil
}

func (s *Scheduler) run(job Job) {
	start := time.Now()
	err := job.Run(s.ctx)
	fields := map[string]any{
		"job":         job.Name,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
		telemetry.Error("scheduler.job_failed", fields)
		return
	}
	telemetry.Info("scheduler.job_done", fields)
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for running jobs up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
