package qualifications

import (
	"context"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/scheduler"
)

// DefaultScanSchedule runs the scan every morning at 08:00.
const DefaultScanSchedule = "0 8 * * *"

// ScanJob wraps ScanAll as a scheduled job.
func (s *Service) ScanJob(schedule string) scheduler.Job {
	if schedule == "" {
		schedule = DefaultScanSchedule
	}
	return scheduler.Job{
		Name:     "qualification-scan",
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			_, err := s.ScanAll(ctx)
			return err
		},
	}
}
