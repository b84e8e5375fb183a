package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/checkup"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/projects"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/qualifications"
)

// DefaultWindowDays is how far back checkups are counted.
const DefaultWindowDays = 30

type projectCounter interface {
	CountByStatus(ctx context.Context, companyID string) (map[string]int, error)
}

type qualificationLister interface {
	List(ctx context.Context, companyID string, q qualifications.Query) ([]qualifications.Evaluated, error)
}

type checkupCounter interface {
	CountRecent(ctx context.Context, companyID string, since time.Time) (map[string]int, error)
}

type taskCounter interface {
	CountActive(ctx context.Context, companyID string) (int, error)
}

// Service aggregates the back-office overview.
type Service struct {
	Projects       projectCounter
	Qualifications qualificationLister
	Checkups       checkupCounter
	Extractions    taskCounter
	WindowDays     int
	Now            func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) windowDays() int {
	if s.WindowDays > 0 {
		return s.WindowDays
	}
	return DefaultWindowDays
}

// Summary is the dashboard payload.
type Summary struct {
	Projects          map[string]int       `json:"projects"`
	Qualifications    qualifications.Stats `json:"qualifications"`
	Checkups          map[string]int       `json:"checkups"`
	CheckupWindowDays int                  `json:"checkupWindowDays"`
	ActiveExtractions int                  `json:"activeExtractions"`
	GeneratedAt       time.Time            `json:"generatedAt"`
}

// Summary gathers the counts concurrently; any failing source fails the call.
func (s *Service) Summary(ctx context.Context, companyID string) (Summary, error) {
	now := s.now()
	out := Summary{
		Projects: map[string]int{
			projects.StatusParsing:   0,
			projects.StatusDrafting:  0,
			projects.StatusReviewing: 0,
			projects.StatusSealed:    0,
		},
		Checkups: map[string]int{
			checkup.OverallSuccess: 0,
			checkup.OverallWarning: 0,
			checkup.OverallError:   0,
		},
		CheckupWindowDays: s.windowDays(),
		GeneratedAt:       now,
	}

	var (
		projectCounts map[string]int
		checkupCounts map[string]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projectCounts, err = s.Projects.CountByStatus(gctx, companyID)
		return err
	})
	g.Go(func() error {
		evs, err := s.Qualifications.List(gctx, companyID, qualifications.Query{})
		if err != nil {
			return err
		}
		out.Qualifications = qualifications.StatsOf(evs)
		return nil
	})
	g.Go(func() error {
		var err error
		since := now.AddDate(0, 0, -s.windowDays())
		checkupCounts, err = s.Checkups.CountRecent(gctx, companyID, since)
		return err
	})
	if s.Extractions != nil {
		g.Go(func() error {
			var err error
			out.ActiveExtractions, err = s.Extractions.CountActive(gctx, companyID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	for k, v := range projectCounts {
		out.Projects[k] = v
	}
	for k, v := range checkupCounts {
		out.Checkups[k] = v
	}
	return out, nil
}
