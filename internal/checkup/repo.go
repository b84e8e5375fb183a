package checkup

import (
	"context"
	"time"
)

// Repo persists checkup records. Update refuses records that are already
// completed.
type Repo interface {
	Create(ctx context.Context, r Record) error
	Update(ctx context.Context, r Record) error
	GetByID(ctx context.Context, companyID, id string) (Record, error)
	ListByProject(ctx context.Context, companyID, projectID string, filter ListFilter) ([]Record, int, error)
	CountByStatus(ctx context.Context, companyID string, since time.Time) (map[string]int, error)
}
