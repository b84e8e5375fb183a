package projects

import "context"

// Repo defines persistence operations for projects. All reads are scoped
// to a company.
type Repo interface {
	Create(ctx context.Context, p Project) error
	GetByID(ctx context.Context, companyID, id string) (Project, error)
	List(ctx context.Context, companyID string, filter ListFilter) ([]Project, error)
	Update(ctx context.Context, p Project) error
	SoftDelete(ctx context.Context, companyID, id string) error
	CountByStatus(ctx context.Context, companyID string) (map[string]int, error)
}
