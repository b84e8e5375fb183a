package qualifications

import "context"

// Repo persists the qualification catalog.
type Repo interface {
	Create(ctx context.Context, q Qualification) error
	GetByID(ctx context.Context, companyID, id string) (Qualification, error)
	List(ctx context.Context, companyID string, filter ListFilter) ([]Qualification, error)
	Update(ctx context.Context, q Qualification) error
	SoftDelete(ctx context.Context, companyID, id string) error
	// Companies lists every tenant holding at least one qualification.
	Companies(ctx context.Context) ([]string, error)
}
