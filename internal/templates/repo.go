package templates

import "context"

// Repo persists template records. (company, template type, name) is unique
// among live templates.
type Repo interface {
	Create(ctx context.Context, t Template) error
	GetByID(ctx context.Context, companyID, id string) (Template, error)
	// List returns templates newest first; templateType "" matches all.
	List(ctx context.Context, companyID, templateType string) ([]Template, error)
	SoftDelete(ctx context.Context, companyID, id string) error
}
