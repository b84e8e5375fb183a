package deviation

import "context"

// Repo persists deviation tables.
type Repo interface {
	// Replace swaps the stored table of (project, model) for records.
	Replace(ctx context.Context, companyID, projectID, productModel string, records []Record) error
	// ListByProject returns records in requirement order. An empty model
	// returns every model's table.
	ListByProject(ctx context.Context, companyID, projectID, productModel string) ([]Record, error)
	GetByID(ctx context.Context, companyID, id string) (Record, error)
	UpdateRemark(ctx context.Context, companyID, id, remark string) (Record, error)
}
