package specs

import "context"

// Repo persists catalog entries. (company, product model, parameter name)
// is unique among live entries.
type Repo interface {
	Create(ctx context.Context, e Entry) error
	GetByID(ctx context.Context, companyID, id string) (Entry, error)
	Find(ctx context.Context, companyID, productModel, parameterName string) (Entry, error)
	List(ctx context.Context, companyID string, filter ListFilter) ([]Entry, error)
	ListModels(ctx context.Context, companyID string) ([]Model, error)
	Update(ctx context.Context, e Entry) error
	// UpsertMany writes entries keyed by model and parameter name in one
	// unit and reports how many were newly created.
	UpsertMany(ctx context.Context, entries []Entry) (int, error)
	SoftDelete(ctx context.Context, companyID, id string) error
}
