package knowledge

import "context"

// Repo persists knowledge chunks, scoped by company.
type Repo interface {
	Create(ctx context.Context, c Chunk) error
	GetByID(ctx context.Context, companyID, id string) (Chunk, error)
	// List returns chunks most recently updated first.
	List(ctx context.Context, companyID string, filter ListFilter) ([]Chunk, error)
	Update(ctx context.Context, c Chunk) error
	SoftDelete(ctx context.Context, companyID, id string) error
}
