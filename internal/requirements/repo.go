package requirements

import (
	"context"
	"database/sql"
)

// Guard runs inside Replace before anything is written; an error aborts the
// write. PGRepo hands it the open transaction, MemoryRepo passes nil.
type Guard func(ctx context.Context, tx *sql.Tx) error

// Repo persists requirements and scoring items.
type Repo interface {
	// Replace swaps the live requirement set of (project, document) for res
	// in one write. Re-running the same version is idempotent. guard may be nil.
	Replace(ctx context.Context, companyID, projectID, documentID string, res Result, guard Guard) error
	// ListByProject returns live requirements ordered by seq; documentID "" matches all.
	ListByProject(ctx context.Context, companyID, projectID, documentID string) ([]Requirement, error)
	ListScoringItems(ctx context.Context, companyID, projectID, documentID string) ([]ScoringItem, error)
	GetByID(ctx context.Context, companyID, id string) (Requirement, error)
	Update(ctx context.Context, req Requirement) error
}
