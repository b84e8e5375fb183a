package oplog

import "context"

// Repo persists operation logs.
type Repo interface {
	Insert(ctx context.Context, e Entry) error
	// List returns entries newest first and the total matching count.
	List(ctx context.Context, companyID string, filter ListFilter) ([]Entry, int, error)
}
