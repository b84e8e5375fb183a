package extraction

import (
	"context"
	"database/sql"
	"time"
)

// Repo persists extraction tasks.
type Repo interface {
	// CreateOrReuse inserts task unless an active task already exists for the
	// same (company, project, document); created reports which happened.
	CreateOrReuse(ctx context.Context, task Task) (Task, bool, error)
	GetByID(ctx context.Context, companyID, id string) (Task, error)
	// Load fetches a task without tenant scoping; used by workers.
	Load(ctx context.Context, id string) (Task, error)
	// Transition applies upd only when the task is in one of from.
	Transition(ctx context.Context, id string, from []string, upd StatusUpdate) (bool, error)
	// TransitionTx is Transition inside the caller's transaction. Repos
	// without transactions accept a nil tx.
	TransitionTx(ctx context.Context, tx *sql.Tx, id string, from []string, upd StatusUpdate) (bool, error)
	SetProgress(ctx context.Context, id string, progress int) error
	ListByProject(ctx context.Context, companyID, projectID string, limit int) ([]Task, error)
	CountActive(ctx context.Context, companyID string) (int, error)
	// ExpireStale fails active tasks created before cutoff.
	ExpireStale(ctx context.Context, cutoff time.Time, upd StatusUpdate) (int, error)
}
