package extraction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const taskColumns = `id, company_id, project_id, document_id, status, progress, extractor_version, error_code, error_message, requirement_count, created_by, created_at, started_at, completed_at`

// CreateOrReuse relies on extraction_tasks_inflight_idx to reject a second
// active task for the same document.
func (r *PGRepo) CreateOrReuse(ctx context.Context, task Task) (Task, bool, error) {
	const insert = `
INSERT INTO extraction_tasks (id, company_id, project_id, document_id, status, progress, extractor_version, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (company_id, project_id, document_id) WHERE status IN ('pending', 'processing') DO NOTHING`

	res, err := r.DB.ExecContext(ctx, insert,
		task.ID,
		task.CompanyID,
		task.ProjectID,
		task.DocumentID,
		task.Status,
		task.Progress,
		task.ExtractorVersion,
		nullString(task.CreatedBy),
		task.CreatedAt,
	)
	if err != nil {
		return Task{}, false, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return task, true, nil
	}

	const active = `
SELECT ` + taskColumns + `
FROM extraction_tasks
WHERE company_id = $1 AND project_id = $2 AND document_id = $3 AND status IN ('pending', 'processing')
ORDER BY created_at DESC
LIMIT 1`
	existing, err := scanTask(r.DB.QueryRowContext(ctx, active, task.CompanyID, task.ProjectID, task.DocumentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// the active task finished between insert and select
			return Task{}, false, fmt.Errorf("extraction task race for document %s, retry", task.DocumentID)
		}
		return Task{}, false, err
	}
	return existing, false, nil
}

func (r *PGRepo) GetByID(ctx context.Context, companyID, id string) (Task, error) {
	const query = `
SELECT ` + taskColumns + `
FROM extraction_tasks
WHERE company_id = $1 AND id = $2
LIMIT 1`
	task, err := scanTask(r.DB.QueryRowContext(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, err
	}
	return task, nil
}

func (r *PGRepo) Load(ctx context.Context, id string) (Task, error) {
	const query = `
SELECT ` + taskColumns + `
FROM extraction_tasks
WHERE id = $1
LIMIT 1`
	task, err := scanTask(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, err
	}
	return task, nil
}

func (r *PGRepo) Transition(ctx context.Context, id string, from []string, upd StatusUpdate) (bool, error) {
	return transition(ctx, r.DB, id, from, upd)
}

// TransitionTx runs inside tx, so the row stays locked until tx ends and a
// concurrent Transition waits for the outcome.
func (r *PGRepo) TransitionTx(ctx context.Context, tx *sql.Tx, id string, from []string, upd StatusUpdate) (bool, error) {
	if tx == nil {
		return r.Transition(ctx, id, from, upd)
	}
	return transition(ctx, tx, id, from, upd)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func transition(ctx context.Context, exec execer, id string, from []string, upd StatusUpdate) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	args := []any{
		id,
		upd.Status,
		upd.Progress,
		nullString(upd.ErrorCode),
		nullString(upd.ErrorMessage),
		upd.RequirementCount,
		nullTime(upd.StartedAt),
		nullTime(upd.CompletedAt),
	}
	placeholders := make([]string, len(from))
	for i, status := range from {
		args = append(args, status)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := `
UPDATE extraction_tasks
SET status = $2,
    progress = $3,
    error_code = $4,
    error_message = $5,
    requirement_count = $6,
    started_at = COALESCE($7, started_at),
    completed_at = COALESCE($8, completed_at)
WHERE id = $1 AND status IN (` + strings.Join(placeholders, ", ") + `)`

	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PGRepo) SetProgress(ctx context.Context, id string, progress int) error {
	const query = `
UPDATE extraction_tasks
SET progress = $2
WHERE id = $1 AND status = 'processing' AND progress < $2`
	_, err := r.DB.ExecContext(ctx, query, id, progress)
	return err
}

func (r *PGRepo) ListByProject(ctx context.Context, companyID, projectID string, limit int) ([]Task, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
SELECT ` + taskColumns + `
FROM extraction_tasks
WHERE company_id = $1 AND project_id = $2
ORDER BY created_at DESC
LIMIT $3`
	rows, err := r.DB.QueryContext(ctx, query, companyID, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *PGRepo) CountActive(ctx context.Context, companyID string) (int, error) {
	const query = `
SELECT COUNT(*)
FROM extraction_tasks
WHERE company_id = $1 AND status IN ('pending', 'processing')`
	var n int
	if err := r.DB.QueryRowContext(ctx, query, companyID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PGRepo) ExpireStale(ctx context.Context, cutoff time.Time, upd StatusUpdate) (int, error) {
	const query = `
UPDATE extraction_tasks
SET status = $2,
    error_code = $3,
    error_message = $4,
    completed_at = $5
WHERE status IN ('pending', 'processing') AND created_at < $1`
	res, err := r.DB.ExecContext(ctx, query,
		cutoff,
		upd.Status,
		nullString(upd.ErrorCode),
		nullString(upd.ErrorMessage),
		nullTime(upd.CompletedAt),
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var (
		task         Task
		errorCode    sql.NullString
		errorMessage sql.NullString
		createdBy    sql.NullString
		startedAt    sql.NullTime
		completedAt  sql.NullTime
	)
	if err := row.Scan(
		&task.ID,
		&task.CompanyID,
		&task.ProjectID,
		&task.DocumentID,
		&task.Status,
		&task.Progress,
		&task.ExtractorVersion,
		&errorCode,
		&errorMessage,
		&task.RequirementCount,
		&createdBy,
		&task.CreatedAt,
		&startedAt,
		&completedAt,
	); err != nil {
		return Task{}, err
	}
	task.ErrorCode = errorCode.String
	task.ErrorMessage = errorMessage.String
	task.CreatedBy = createdBy.String
	if startedAt.Valid {
		t := startedAt.Time
		task.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}
	return task, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
