package checkup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres. Results are stored as jsonb.
type PGRepo struct {
	DB *sql.DB
}

const recordColumns = `id, company_id, project_id, document_id, file_name, product_model, state, status,
total, passed, warnings, errors, progress, results, previous_id, created_by, created_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	results, err := json.Marshal(nonNil(rec.Results))
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	const query = `
INSERT INTO checkup_records (` + recordColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err = r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.CompanyID,
		rec.ProjectID,
		rec.DocumentID,
		rec.FileName,
		rec.ProductModel,
		rec.State,
		nullString(rec.Status),
		rec.Totals.Total,
		rec.Totals.Passed,
		rec.Totals.Warnings,
		rec.Totals.Errors,
		rec.Progress,
		results,
		nullString(rec.PreviousID),
		nullString(rec.CreatedBy),
		rec.CreatedAt,
		rec.CompletedAt,
	)
	return err
}

func (r *PGRepo) Update(ctx context.Context, rec Record) error {
	results, err := json.Marshal(nonNil(rec.Results))
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	const query = `
UPDATE checkup_records
SET state = $3,
    status = $4,
    total = $5,
    passed = $6,
    warnings = $7,
    errors = $8,
    progress = $9,
    results = $10,
    completed_at = $11
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL AND state <> 'completed'`
	res, err := r.DB.ExecContext(ctx, query,
		rec.CompanyID,
		rec.ID,
		rec.State,
		nullString(rec.Status),
		rec.Totals.Total,
		rec.Totals.Passed,
		rec.Totals.Warnings,
		rec.Totals.Errors,
		rec.Progress,
		results,
		rec.CompletedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByID(ctx, rec.CompanyID, rec.ID); err != nil {
			return err
		}
		return ErrCompleted
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, companyID, id string) (Record, error) {
	const query = `
SELECT ` + recordColumns + `
FROM checkup_records
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

func (r *PGRepo) ListByProject(ctx context.Context, companyID, projectID string, filter ListFilter) ([]Record, int, error) {
	const countQuery = `
SELECT COUNT(*)
FROM checkup_records
WHERE company_id = $1 AND project_id = $2 AND deleted_at IS NULL AND ($3 = '' OR status = $3)`
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, companyID, projectID, filter.Status).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	const query = `
SELECT ` + recordColumns + `
FROM checkup_records
WHERE company_id = $1 AND project_id = $2 AND deleted_at IS NULL AND ($3 = '' OR status = $3)
ORDER BY created_at DESC, id DESC
LIMIT $4 OFFSET $5`
	rows, err := r.DB.QueryContext(ctx, query, companyID, projectID, filter.Status, limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) CountByStatus(ctx context.Context, companyID string, since time.Time) (map[string]int, error) {
	const query = `
SELECT status, COUNT(*)
FROM checkup_records
WHERE company_id = $1 AND state = 'completed' AND created_at >= $2 AND deleted_at IS NULL
GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, companyID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec                           Record
		status, previousID, createdBy sql.NullString
		results                       []byte
		completedAt                   sql.NullTime
	)
	if err := row.Scan(
		&rec.ID,
		&rec.CompanyID,
		&rec.ProjectID,
		&rec.DocumentID,
		&rec.FileName,
		&rec.ProductModel,
		&rec.State,
		&status,
		&rec.Totals.Total,
		&rec.Totals.Passed,
		&rec.Totals.Warnings,
		&rec.Totals.Errors,
		&rec.Progress,
		&results,
		&previousID,
		&createdBy,
		&rec.CreatedAt,
		&completedAt,
	); err != nil {
		return Record{}, err
	}
	rec.Status = status.String
	rec.PreviousID = previousID.String
	rec.CreatedBy = createdBy.String
	if completedAt.Valid {
		t := completedAt.Time
		rec.CompletedAt = &t
	}
	rec.Results = []Result{}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &rec.Results); err != nil {
			return Record{}, fmt.Errorf("decode results: %w", err)
		}
	}
	return rec, nil
}

func nonNil(results []Result) []Result {
	if results == nil {
		return []Result{}
	}
	return results
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
