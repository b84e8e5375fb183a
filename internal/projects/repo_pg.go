package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const projectColumns = `id, company_id, name, purchaser, description, status, owner_id, rfp_document_id, deadline, sealed_at, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, p Project) error {
	const query = `
INSERT INTO projects (` + projectColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.DB.ExecContext(ctx, query,
		p.ID,
		p.CompanyID,
		p.Name,
		nullString(p.Purchaser),
		nullString(p.Description),
		p.Status,
		nullString(p.OwnerID),
		nullString(p.RFPDocumentID),
		p.Deadline,
		p.SealedAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, companyID, id string) (Project, error) {
	query := `
SELECT ` + projectColumns + `
FROM projects
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	p, err := scanProject(r.DB.QueryRowContext(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, err
	}
	return p, nil
}

func (r *PGRepo) List(ctx context.Context, companyID string, filter ListFilter) ([]Project, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	conds := []string{"company_id = $1", "deleted_at IS NULL"}
	args := []any{companyID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR purchaser ILIKE $%d)", len(args), len(args)))
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
SELECT %s
FROM projects
WHERE %s
ORDER BY created_at DESC, id
LIMIT $%d OFFSET $%d`, projectColumns, strings.Join(conds, " AND "), len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, p Project) error {
	const query = `
UPDATE projects
SET name = $3, purchaser = $4, description = $5, status = $6, owner_id = $7,
    rfp_document_id = $8, deadline = $9, sealed_at = $10, updated_at = $11
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query,
		p.CompanyID,
		p.ID,
		p.Name,
		nullString(p.Purchaser),
		nullString(p.Description),
		p.Status,
		nullString(p.OwnerID),
		nullString(p.RFPDocumentID),
		p.Deadline,
		p.SealedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) SoftDelete(ctx context.Context, companyID, id string) error {
	const query = `
UPDATE projects SET deleted_at = now()
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, companyID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) CountByStatus(ctx context.Context, companyID string) (map[string]int, error) {
	const query = `
SELECT status, COUNT(*)
FROM projects
WHERE company_id = $1 AND deleted_at IS NULL
GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (Project, error) {
	var p Project
	var purchaser, description, ownerID, rfpDocID sql.NullString
	var deadline, sealedAt sql.NullTime
	err := row.Scan(
		&p.ID,
		&p.CompanyID,
		&p.Name,
		&purchaser,
		&description,
		&p.Status,
		&ownerID,
		&rfpDocID,
		&deadline,
		&sealedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return Project{}, err
	}
	p.Purchaser = purchaser.String
	p.Description = description.String
	p.OwnerID = ownerID.String
	p.RFPDocumentID = rfpDocID.String
	if deadline.Valid {
		p.Deadline = &deadline.Time
	}
	if sealedAt.Valid {
		p.SealedAt = &sealedAt.Time
	}
	return p, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
