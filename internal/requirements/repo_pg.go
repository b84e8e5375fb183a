package requirements

import (
	"context"
	"database/sql"
	"errors"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const requirementColumns = `id, company_id, project_id, document_id, version, seq, category, parameter_name, required_value, extracted_value, operator, status, confidence, source_text, reviewed_by, created_at, updated_at`

// Replace soft-deletes the live rows of (project, document) and inserts res
// in one transaction, so a failed write leaves the previous set intact.
// guard runs first in the same transaction.
func (r *PGRepo) Replace(ctx context.Context, companyID, projectID, documentID string, res Result, guard Guard) error {
	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		if guard != nil {
			if err := guard(ctx, tx); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE requirements SET deleted_at = now()
WHERE company_id = $1 AND project_id = $2 AND document_id = $3 AND deleted_at IS NULL`,
			companyID, projectID, documentID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE scoring_items SET deleted_at = now()
WHERE company_id = $1 AND project_id = $2 AND document_id = $3 AND deleted_at IS NULL`,
			companyID, projectID, documentID); err != nil {
			return err
		}

		const insertReq = `
INSERT INTO requirements (` + requirementColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
		for _, req := range res.Requirements {
			if _, err := tx.ExecContext(ctx, insertReq,
				req.ID,
				req.CompanyID,
				req.ProjectID,
				req.DocumentID,
				req.Version,
				req.Seq,
				req.Category,
				req.ParameterName,
				req.RequiredValue,
				req.ExtractedValue,
				string(req.Operator),
				req.Status,
				req.Confidence,
				nullString(req.SourceText),
				nullString(req.ReviewedBy),
				req.CreatedAt,
				req.UpdatedAt,
			); err != nil {
				return err
			}
		}

		const insertItem = `
INSERT INTO scoring_items (id, company_id, project_id, document_id, version, seq, name, points, source_text, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
		for _, item := range res.ScoringItems {
			if _, err := tx.ExecContext(ctx, insertItem,
				item.ID,
				item.CompanyID,
				item.ProjectID,
				item.DocumentID,
				item.Version,
				item.Seq,
				item.Name,
				item.Points,
				nullString(item.SourceText),
				item.CreatedAt,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PGRepo) ListByProject(ctx context.Context, companyID, projectID, documentID string) ([]Requirement, error) {
	const query = `
SELECT ` + requirementColumns + `
FROM requirements
WHERE company_id = $1 AND project_id = $2 AND ($3 = '' OR document_id = $3) AND deleted_at IS NULL
ORDER BY document_id, seq`
	rows, err := r.DB.QueryContext(ctx, query, companyID, projectID, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Requirement, 0)
	for rows.Next() {
		req, err := scanRequirement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *PGRepo) ListScoringItems(ctx context.Context, companyID, projectID, documentID string) ([]ScoringItem, error) {
	const query = `
SELECT id, company_id, project_id, document_id, version, seq, name, points, source_text, created_at
FROM scoring_items
WHERE company_id = $1 AND project_id = $2 AND ($3 = '' OR document_id = $3) AND deleted_at IS NULL
ORDER BY seq`
	rows, err := r.DB.QueryContext(ctx, query, companyID, projectID, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ScoringItem, 0)
	for rows.Next() {
		var item ScoringItem
		var source sql.NullString
		if err := rows.Scan(&item.ID, &item.CompanyID, &item.ProjectID, &item.DocumentID, &item.Version, &item.Seq, &item.Name, &item.Points, &source, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.SourceText = source.String
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetByID(ctx context.Context, companyID, id string) (Requirement, error) {
	const query = `
SELECT ` + requirementColumns + `
FROM requirements
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	req, err := scanRequirement(r.DB.QueryRowContext(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Requirement{}, ErrNotFound
		}
		return Requirement{}, err
	}
	return req, nil
}

func (r *PGRepo) Update(ctx context.Context, req Requirement) error {
	const query = `
UPDATE requirements
SET category = $3, parameter_name = $4, required_value = $5, extracted_value = $6,
    operator = $7, status = $8, confidence = $9, reviewed_by = $10, updated_at = $11
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query,
		req.CompanyID,
		req.ID,
		req.Category,
		req.ParameterName,
		req.RequiredValue,
		req.ExtractedValue,
		string(req.Operator),
		req.Status,
		req.Confidence,
		nullString(req.ReviewedBy),
		req.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequirement(row rowScanner) (Requirement, error) {
	var req Requirement
	var op string
	var source, reviewedBy sql.NullString
	err := row.Scan(
		&req.ID,
		&req.CompanyID,
		&req.ProjectID,
		&req.DocumentID,
		&req.Version,
		&req.Seq,
		&req.Category,
		&req.ParameterName,
		&req.RequiredValue,
		&req.ExtractedValue,
		&op,
		&req.Status,
		&req.Confidence,
		&source,
		&reviewedBy,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return Requirement{}, err
	}
	req.Operator = Operator(op)
	req.SourceText = source.String
	req.ReviewedBy = reviewedBy.String
	return req, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
