package deviation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const recordColumns = `id, company_id, project_id, product_model, requirement_id, seq, parameter_name, tender_value, our_value, classification, remark, remark_edited, error_code, computed_at`

func (r *PGRepo) Replace(ctx context.Context, companyID, projectID, productModel string, records []Record) error {
	const clear = `
UPDATE deviation_records
SET deleted_at = now()
WHERE company_id = $1 AND project_id = $2 AND product_model = $3 AND deleted_at IS NULL`
	const insert = `
INSERT INTO deviation_records (` + recordColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, clear, companyID, projectID, productModel); err != nil {
			return fmt.Errorf("clear deviations: %w", err)
		}
		for _, rec := range records {
			if _, err := tx.ExecContext(ctx, insert,
				rec.ID,
				rec.CompanyID,
				rec.ProjectID,
				rec.ProductModel,
				rec.RequirementID,
				rec.Seq,
				rec.ParameterName,
				rec.TenderValue,
				rec.OurValue,
				rec.Classification,
				rec.Remark,
				rec.RemarkEdited,
				nullString(rec.ErrorCode),
				rec.ComputedAt,
			); err != nil {
				return fmt.Errorf("insert deviation %s: %w", rec.ParameterName, err)
			}
		}
		return nil
	})
}

func (r *PGRepo) ListByProject(ctx context.Context, companyID, projectID, productModel string) ([]Record, error) {
	const query = `
SELECT ` + recordColumns + `
FROM deviation_records
WHERE company_id = $1 AND project_id = $2 AND ($3 = '' OR product_model = $3) AND deleted_at IS NULL
ORDER BY product_model, seq, id`
	rows, err := r.DB.QueryContext(ctx, query, companyID, projectID, productModel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetByID(ctx context.Context, companyID, id string) (Record, error) {
	const query = `
SELECT ` + recordColumns + `
FROM deviation_records
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

func (r *PGRepo) UpdateRemark(ctx context.Context, companyID, id, remark string) (Record, error) {
	const query = `
UPDATE deviation_records
SET remark = $3, remark_edited = TRUE
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL
RETURNING ` + recordColumns
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, companyID, id, remark))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec       Record
		errorCode sql.NullString
	)
	if err := row.Scan(
		&rec.ID,
		&rec.CompanyID,
		&rec.ProjectID,
		&rec.ProductModel,
		&rec.RequirementID,
		&rec.Seq,
		&rec.ParameterName,
		&rec.TenderValue,
		&rec.OurValue,
		&rec.Classification,
		&rec.Remark,
		&rec.RemarkEdited,
		&errorCode,
		&rec.ComputedAt,
	); err != nil {
		return Record{}, err
	}
	rec.ErrorCode = errorCode.String
	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
