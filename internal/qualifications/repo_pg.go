package qualifications

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

const qualColumns = `id, company_id, name, product_model, license_number, issuer, issue_date, expiry_date, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, q Qualification) error {
	const query = `
INSERT INTO qualifications (` + qualColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.DB.ExecContext(ctx, query,
		q.ID,
		q.CompanyID,
		q.Name,
		q.ProductModel,
		q.LicenseNumber,
		q.Issuer,
		q.IssueDate,
		q.ExpiryDate,
		q.CreatedAt,
		q.UpdatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, companyID, id string) (Qualification, error) {
	const query = `
SELECT ` + qualColumns + `
FROM qualifications
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	q, err := scanQualification(r.DB.QueryRowContext(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Qualification{}, ErrNotFound
		}
		return Qualification{}, err
	}
	return q, nil
}

func (r *PGRepo) List(ctx context.Context, companyID string, filter ListFilter) ([]Qualification, error) {
	var (
		where = []string{"company_id = $1", "deleted_at IS NULL"}
		args  = []any{companyID}
	)
	if filter.ProductModel != "" {
		args = append(args, filter.ProductModel)
		where = append(where, fmt.Sprintf("product_model = $%d", len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR license_number ILIKE $%d)", len(args), len(args)))
	}
	query := `
SELECT ` + qualColumns + `
FROM qualifications
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY expiry_date, id`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Qualification, 0)
	for rows.Next() {
		q, err := scanQualification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, q Qualification) error {
	const query = `
UPDATE qualifications
SET name = $3,
    product_model = $4,
    license_number = $5,
    issuer = $6,
    issue_date = $7,
    expiry_date = $8,
    updated_at = $9
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query,
		q.CompanyID,
		q.ID,
		q.Name,
		q.ProductModel,
		q.LicenseNumber,
		q.Issuer,
		q.IssueDate,
		q.ExpiryDate,
		q.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) SoftDelete(ctx context.Context, companyID, id string) error {
	const query = `
UPDATE qualifications
SET deleted_at = now()
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, companyID, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Companies(ctx context.Context) ([]string, error) {
	const query = `
SELECT DISTINCT company_id
FROM qualifications
WHERE deleted_at IS NULL
ORDER BY company_id`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQualification(row rowScanner) (Qualification, error) {
	var q Qualification
	if err := row.Scan(
		&q.ID,
		&q.CompanyID,
		&q.Name,
		&q.ProductModel,
		&q.LicenseNumber,
		&q.Issuer,
		&q.IssueDate,
		&q.ExpiryDate,
		&q.CreatedAt,
		&q.UpdatedAt,
	); err != nil {
		return Qualification{}, err
	}
	return q, nil
}
