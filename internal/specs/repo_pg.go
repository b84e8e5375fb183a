package specs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const entryColumns = `id, company_id, category, sub_category, product_model, parameter_name, parameter_value, is_core_param, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, e Entry) error {
	const query = `
INSERT INTO product_specs (` + entryColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.DB.ExecContext(ctx, query,
		e.ID,
		e.CompanyID,
		e.Category,
		e.SubCategory,
		e.ProductModel,
		e.ParameterName,
		e.ParameterValue,
		e.IsCoreParam,
		e.CreatedAt,
		e.UpdatedAt,
	)
	return mapUniqueViolation(err)
}

func (r *PGRepo) GetByID(ctx context.Context, companyID, id string) (Entry, error) {
	const query = `
SELECT ` + entryColumns + `
FROM product_specs
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	e, err := scanEntry(r.DB.QueryRowContext(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	return e, nil
}

func (r *PGRepo) Find(ctx context.Context, companyID, productModel, parameterName string) (Entry, error) {
	const query = `
SELECT ` + entryColumns + `
FROM product_specs
WHERE company_id = $1 AND product_model = $2 AND parameter_name = $3 AND deleted_at IS NULL`
	e, err := scanEntry(r.DB.QueryRowContext(ctx, query, companyID, productModel, parameterName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	return e, nil
}

func (r *PGRepo) List(ctx context.Context, companyID string, filter ListFilter) ([]Entry, error) {
	var (
		where = []string{"company_id = $1", "deleted_at IS NULL"}
		args  = []any{companyID}
	)
	if filter.ProductModel != "" {
		args = append(args, filter.ProductModel)
		where = append(where, fmt.Sprintf("product_model = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		where = append(where, fmt.Sprintf("(parameter_name ILIKE $%d OR product_model ILIKE $%d)", len(args), len(args)))
	}
	query := `
SELECT ` + entryColumns + `
FROM product_specs
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY product_model, parameter_name`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PGRepo) ListModels(ctx context.Context, companyID string) ([]Model, error) {
	const query = `
SELECT product_model, MIN(category), MIN(sub_category), COUNT(*)
FROM product_specs
WHERE company_id = $1 AND deleted_at IS NULL
GROUP BY product_model
ORDER BY product_model`
	rows, err := r.DB.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Model, 0)
	for rows.Next() {
		var m Model
		if err := rows.Scan(&m.ProductModel, &m.Category, &m.SubCategory, &m.ParameterCount); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, e Entry) error {
	const query = `
UPDATE product_specs
SET category = $3,
    sub_category = $4,
    product_model = $5,
    parameter_name = $6,
    parameter_value = $7,
    is_core_param = $8,
    updated_at = $9
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query,
		e.CompanyID,
		e.ID,
		e.Category,
		e.SubCategory,
		e.ProductModel,
		e.ParameterName,
		e.ParameterValue,
		e.IsCoreParam,
		e.UpdatedAt,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertMany relies on product_specs_param_uniq; xmax = 0 marks a fresh insert.
func (r *PGRepo) UpsertMany(ctx context.Context, entries []Entry) (int, error) {
	const query = `
INSERT INTO product_specs (` + entryColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (company_id, product_model, parameter_name) WHERE deleted_at IS NULL
DO UPDATE SET category = EXCLUDED.category,
              sub_category = EXCLUDED.sub_category,
              parameter_value = EXCLUDED.parameter_value,
              is_core_param = EXCLUDED.is_core_param,
              updated_at = EXCLUDED.updated_at
RETURNING (xmax = 0)`
	created := 0
	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		for _, e := range entries {
			var inserted bool
			if err := tx.QueryRowContext(ctx, query,
				e.ID,
				e.CompanyID,
				e.Category,
				e.SubCategory,
				e.ProductModel,
				e.ParameterName,
				e.ParameterValue,
				e.IsCoreParam,
				e.CreatedAt,
				e.UpdatedAt,
			).Scan(&inserted); err != nil {
				return fmt.Errorf("upsert %s/%s: %w", e.ProductModel, e.ParameterName, err)
			}
			if inserted {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (r *PGRepo) SoftDelete(ctx context.Context, companyID, id string) error {
	const query = `
UPDATE product_specs
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	if err := row.Scan(
		&e.ID,
		&e.CompanyID,
		&e.Category,
		&e.SubCategory,
		&e.ProductModel,
		&e.ParameterName,
		&e.ParameterValue,
		&e.IsCoreParam,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
