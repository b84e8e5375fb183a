package templates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const templateColumns = `id, company_id, name, template_type, file_name, mime_type, size_bytes, storage_provider, storage_key, uploaded_by, created_at`

func (r *PGRepo) Create(ctx context.Context, t Template) error {
	const query = `
INSERT INTO bid_templates (` + templateColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.DB.ExecContext(ctx, query,
		t.ID,
		t.CompanyID,
		t.Name,
		t.TemplateType,
		t.FileName,
		t.MimeType,
		t.SizeBytes,
		t.StorageProvider,
		t.StorageKey,
		sql.NullString{String: t.UploadedBy, Valid: t.UploadedBy != ""},
		t.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, companyID, id string) (Template, error) {
	const query = `
SELECT ` + templateColumns + `
FROM bid_templates
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	t, err := scanTemplate(r.DB.QueryRowContext(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Template{}, ErrNotFound
		}
		return Template{}, err
	}
	return t, nil
}

func (r *PGRepo) List(ctx context.Context, companyID, templateType string) ([]Template, error) {
	query := `
SELECT ` + templateColumns + `
FROM bid_templates
WHERE company_id = $1 AND deleted_at IS NULL`
	args := []any{companyID}
	if templateType != "" {
		args = append(args, templateType)
		query += fmt.Sprintf(" AND template_type = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PGRepo) SoftDelete(ctx context.Context, companyID, id string) error {
	const query = `
UPDATE bid_templates
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

func scanTemplate(row rowScanner) (Template, error) {
	var (
		t          Template
		uploadedBy sql.NullString
	)
	if err := row.Scan(
		&t.ID,
		&t.CompanyID,
		&t.Name,
		&t.TemplateType,
		&t.FileName,
		&t.MimeType,
		&t.SizeBytes,
		&t.StorageProvider,
		&t.StorageKey,
		&uploadedBy,
		&t.CreatedAt,
	); err != nil {
		return Template{}, err
	}
	t.UploadedBy = uploadedBy.String
	return t, nil
}
