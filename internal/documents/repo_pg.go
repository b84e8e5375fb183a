package documents

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, company_id, project_id, kind, file_name, mime_type, size_bytes, storage_provider, storage_key, extracted_text_key, layout_key, extracted_at, uploaded_by, created_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (` + documentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL, NULL, NULL, $10, $11)`

	storageProvider := doc.StorageProvider
	if storageProvider == "" {
		storageProvider = "local"
	}
	var storageKey sql.NullString
	if doc.StorageKey != "" {
		storageKey = sql.NullString{String: doc.StorageKey, Valid: true}
	}
	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.CompanyID,
		doc.ProjectID,
		doc.Kind,
		doc.FileName,
		doc.MimeType,
		doc.SizeBytes,
		storageProvider,
		storageKey,
		doc.UploadedBy,
		doc.CreatedAt,
	)
	return err
}

// GetByID fetches a document within a company.
func (r *PGRepo) GetByID(ctx context.Context, companyID, documentID string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, companyID, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByProject lists project documents newest-first, optionally by kind.
func (r *PGRepo) ListByProject(ctx context.Context, companyID, projectID, kind string) ([]Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE company_id = $1 AND project_id = $2 AND ($3 = '' OR kind = $3) AND deleted_at IS NULL
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, companyID, projectID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// UpdateExtraction records derived artifact keys once.
func (r *PGRepo) UpdateExtraction(ctx context.Context, companyID, documentID, textKey, layoutKey string, extractedAt time.Time) error {
	const query = `
UPDATE documents
SET extracted_text_key = $3, layout_key = $4, extracted_at = $5
WHERE company_id = $1 AND id = $2 AND extracted_text_key IS NULL`
	_, err := r.DB.ExecContext(ctx, query, companyID, documentID, textKey, layoutKey, extractedAt)
	return err
}

// SoftDelete hides a document from reads.
func (r *PGRepo) SoftDelete(ctx context.Context, companyID, documentID string) error {
	const query = `
UPDATE documents SET deleted_at = now()
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, companyID, documentID)
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

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var storageProvider, storageKey, extractedKey, layoutKey, uploadedBy sql.NullString
	var extractedAt sql.NullTime
	err := row.Scan(
		&doc.ID,
		&doc.CompanyID,
		&doc.ProjectID,
		&doc.Kind,
		&doc.FileName,
		&doc.MimeType,
		&doc.SizeBytes,
		&storageProvider,
		&storageKey,
		&extractedKey,
		&layoutKey,
		&extractedAt,
		&uploadedBy,
		&doc.CreatedAt,
	)
	if err != nil {
		return Document{}, err
	}
	if storageProvider.Valid {
		doc.StorageProvider = storageProvider.String
	}
	if storageKey.Valid {
		doc.StorageKey = storageKey.String
	}
	if extractedKey.Valid {
		doc.ExtractedTextKey = extractedKey.String
	}
	if layoutKey.Valid {
		doc.LayoutKey = layoutKey.String
	}
	if uploadedBy.Valid {
		doc.UploadedBy = uploadedBy.String
	}
	if extractedAt.Valid {
		doc.ExtractedAt = &extractedAt.Time
	}
	return doc, nil
}
