package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const chunkColumns = `id, company_id, title, content, category, tags, metadata, created_by, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, c Chunk) error {
	tags, meta, err := encodeJSON(c)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO knowledge_chunks (` + chunkColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.DB.ExecContext(ctx, query,
		c.ID,
		c.CompanyID,
		c.Title,
		c.Content,
		c.Category,
		tags,
		meta,
		nullString(c.CreatedBy),
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, companyID, id string) (Chunk, error) {
	const query = `
SELECT ` + chunkColumns + `
FROM knowledge_chunks
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	c, err := scanChunk(r.DB.QueryRowContext(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Chunk{}, ErrNotFound
		}
		return Chunk{}, err
	}
	return c, nil
}

func (r *PGRepo) List(ctx context.Context, companyID string, filter ListFilter) ([]Chunk, error) {
	var (
		where = []string{"company_id = $1", "deleted_at IS NULL"}
		args  = []any{companyID}
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Tag != "" {
		tag, err := json.Marshal([]string{filter.Tag})
		if err != nil {
			return nil, err
		}
		args = append(args, string(tag))
		where = append(where, fmt.Sprintf("tags @> $%d::jsonb", len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR content ILIKE $%d)", len(args), len(args)))
	}
	query := `
SELECT ` + chunkColumns + `
FROM knowledge_chunks
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY updated_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Chunk, 0)
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, c Chunk) error {
	tags, meta, err := encodeJSON(c)
	if err != nil {
		return err
	}
	const query = `
UPDATE knowledge_chunks
SET title = $3,
    content = $4,
    category = $5,
    tags = $6,
    metadata = $7,
    updated_at = $8
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query,
		c.CompanyID,
		c.ID,
		c.Title,
		c.Content,
		c.Category,
		tags,
		meta,
		c.UpdatedAt,
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
UPDATE knowledge_chunks
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

func scanChunk(row rowScanner) (Chunk, error) {
	var (
		c          Chunk
		tags, meta []byte
		createdBy  sql.NullString
	)
	if err := row.Scan(
		&c.ID,
		&c.CompanyID,
		&c.Title,
		&c.Content,
		&c.Category,
		&tags,
		&meta,
		&createdBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return Chunk{}, err
	}
	c.CreatedBy = createdBy.String
	if err := json.Unmarshal(tags, &c.Tags); err != nil {
		return Chunk{}, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal(meta, &c.Metadata); err != nil {
		return Chunk{}, fmt.Errorf("decode metadata: %w", err)
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.Metadata == nil {
		c.Metadata = map[string]string{}
	}
	return c, nil
}

func encodeJSON(c Chunk) (tags, meta string, err error) {
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.Metadata == nil {
		c.Metadata = map[string]string{}
	}
	t, err := json.Marshal(c.Tags)
	if err != nil {
		return "", "", fmt.Errorf("marshal tags: %w", err)
	}
	m, err := json.Marshal(c.Metadata)
	if err != nil {
		return "", "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(t), string(m), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
