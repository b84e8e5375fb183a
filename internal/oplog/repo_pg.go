package oplog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const entryColumns = `id, company_id, user_id, user_name, operation_type, resource_type, resource_id, content, ip_address, created_at`

func (r *PGRepo) Insert(ctx context.Context, e Entry) error {
	const query = `
INSERT INTO operation_logs (` + entryColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.DB.ExecContext(ctx, query,
		e.ID,
		e.CompanyID,
		e.UserID,
		nullString(e.UserName),
		e.OperationType,
		e.ResourceType,
		nullString(e.ResourceID),
		nullString(e.Content),
		nullString(e.IPAddress),
		e.CreatedAt,
	)
	return err
}

func (r *PGRepo) List(ctx context.Context, companyID string, filter ListFilter) ([]Entry, int, error) {
	var (
		where = []string{"company_id = $1"}
		args  = []any{companyID}
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.OperationType != "" {
		add("operation_type = $%d", filter.OperationType)
	}
	if filter.ResourceType != "" {
		add("resource_type = $%d", filter.ResourceType)
	}
	if !filter.Since.IsZero() {
		add("created_at >= $%d", filter.Since)
	}
	if !filter.Until.IsZero() {
		add("created_at < $%d", filter.Until)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM operation_logs WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
SELECT ` + entryColumns + `
FROM operation_logs
WHERE ` + cond + `
ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var (
			e                                 Entry
			userName, resourceID, content, ip sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.UserID, &userName, &e.OperationType, &e.ResourceType, &resourceID, &content, &ip, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		e.UserName = userName.String
		e.ResourceID = resourceID.String
		e.Content = content.String
		e.IPAddress = ip.String
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
