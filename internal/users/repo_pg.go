package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const userColumns = `id, company_id, username, email, name, role, password_hash, google_sub, created_at, updated_at, last_login_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) Create(ctx context.Context, u User) error {
	const query = `
INSERT INTO users (` + userColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.DB.ExecContext(ctx, query,
		u.ID,
		u.CompanyID,
		u.Username,
		nullString(u.Email),
		nullString(u.Name),
		u.Role,
		nullString(u.PasswordHash),
		nullString(u.GoogleSub),
		u.CreatedAt,
		u.UpdatedAt,
		u.LastLoginAt,
	)
	return mapUniqueViolation(err)
}

func (r *PGRepo) GetByID(ctx context.Context, companyID, id string) (User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	return r.getOne(ctx, query, companyID, id)
}

func (r *PGRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
WHERE username = $1 AND deleted_at IS NULL`
	return r.getOne(ctx, query, username)
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
WHERE lower(email) = lower($1) AND deleted_at IS NULL`
	return r.getOne(ctx, query, email)
}

func (r *PGRepo) getOne(ctx context.Context, query string, args ...any) (User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PGRepo) List(ctx context.Context, companyID string) ([]User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
WHERE company_id = $1 AND deleted_at IS NULL
ORDER BY username`
	rows, err := r.DB.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, u User) error {
	const query = `
UPDATE users
SET email = $3,
    name = $4,
    role = $5,
    password_hash = $6,
    updated_at = $7
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query,
		u.CompanyID,
		u.ID,
		nullString(u.Email),
		nullString(u.Name),
		u.Role,
		nullString(u.PasswordHash),
		u.UpdatedAt,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) SoftDelete(ctx context.Context, companyID, id string) error {
	const query = `
UPDATE users
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

func (r *PGRepo) TouchLogin(ctx context.Context, id, googleSub string, at time.Time) error {
	const query = `
UPDATE users
SET last_login_at = $2,
    google_sub = COALESCE(NULLIF($3, ''), google_sub)
WHERE id = $1 AND deleted_at IS NULL`
	_, err := r.DB.ExecContext(ctx, query, id, at, googleSub)
	return err
}

func (r *PGRepo) CountAdmins(ctx context.Context, companyID string) (int, error) {
	const query = `
SELECT COUNT(*)
FROM users
WHERE company_id = $1 AND role = 'admin' AND deleted_at IS NULL`
	var n int
	if err := r.DB.QueryRowContext(ctx, query, companyID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanUser(row rowScanner) (User, error) {
	var (
		u                                    User
		email, name, passwordHash, googleSub sql.NullString
		lastLogin                            sql.NullTime
	)
	if err := row.Scan(
		&u.ID,
		&u.CompanyID,
		&u.Username,
		&email,
		&name,
		&u.Role,
		&passwordHash,
		&googleSub,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLogin,
	); err != nil {
		return User{}, err
	}
	u.Email = email.String
	u.Name = name.String
	u.PasswordHash = passwordHash.String
	u.GoogleSub = googleSub.String
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "users_email_uniq" {
			return ErrEmailTaken
		}
		return ErrUsernameTaken
	}
	return err
}
