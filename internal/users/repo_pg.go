package users

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

const userColumns = `id, mobile_number, full_name, email, created_at, updated_at`

// FindOrCreateByMobile relies on the unique mobile_number index so two
// concurrent first logins still end up on one row.
func (r *PGRepo) FindOrCreateByMobile(ctx context.Context, candidate User) (User, error) {
	const query = `
INSERT INTO users (id, mobile_number, full_name, email, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (mobile_number) DO UPDATE SET mobile_number = EXCLUDED.mobile_number
RETURNING ` + userColumns
	return scanUser(r.DB.QueryRowContext(ctx, query,
		candidate.ID,
		candidate.MobileNumber,
		nullableString(candidate.FullName),
		nullableString(candidate.Email),
		candidate.CreatedAt,
	))
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1
LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, query, userID))
}

func (r *PGRepo) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch, at time.Time) (User, error) {
	const query = `
UPDATE users SET
  full_name = CASE WHEN $2 THEN $3 ELSE full_name END,
  email = CASE WHEN $4 THEN $5 ELSE email END,
  updated_at = $6
WHERE id = $1
RETURNING ` + userColumns
	var fullName, email any
	if patch.FullName != nil {
		fullName = nullableString(*patch.FullName)
	}
	if patch.Email != nil {
		email = nullableString(*patch.Email)
	}
	return scanUser(r.DB.QueryRowContext(ctx, query,
		userID,
		patch.FullName != nil,
		fullName,
		patch.Email != nil,
		email,
		at,
	))
}

func scanUser(row *sql.Row) (User, error) {
	var user User
	var fullName sql.NullString
	var email sql.NullString
	err := row.Scan(
		&user.ID,
		&user.MobileNumber,
		&fullName,
		&email,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.FullName = fullName.String
	user.Email = email.String
	return user, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
