package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"expiry-backend/internal/expiry"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, user_id, document_type, document_name, document_number, issue_date, expiry_date, person_name, relationship, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// ListByOwner orders by expiry_date only; ties come back in storage order.
func (r *PGRepo) ListByOwner(ctx context.Context, owner string) ([]Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1
ORDER BY expiry_date ASC`

	rows, err := r.DB.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetByID(ctx context.Context, owner, id string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND id = $2
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, owner, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    user_id,
    document_type,
    document_name,
    document_number,
    issue_date,
    expiry_date,
    person_name,
    relationship,
    notes,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		string(doc.DocumentType),
		doc.DocumentName,
		nullString(doc.DocumentNumber),
		nullDate(doc.IssueDate),
		doc.ExpiryDate,
		doc.PersonName,
		string(doc.Relationship),
		nullString(doc.Notes),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// Update writes only the columns present in patch and always stamps updated_at.
func (r *PGRepo) Update(ctx context.Context, owner, id string, patch Patch, at time.Time) (Document, error) {
	sets := make([]string, 0, 9)
	args := []any{owner, id}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.DocumentType != nil {
		set("document_type", string(*patch.DocumentType))
	}
	if patch.DocumentName != nil {
		set("document_name", *patch.DocumentName)
	}
	if patch.DocumentNumber != nil {
		set("document_number", nullString(*patch.DocumentNumber))
	}
	if patch.IssueDate != nil {
		if patch.IssueDate.IsZero() {
			set("issue_date", nil)
		} else {
			set("issue_date", *patch.IssueDate)
		}
	}
	if patch.ExpiryDate != nil {
		set("expiry_date", *patch.ExpiryDate)
	}
	if patch.PersonName != nil {
		set("person_name", *patch.PersonName)
	}
	if patch.Relationship != nil {
		set("relationship", string(*patch.Relationship))
	}
	if patch.Notes != nil {
		set("notes", nullString(*patch.Notes))
	}
	set("updated_at", at)

	query := `
UPDATE documents
SET ` + strings.Join(sets, ", ") + `
WHERE user_id = $1 AND id = $2
RETURNING ` + documentColumns

	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

func (r *PGRepo) Delete(ctx context.Context, owner, id string) error {
	const query = `
DELETE FROM documents
WHERE user_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, owner, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var docType string
	var relationship string
	var number sql.NullString
	var issued sql.NullTime
	var notes sql.NullString
	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&docType,
		&doc.DocumentName,
		&number,
		&issued,
		&doc.ExpiryDate,
		&doc.PersonName,
		&relationship,
		&notes,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return Document{}, err
	}
	doc.DocumentType = Type(docType)
	doc.Relationship = Relationship(relationship)
	doc.ExpiryDate = expiry.DateOnly(doc.ExpiryDate)
	if number.Valid {
		doc.DocumentNumber = number.String
	}
	if issued.Valid {
		d := expiry.DateOnly(issued.Time)
		doc.IssueDate = &d
	}
	if notes.Valid {
		doc.Notes = notes.String
	}
	return doc, nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullDate(value *time.Time) sql.NullTime {
	if value == nil || value.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
