package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"spendbook/internal/models"
)

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getStatementUpload(ctx context.Context, q rowQueryer, userID int64, id string) (*models.StatementUpload, error) {
	var s models.StatementUpload
	err := q.QueryRowContext(ctx, `
		SELECT id, user_id, original_filename, file_path, uploaded_at
		FROM statement_uploads WHERE id = ? AND user_id = ?
	`, id, userID).Scan(&s.ID, &s.UserID, &s.OriginalFilename, &s.FilePath, &s.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query statement upload: %w", err)
	}
	return &s, nil
}

// GetStatementUpload returns the upload with the given fingerprint for a user, or ErrNotFound.
func (db *DB) GetStatementUpload(ctx context.Context, userID int64, id string) (*models.StatementUpload, error) {
	return getStatementUpload(ctx, db, userID, id)
}

// GetStatementUpload is GetStatementUpload inside the transaction scope
func (tx *Tx) GetStatementUpload(ctx context.Context, userID int64, id string) (*models.StatementUpload, error) {
	return getStatementUpload(ctx, tx, userID, id)
}

// CreateStatementUpload records an upload. An existing row with the same fingerprint is left as is.
func (db *DB) CreateStatementUpload(ctx context.Context, s *models.StatementUpload) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO statement_uploads (id, user_id, original_filename, file_path)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id, user_id) DO NOTHING
	`, s.ID, s.UserID, s.OriginalFilename, s.FilePath)
	if err != nil {
		return fmt.Errorf("insert statement upload: %w", err)
	}
	return nil
}

func (db *DB) ListStatementUploads(ctx context.Context, userID int64) ([]models.StatementUpload, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, original_filename, file_path, uploaded_at
		FROM statement_uploads WHERE user_id = ?
		ORDER BY uploaded_at DESC, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query statement uploads: %w", err)
	}
	defer rows.Close()

	var uploads []models.StatementUpload
	for rows.Next() {
		var s models.StatementUpload
		if err := rows.Scan(&s.ID, &s.UserID, &s.OriginalFilename, &s.FilePath, &s.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan statement upload: %w", err)
		}
		uploads = append(uploads, s)
	}
	return uploads, rows.Err()
}

// DeleteStatementUpload removes a user's upload row. Expenses referencing it must be deleted first.
func (tx *Tx) DeleteStatementUpload(ctx context.Context, userID int64, id string) (int64, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM statement_uploads WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return 0, fmt.Errorf("delete statement upload: %w", err)
	}
	return result.RowsAffected()
}
