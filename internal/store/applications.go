// ABOUTME: Application persistence for the SQLite store
// ABOUTME: Applications are immutable snapshots; status changes go through a guarded conditional update

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// CreateApplication inserts a new submitted application.
func (s *SQLiteStore) CreateApplication(ctx context.Context, app *Application) error {
	filesJSON, err := json.Marshal(app.Files)
	if err != nil {
		return fmt.Errorf("encoding application files: %w", err)
	}

	query := `
		INSERT INTO applications (id, user_id, files_json, status, submitted_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		app.ID,
		app.UserID,
		string(filesJSON),
		app.Status,
		app.SubmittedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting application: %w", err)
	}

	s.logger.Debug("created application", "id", app.ID, "user_id", app.UserID, "files", len(app.Files))
	return nil
}

// GetApplication retrieves an application by id.
// Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) GetApplication(ctx context.Context, id string) (*Application, error) {
	query := `
		SELECT id, user_id, files_json, status, submitted_at, processed_at, admin_note
		FROM applications
		WHERE id = ?
	`

	var app Application
	var filesJSON, submittedAtStr string
	var processedAtStr, adminNote sql.NullString

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&app.ID,
		&app.UserID,
		&filesJSON,
		&app.Status,
		&submittedAtStr,
		&processedAtStr,
		&adminNote,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying application: %w", err)
	}

	if err := json.Unmarshal([]byte(filesJSON), &app.Files); err != nil {
		return nil, fmt.Errorf("decoding application files: %w", err)
	}
	app.SubmittedAt, err = time.Parse(time.RFC3339, submittedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing submitted_at: %w", err)
	}
	if processedAtStr.Valid {
		t, err := time.Parse(time.RFC3339, processedAtStr.String)
		if err != nil {
			return nil, fmt.Errorf("parsing processed_at: %w", err)
		}
		app.ProcessedAt = &t
	}
	app.AdminNote = adminNote.String

	return &app, nil
}

// FinalizeApplication moves a submitted application to a terminal status.
// The WHERE clause makes the transition atomic per application id: a second
// finalize attempt matches zero rows and the caller reports the conflict.
func (s *SQLiteStore) FinalizeApplication(ctx context.Context, id, status string, processedAt time.Time, note string) (int64, error) {
	query := `
		UPDATE applications
		SET status = ?, processed_at = ?, admin_note = ?
		WHERE id = ? AND status = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		status,
		processedAt.UTC().Format(time.RFC3339),
		nullString(note),
		id,
		ApplicationSubmitted,
	)
	if err != nil {
		return 0, fmt.Errorf("finalizing application: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected > 0 {
		s.logger.Debug("finalized application", "id", id, "status", status)
	}
	return rowsAffected, nil
}

// nullString returns nil for empty strings, otherwise the string value
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
