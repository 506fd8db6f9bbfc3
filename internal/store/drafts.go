// ABOUTME: Draft application persistence for the SQLite store
// ABOUTME: Drafts are whole-document upserts with a JSON file array and an expiry timestamp

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// GetDraft retrieves a user's draft application.
// Returns ErrNotFound if no draft row exists. Expiry is not evaluated
// here; the draft assembler decides whether a row past its expiry counts.
func (s *SQLiteStore) GetDraft(ctx context.Context, userID int64) (*DraftApplication, error) {
	query := `SELECT user_id, files_json, expires_at FROM draft_applications WHERE user_id = ?`

	var draft DraftApplication
	var filesJSON, expiresAtStr string

	err := s.db.QueryRowContext(ctx, query, userID).Scan(&draft.UserID, &filesJSON, &expiresAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying draft: %w", err)
	}

	if err := json.Unmarshal([]byte(filesJSON), &draft.Files); err != nil {
		return nil, fmt.Errorf("decoding draft files: %w", err)
	}
	draft.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}

	return &draft, nil
}

// PutDraft inserts or replaces a user's draft as a whole document.
func (s *SQLiteStore) PutDraft(ctx context.Context, draft *DraftApplication) error {
	files := draft.Files
	if files == nil {
		files = []FileRef{}
	}
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("encoding draft files: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO draft_applications (user_id, files_json, expires_at)
		VALUES (?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		draft.UserID,
		string(filesJSON),
		draft.ExpiresAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}

	s.logger.Debug("saved draft", "user_id", draft.UserID, "files", len(files))
	return nil
}

// DeleteDraft removes a user's draft. Deleting a nonexistent draft is not
// an error: the caller only cares that no draft remains.
func (s *SQLiteStore) DeleteDraft(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM draft_applications WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}

// DeleteExpiredDrafts removes all drafts whose expiry is at or before now.
// Returns the number of rows removed.
func (s *SQLiteStore) DeleteExpiredDrafts(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM draft_applications WHERE expires_at <= ?`,
		now.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired drafts: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		s.logger.Debug("swept expired drafts", "count", rowsAffected)
	}
	return rowsAffected, nil
}
