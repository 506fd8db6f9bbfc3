// ABOUTME: Thread map persistence for the SQLite store
// ABOUTME: One row per admin-group post, keyed by the unique group message id

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CreateThreadEntry inserts a thread map entry.
// Returns ErrDuplicateThreadEntry if the group message id is already mapped.
func (s *SQLiteStore) CreateThreadEntry(ctx context.Context, entry *ThreadMapEntry) error {
	query := `
		INSERT INTO thread_map (group_message_id, user_id, kind, application_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.GroupMessageID,
		entry.UserID,
		string(entry.Kind),
		nullString(entry.ApplicationID),
		entry.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateThreadEntry
		}
		return fmt.Errorf("inserting thread map entry: %w", err)
	}

	s.logger.Debug("created thread map entry",
		"group_message_id", entry.GroupMessageID,
		"user_id", entry.UserID,
		"kind", entry.Kind,
	)
	return nil
}

// GetThreadEntry retrieves the entry for a group message id.
// Returns ErrNotFound if the post was not authored by the relay.
func (s *SQLiteStore) GetThreadEntry(ctx context.Context, groupMessageID int64) (*ThreadMapEntry, error) {
	query := `
		SELECT group_message_id, user_id, kind, application_id, created_at
		FROM thread_map
		WHERE group_message_id = ?
	`

	var entry ThreadMapEntry
	var kind, createdAtStr string
	var applicationID sql.NullString

	err := s.db.QueryRowContext(ctx, query, groupMessageID).Scan(
		&entry.GroupMessageID,
		&entry.UserID,
		&kind,
		&applicationID,
		&createdAtStr,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying thread map entry: %w", err)
	}

	entry.Kind = ThreadKind(kind)
	entry.ApplicationID = applicationID.String
	entry.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &entry, nil
}
