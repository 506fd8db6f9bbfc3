// ABOUTME: Append-only message log persistence for the SQLite store
// ABOUTME: Every relayed message or file gets one immutable row

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SaveMessageLog appends one relayed-item record. Rows are never updated.
func (s *SQLiteStore) SaveMessageLog(ctx context.Context, entry *MessageLog) error {
	query := `
		INSERT INTO message_log (
			id, user_id, direction, kind, content,
			media_kind, media_file_id, file_name, file_size,
			group_message_id, reply_to_group_message_id, topic_id, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	kind := entry.Kind
	if kind == "" {
		kind = ThreadKindMessage
	}

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Direction,
		string(kind),
		nullString(entry.Content),
		nullString(string(entry.MediaKind)),
		nullString(entry.MediaFileID),
		nullString(entry.FileName),
		entry.FileSize,
		entry.GroupMessageID,
		entry.ReplyToGroupMessageID,
		entry.TopicID,
		entry.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting message log: %w", err)
	}

	s.logger.Debug("saved message log", "id", entry.ID, "user_id", entry.UserID, "direction", entry.Direction)
	return nil
}

// ListMessageLog retrieves the most recent relayed items for a user in
// chronological order (oldest first). If limit is 0 or negative, a default
// limit of 100 is used.
func (s *SQLiteStore) ListMessageLog(ctx context.Context, userID int64, limit int) ([]*MessageLog, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	query := `
		SELECT id, user_id, direction, kind, content,
		       media_kind, media_file_id, file_name, file_size,
		       group_message_id, reply_to_group_message_id, topic_id, created_at
		FROM (
			SELECT * FROM message_log
			WHERE user_id = ?
			ORDER BY created_at DESC
			LIMIT ?
		)
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying message log: %w", err)
	}
	defer rows.Close()

	var entries []*MessageLog
	for rows.Next() {
		var e MessageLog
		var kind, createdAtStr string
		var content, mediaKind, mediaFileID, fileName sql.NullString
		var fileSize, groupMsgID, replyToID, topicID sql.NullInt64

		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Direction, &kind, &content,
			&mediaKind, &mediaFileID, &fileName, &fileSize,
			&groupMsgID, &replyToID, &topicID, &createdAtStr,
		); err != nil {
			return nil, fmt.Errorf("scanning message log row: %w", err)
		}

		e.Kind = ThreadKind(kind)
		e.Content = content.String
		e.MediaKind = MediaKind(mediaKind.String)
		e.MediaFileID = mediaFileID.String
		e.FileName = fileName.String
		e.FileSize = fileSize.Int64
		e.GroupMessageID = groupMsgID.Int64
		e.ReplyToGroupMessageID = replyToID.Int64
		e.TopicID = topicID.Int64

		e.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message log rows: %w", err)
	}
	return entries, nil
}
