// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides user/draft/application/thread-map persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			user_id            INTEGER PRIMARY KEY,
			username           TEXT,
			first_name         TEXT,
			last_name          TEXT,
			state              TEXT NOT NULL DEFAULT 'idle',
			application_status TEXT NOT NULL DEFAULT 'none',
			created_at         TEXT NOT NULL,
			updated_at         TEXT NOT NULL,

			CHECK (state IN ('idle', 'awaiting_admin_message', 'collecting_application')),
			CHECK (application_status IN ('none', 'pending', 'approved', 'rejected'))
		);

		CREATE TABLE IF NOT EXISTS draft_applications (
			user_id    INTEGER PRIMARY KEY,
			files_json TEXT NOT NULL,
			expires_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_drafts_expires ON draft_applications(expires_at);

		CREATE TABLE IF NOT EXISTS applications (
			id           TEXT PRIMARY KEY,
			user_id      INTEGER NOT NULL,
			files_json   TEXT NOT NULL,
			status       TEXT NOT NULL DEFAULT 'submitted',
			submitted_at TEXT NOT NULL,
			processed_at TEXT,
			admin_note   TEXT,

			CHECK (status IN ('submitted', 'approved', 'rejected'))
		);

		CREATE INDEX IF NOT EXISTS idx_applications_user ON applications(user_id);

		CREATE TABLE IF NOT EXISTS thread_map (
			group_message_id INTEGER PRIMARY KEY,
			user_id          INTEGER NOT NULL,
			kind             TEXT NOT NULL DEFAULT 'message',
			application_id   TEXT,
			created_at       TEXT NOT NULL,

			CHECK (kind IN ('message', 'application'))
		);

		CREATE INDEX IF NOT EXISTS idx_thread_map_user ON thread_map(user_id);

		CREATE TABLE IF NOT EXISTS message_log (
			id                        TEXT PRIMARY KEY,
			user_id                   INTEGER NOT NULL,
			direction                 TEXT NOT NULL,
			kind                      TEXT NOT NULL DEFAULT 'message',
			content                   TEXT,
			media_kind                TEXT,
			media_file_id             TEXT,
			file_name                 TEXT,
			file_size                 INTEGER,
			group_message_id          INTEGER,
			reply_to_group_message_id INTEGER,
			topic_id                  INTEGER,
			created_at                TEXT NOT NULL,

			CHECK (direction IN ('to_admin', 'to_user'))
		);

		CREATE INDEX IF NOT EXISTS idx_message_log_user ON message_log(user_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// UpsertUser inserts a user or refreshes identity fields on conflict.
// State is reset to idle on every upsert: registration always lands the
// user back at the main menu. Application status is preserved.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (user_id, username, first_name, last_name, state, application_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			state = excluded.state,
			updated_at = excluded.updated_at
	`

	state := user.State
	if state == "" {
		state = StateIdle
	}
	status := user.ApplicationStatus
	if status == "" {
		status = AppStatusNone
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, query,
		user.UserID,
		user.Username,
		user.FirstName,
		user.LastName,
		string(state),
		string(status),
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}

	s.logger.Debug("upserted user", "user_id", user.UserID)
	return nil
}

// GetUser retrieves a user by Telegram user id.
// Returns ErrNotFound if the user has never registered.
func (s *SQLiteStore) GetUser(ctx context.Context, userID int64) (*User, error) {
	query := `
		SELECT user_id, username, first_name, last_name, state, application_status, created_at, updated_at
		FROM users
		WHERE user_id = ?
	`

	var user User
	var username, firstName, lastName sql.NullString
	var state, status, createdAtStr, updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.UserID,
		&username,
		&firstName,
		&lastName,
		&state,
		&status,
		&createdAtStr,
		&updatedAtStr,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	user.Username = username.String
	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.State = UserState(state)
	user.ApplicationStatus = ApplicationStatus(status)

	user.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	user.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &user, nil
}

// SetUserState updates the conversational state of a user.
// Returns ErrNotFound if the user has never registered.
func (s *SQLiteStore) SetUserState(ctx context.Context, userID int64, state UserState) error {
	query := `UPDATE users SET state = ?, updated_at = ? WHERE user_id = ?`

	result, err := s.db.ExecContext(ctx, query,
		string(state),
		time.Now().UTC().Format(time.RFC3339),
		userID,
	)
	if err != nil {
		return fmt.Errorf("updating user state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("set user state", "user_id", userID, "state", state)
	return nil
}

// SetApplicationStatus updates the application status mirrored on the user.
// Returns ErrNotFound if the user has never registered.
func (s *SQLiteStore) SetApplicationStatus(ctx context.Context, userID int64, status ApplicationStatus) error {
	query := `UPDATE users SET application_status = ?, updated_at = ? WHERE user_id = ?`

	result, err := s.db.ExecContext(ctx, query,
		string(status),
		time.Now().UTC().Format(time.RFC3339),
		userID,
	)
	if err != nil {
		return fmt.Errorf("updating application status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("set application status", "user_id", userID, "status", status)
	return nil
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
