// ABOUTME: Store interface and data types for club-relay persistence
// ABOUTME: Defines User, DraftApplication, Application, ThreadMapEntry, MessageLog and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateThreadEntry is returned when registering a group message id
// that is already mapped. The Bot API guarantees message-id uniqueness per
// chat, so hitting this indicates a programming error in the caller.
var ErrDuplicateThreadEntry = errors.New("thread map entry already exists")

// UserState is the conversational state of a user's private chat.
type UserState string

const (
	StateIdle                  UserState = "idle"
	StateAwaitingAdminMessage  UserState = "awaiting_admin_message"
	StateCollectingApplication UserState = "collecting_application"
)

// ApplicationStatus tracks where a user sits in the application lifecycle.
// Per cycle it only moves None -> Pending -> {Approved, Rejected}.
type ApplicationStatus string

const (
	AppStatusNone     ApplicationStatus = "none"
	AppStatusPending  ApplicationStatus = "pending"
	AppStatusApproved ApplicationStatus = "approved"
	AppStatusRejected ApplicationStatus = "rejected"
)

// MediaKind identifies the Bot API media type of a relayed file.
// The telegram package holds the single dispatch table mapping kind to
// send method.
type MediaKind string

const (
	MediaPhoto     MediaKind = "photo"
	MediaAudio     MediaKind = "audio"
	MediaVoice     MediaKind = "voice"
	MediaVideo     MediaKind = "video"
	MediaDocument  MediaKind = "document"
	MediaVideoNote MediaKind = "video_note"
)

// User is a bot user mirrored from Telegram identity.
type User struct {
	UserID            int64
	Username          string
	FirstName         string
	LastName          string
	State             UserState
	ApplicationStatus ApplicationStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// FileRef describes one file attached to a message or application.
type FileRef struct {
	FileID   string    `json:"file_id"`
	FileName string    `json:"file_name"`
	FileSize int64     `json:"file_size"`
	Kind     MediaKind `json:"kind"`
}

// DraftApplication is the in-progress file collection for one user.
// Files preserve arrival order. A draft past ExpiresAt is treated as
// nonexistent on read; rows are swept opportunistically.
type DraftApplication struct {
	UserID    int64
	Files     []FileRef
	ExpiresAt time.Time
}

// Application lifecycle states. Submitted is the only non-terminal state.
const (
	ApplicationSubmitted = "submitted"
	ApplicationApproved  = "approved"
	ApplicationRejected  = "rejected"
)

// Application is an immutable snapshot of a draft at submit time.
type Application struct {
	ID          string
	UserID      int64
	Files       []FileRef
	Status      string
	SubmittedAt time.Time
	ProcessedAt *time.Time
	AdminNote   string
}

// ThreadKind distinguishes what an admin-group post represents.
type ThreadKind string

const (
	ThreadKindMessage     ThreadKind = "message"
	ThreadKindApplication ThreadKind = "application"
)

// ThreadMapEntry links an admin-group post back to its originating user.
// GroupMessageID is the unique key; ApplicationID is set only for
// application summary posts.
type ThreadMapEntry struct {
	GroupMessageID int64
	UserID         int64
	Kind           ThreadKind
	ApplicationID  string
	CreatedAt      time.Time
}

// Direction of a relayed item.
const (
	DirectionToAdmin = "to_admin"
	DirectionToUser  = "to_user"
)

// MessageLog is one append-only record of a relayed message or file.
type MessageLog struct {
	ID                    string
	UserID                int64
	Direction             string // to_admin or to_user
	Kind                  ThreadKind
	Content               string
	MediaKind             MediaKind
	MediaFileID           string
	FileName              string
	FileSize              int64
	GroupMessageID        int64
	ReplyToGroupMessageID int64
	TopicID               int64
	CreatedAt             time.Time
}

// Store defines the persistence interface for all club-relay entities.
// It is used as a document store: upsert/find/update by key, no joins.
type Store interface {
	// Users
	UpsertUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, userID int64) (*User, error)
	SetUserState(ctx context.Context, userID int64, state UserState) error
	SetApplicationStatus(ctx context.Context, userID int64, status ApplicationStatus) error

	// Draft applications
	GetDraft(ctx context.Context, userID int64) (*DraftApplication, error)
	PutDraft(ctx context.Context, draft *DraftApplication) error
	DeleteDraft(ctx context.Context, userID int64) error
	DeleteExpiredDrafts(ctx context.Context, now time.Time) (int64, error)

	// Applications
	CreateApplication(ctx context.Context, app *Application) error
	GetApplication(ctx context.Context, id string) (*Application, error)
	// FinalizeApplication moves a submitted application to a terminal status.
	// Returns the number of rows updated: 0 means the application was not in
	// the submitted state (or does not exist).
	FinalizeApplication(ctx context.Context, id, status string, processedAt time.Time, note string) (int64, error)

	// Thread map
	CreateThreadEntry(ctx context.Context, entry *ThreadMapEntry) error
	GetThreadEntry(ctx context.Context, groupMessageID int64) (*ThreadMapEntry, error)

	// Message log (append-only)
	SaveMessageLog(ctx context.Context, entry *MessageLog) error
	ListMessageLog(ctx context.Context, userID int64, limit int) ([]*MessageLog, error)

	// Close releases any resources held by the store
	Close() error
}
