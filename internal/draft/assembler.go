// ABOUTME: Draft application assembly, one in-progress file collection per user.
// ABOUTME: Enforces the per-file size cap and the draft TTL with lazy expiry.

package draft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/club-relay/internal/store"
)

// ErrFileTooLarge is returned when an attached file exceeds the cap.
var ErrFileTooLarge = errors.New("file exceeds maximum size")

const (
	// DefaultTTL is how long an untouched draft survives.
	DefaultTTL = 24 * time.Hour
	// DefaultMaxFileSize caps individual files at 30 MB, below the Bot
	// API's own re-send limit.
	DefaultMaxFileSize = 30 << 20
)

// Assembler accumulates files into a user's draft application. Every
// accepted file refreshes the draft's expiry; a draft past its expiry
// reads as empty and is replaced on the next write.
type Assembler struct {
	store       store.Store
	ttl         time.Duration
	maxFileSize int64
	logger      *slog.Logger
	now         func() time.Time
}

// New creates an assembler. Zero ttl or maxFileSize select the defaults.
func New(s store.Store, ttl time.Duration, maxFileSize int64, logger *slog.Logger) *Assembler {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Assembler{
		store:       s,
		ttl:         ttl,
		maxFileSize: maxFileSize,
		logger:      logger.With("component", "draft"),
		now:         time.Now,
	}
}

// MaxFileSize returns the per-file size cap in bytes.
func (a *Assembler) MaxFileSize() int64 { return a.maxFileSize }

// AddFile appends one file to the user's draft and returns the new file
// count. Files over the size cap are rejected without touching the draft.
func (a *Assembler) AddFile(ctx context.Context, userID int64, file store.FileRef) (int, error) {
	if file.FileSize > a.maxFileSize {
		return 0, fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, file.FileSize, a.maxFileSize)
	}

	now := a.now()
	files, err := a.liveFiles(ctx, userID, now)
	if err != nil {
		return 0, err
	}

	files = append(files, file)
	draft := &store.DraftApplication{
		UserID:    userID,
		Files:     files,
		ExpiresAt: now.Add(a.ttl),
	}
	if err := a.store.PutDraft(ctx, draft); err != nil {
		return 0, fmt.Errorf("save draft: %w", err)
	}

	a.logger.Debug("file added to draft",
		"user_id", userID,
		"kind", file.Kind,
		"size", file.FileSize,
		"count", len(files))
	return len(files), nil
}

// Files returns the user's current draft files in arrival order. An
// expired or absent draft yields an empty slice.
func (a *Assembler) Files(ctx context.Context, userID int64) ([]store.FileRef, error) {
	return a.liveFiles(ctx, userID, a.now())
}

// Clear removes the user's draft. Missing drafts are not an error.
func (a *Assembler) Clear(ctx context.Context, userID int64) error {
	if err := a.store.DeleteDraft(ctx, userID); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}

// SweepExpired removes all drafts past their expiry. The gateway calls
// this on a timer; expired drafts are also invisible to reads before the
// sweep gets to them.
func (a *Assembler) SweepExpired(ctx context.Context) (int64, error) {
	removed, err := a.store.DeleteExpiredDrafts(ctx, a.now())
	if err != nil {
		return 0, fmt.Errorf("sweep drafts: %w", err)
	}
	if removed > 0 {
		a.logger.Info("expired drafts removed", "count", removed)
	}
	return removed, nil
}

// liveFiles loads the draft and applies expiry. Expired drafts read as
// empty here and are overwritten on the next AddFile.
func (a *Assembler) liveFiles(ctx context.Context, userID int64, now time.Time) ([]store.FileRef, error) {
	d, err := a.store.GetDraft(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if !d.ExpiresAt.After(now) {
		return nil, nil
	}
	return d.Files, nil
}
