// ABOUTME: Thread map, routing admin-group posts back to originating users.
// ABOUTME: One entry per group message id, written before any admin can reply.

package threadmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/club-relay/internal/store"
)

// ErrUnmapped is returned when a group message has no routing entry.
// Admin replies to such messages cannot be delivered and are ignored.
var ErrUnmapped = errors.New("group message not mapped to a user")

// Map records which user each admin-group post belongs to. Entries are
// immutable once written; the group message id is unique per chat so a
// duplicate Register indicates a bug in the caller.
type Map struct {
	store  store.Store
	logger *slog.Logger
}

func New(s store.Store, logger *slog.Logger) *Map {
	return &Map{
		store:  s,
		logger: logger.With("component", "threadmap"),
	}
}

// RegisterMessage maps a relayed user message's group post.
func (m *Map) RegisterMessage(ctx context.Context, groupMessageID, userID int64) error {
	return m.register(ctx, &store.ThreadMapEntry{
		GroupMessageID: groupMessageID,
		UserID:         userID,
		Kind:           store.ThreadKindMessage,
		CreatedAt:      time.Now(),
	})
}

// RegisterApplication maps an application summary post, carrying the
// application id so admin actions can locate the application.
func (m *Map) RegisterApplication(ctx context.Context, groupMessageID, userID int64, appID string) error {
	return m.register(ctx, &store.ThreadMapEntry{
		GroupMessageID: groupMessageID,
		UserID:         userID,
		Kind:           store.ThreadKindApplication,
		ApplicationID:  appID,
		CreatedAt:      time.Now(),
	})
}

func (m *Map) register(ctx context.Context, entry *store.ThreadMapEntry) error {
	if err := m.store.CreateThreadEntry(ctx, entry); err != nil {
		return fmt.Errorf("register thread entry %d: %w", entry.GroupMessageID, err)
	}
	m.logger.Debug("thread entry registered",
		"group_message_id", entry.GroupMessageID,
		"user_id", entry.UserID,
		"kind", entry.Kind)
	return nil
}

// Resolve returns the routing entry for a group message id, or ErrUnmapped.
func (m *Map) Resolve(ctx context.Context, groupMessageID int64) (*store.ThreadMapEntry, error) {
	entry, err := m.store.GetThreadEntry(ctx, groupMessageID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("group message %d: %w", groupMessageID, ErrUnmapped)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve thread entry %d: %w", groupMessageID, err)
	}
	return entry, nil
}
