// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu       sync.RWMutex
	users    map[int64]*User
	drafts   map[int64]*DraftApplication
	apps     map[string]*Application
	threads  map[int64]*ThreadMapEntry
	messages map[int64][]*MessageLog
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		users:    make(map[int64]*User),
		drafts:   make(map[int64]*DraftApplication),
		apps:     make(map[string]*Application),
		threads:  make(map[int64]*ThreadMapEntry),
		messages: make(map[int64][]*MessageLog),
	}
}

// UpsertUser inserts or refreshes a user. Matches the SQLite behavior:
// identity fields and state are replaced, application status is preserved
// for existing users.
func (m *MockStore) UpsertUser(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := *user
	if u.State == "" {
		u.State = StateIdle
	}
	if u.ApplicationStatus == "" {
		u.ApplicationStatus = AppStatusNone
	}
	now := time.Now().UTC()
	if existing, ok := m.users[u.UserID]; ok {
		u.ApplicationStatus = existing.ApplicationStatus
		u.CreatedAt = existing.CreatedAt
	} else {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	m.users[u.UserID] = &u
	return nil
}

// GetUser retrieves a user by id.
func (m *MockStore) GetUser(ctx context.Context, userID int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	result := *u
	return &result, nil
}

// SetUserState updates a user's conversational state.
func (m *MockStore) SetUserState(ctx context.Context, userID int64, state UserState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.State = state
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// SetApplicationStatus updates the status mirrored on the user.
func (m *MockStore) SetApplicationStatus(ctx context.Context, userID int64, status ApplicationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.ApplicationStatus = status
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// GetDraft retrieves a draft without evaluating expiry.
func (m *MockStore) GetDraft(ctx context.Context, userID int64) (*DraftApplication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.drafts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	result := *d
	result.Files = append([]FileRef(nil), d.Files...)
	return &result, nil
}

// PutDraft inserts or replaces a draft.
func (m *MockStore) PutDraft(ctx context.Context, draft *DraftApplication) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := *draft
	d.Files = append([]FileRef(nil), draft.Files...)
	m.drafts[d.UserID] = &d
	return nil
}

// DeleteDraft removes a draft if present.
func (m *MockStore) DeleteDraft(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.drafts, userID)
	return nil
}

// DeleteExpiredDrafts removes drafts whose expiry is at or before now.
func (m *MockStore) DeleteExpiredDrafts(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for id, d := range m.drafts {
		if !d.ExpiresAt.After(now) {
			delete(m.drafts, id)
			removed++
		}
	}
	return removed, nil
}

// CreateApplication stores a new application.
func (m *MockStore) CreateApplication(ctx context.Context, app *Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a := *app
	a.Files = append([]FileRef(nil), app.Files...)
	m.apps[a.ID] = &a
	return nil
}

// GetApplication retrieves an application by id.
func (m *MockStore) GetApplication(ctx context.Context, id string) (*Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.apps[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *a
	result.Files = append([]FileRef(nil), a.Files...)
	return &result, nil
}

// FinalizeApplication moves a submitted application to a terminal status.
func (m *MockStore) FinalizeApplication(ctx context.Context, id, status string, processedAt time.Time, note string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.apps[id]
	if !ok || a.Status != ApplicationSubmitted {
		return 0, nil
	}
	a.Status = status
	t := processedAt
	a.ProcessedAt = &t
	a.AdminNote = note
	return 1, nil
}

// CreateThreadEntry stores a thread map entry.
func (m *MockStore) CreateThreadEntry(ctx context.Context, entry *ThreadMapEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.threads[entry.GroupMessageID]; exists {
		return ErrDuplicateThreadEntry
	}
	e := *entry
	m.threads[e.GroupMessageID] = &e
	return nil
}

// GetThreadEntry retrieves an entry by group message id.
func (m *MockStore) GetThreadEntry(ctx context.Context, groupMessageID int64) (*ThreadMapEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.threads[groupMessageID]
	if !ok {
		return nil, ErrNotFound
	}
	result := *e
	return &result, nil
}

// SaveMessageLog appends a message log entry.
func (m *MockStore) SaveMessageLog(ctx context.Context, entry *MessageLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := *entry
	m.messages[e.UserID] = append(m.messages[e.UserID], &e)
	return nil
}

// ListMessageLog returns a user's log entries in chronological order.
func (m *MockStore) ListMessageLog(ctx context.Context, userID int64, limit int) ([]*MessageLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.messages[userID]
	result := make([]*MessageLog, len(entries))
	for i, e := range entries {
		copied := *e
		result[i] = &copied
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}

// Ensure MockStore implements Store interface
var _ Store = (*MockStore)(nil)
