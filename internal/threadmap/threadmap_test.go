// ABOUTME: Tests for the thread map
// ABOUTME: Registration, resolution, duplicates, and unmapped lookups

package threadmap

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/2389/club-relay/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMap(t *testing.T) *Map {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store.NewMockStore(), logger)
}

func TestMap_RegisterAndResolveMessage(t *testing.T) {
	m := newTestMap(t)
	ctx := context.Background()

	require.NoError(t, m.RegisterMessage(ctx, 500, 100))

	entry, err := m.Resolve(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(100), entry.UserID)
	assert.Equal(t, store.ThreadKindMessage, entry.Kind)
	assert.Empty(t, entry.ApplicationID)
}

func TestMap_RegisterAndResolveApplication(t *testing.T) {
	m := newTestMap(t)
	ctx := context.Background()

	require.NoError(t, m.RegisterApplication(ctx, 501, 100, "app-1"))

	entry, err := m.Resolve(ctx, 501)
	require.NoError(t, err)
	assert.Equal(t, store.ThreadKindApplication, entry.Kind)
	assert.Equal(t, "app-1", entry.ApplicationID)
}

func TestMap_DuplicateRegistration(t *testing.T) {
	m := newTestMap(t)
	ctx := context.Background()

	require.NoError(t, m.RegisterMessage(ctx, 500, 100))

	err := m.RegisterMessage(ctx, 500, 200)
	assert.ErrorIs(t, err, store.ErrDuplicateThreadEntry)
}

func TestMap_ResolveUnmapped(t *testing.T) {
	m := newTestMap(t)

	_, err := m.Resolve(context.Background(), 999)
	assert.ErrorIs(t, err, ErrUnmapped)
}
