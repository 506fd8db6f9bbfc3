// ABOUTME: Tests for the in-process TTL dedupe cache
// ABOUTME: Covers duplicate detection, TTL expiry, and size-based eviction

package dedupe

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_Seen(t *testing.T) {
	c := New(time.Minute, 100)
	defer c.Close()
	ctx := context.Background()

	dup, err := c.Seen(ctx, "update-1")
	require.NoError(t, err)
	assert.False(t, dup, "first sighting must not be a duplicate")

	dup, err = c.Seen(ctx, "update-1")
	require.NoError(t, err)
	assert.True(t, dup, "second sighting must be a duplicate")

	dup, err = c.Seen(ctx, "update-2")
	require.NoError(t, err)
	assert.False(t, dup, "different key must not be a duplicate")
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(50*time.Millisecond, 100)
	defer c.Close()
	ctx := context.Background()

	_, err := c.Seen(ctx, "update-1")
	require.NoError(t, err)
	assert.True(t, c.Check("update-1"))

	time.Sleep(80 * time.Millisecond)

	assert.False(t, c.Check("update-1"), "expired key must read as unseen")

	dup, err := c.Seen(ctx, "update-1")
	require.NoError(t, err)
	assert.False(t, dup, "expired key must be markable again")
}

func TestCache_EvictsOldestAtCapacity(t *testing.T) {
	c := New(time.Minute, 3)
	defer c.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Seen(ctx, fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
	}

	_, err := c.Seen(ctx, "key-3")
	require.NoError(t, err)

	assert.False(t, c.Check("key-0"), "oldest key must be evicted")
	assert.True(t, c.Check("key-1"))
	assert.True(t, c.Check("key-3"))
}

func TestCache_ConcurrentSeen(t *testing.T) {
	c := New(time.Minute, 1000)
	defer c.Close()
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	fresh := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dup, err := c.Seen(ctx, "contested")
			assert.NoError(t, err)
			if !dup {
				mu.Lock()
				fresh++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fresh, "exactly one goroutine may claim the key")
}

func TestCache_CloseIsIdempotent(t *testing.T) {
	c := New(time.Minute, 10)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
