package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// memoryCache is a map-backed Cache for tests. TTLs are recorded, not
// enforced.
type memoryCache struct {
	entries map[string][]byte
	ttls    map[string]time.Duration
	failing bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if m.failing {
		return nil, errors.New("connection refused")
	}
	data, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	return data, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.failing {
		return errors.New("connection refused")
	}
	m.entries[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	if m.failing {
		return errors.New("connection refused")
	}
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *memoryCache) Close() error { return nil }

type listing struct {
	Tasks []string `json:"tasks"`
	Page  int      `json:"page"`
}

func TestListingCache_RoundTrip(t *testing.T) {
	backend := newMemoryCache()
	lc := NewListingCache(backend, 3*time.Hour, zap.NewNop())
	ctx := context.Background()

	key := TaskListKey(7, 1, 10)
	lc.Put(ctx, key, listing{Tasks: []string{"a", "b"}, Page: 1})

	var got listing
	assert.True(t, lc.Get(ctx, key, &got))
	assert.Equal(t, listing{Tasks: []string{"a", "b"}, Page: 1}, got)
	assert.Equal(t, 3*time.Hour, backend.ttls[key])
}

func TestListingCache_MissReturnsFalse(t *testing.T) {
	lc := NewListingCache(newMemoryCache(), time.Hour, zap.NewNop())

	var got listing
	assert.False(t, lc.Get(context.Background(), TaskListKey(7, 1, 10), &got))
}

func TestListingCache_InvalidateWorkspaceScope(t *testing.T) {
	backend := newMemoryCache()
	lc := NewListingCache(backend, time.Hour, zap.NewNop())
	ctx := context.Background()

	lc.Put(ctx, TaskListKey(7, 1, 10), listing{Page: 1})
	lc.Put(ctx, TaskListKey(7, 2, 10), listing{Page: 2})
	lc.Put(ctx, TaskListKey(8, 1, 10), listing{Page: 1})
	lc.Put(ctx, ArchivedKey(7, 1, 10), listing{Page: 1})

	lc.InvalidateWorkspace(ctx, 7)

	var got listing
	assert.False(t, lc.Get(ctx, TaskListKey(7, 1, 10), &got))
	assert.False(t, lc.Get(ctx, TaskListKey(7, 2, 10), &got))
	// Other workspaces and user archives are untouched
	assert.True(t, lc.Get(ctx, TaskListKey(8, 1, 10), &got))
	assert.True(t, lc.Get(ctx, ArchivedKey(7, 1, 10), &got))
}

func TestListingCache_InvalidateUserArchiveScope(t *testing.T) {
	backend := newMemoryCache()
	lc := NewListingCache(backend, time.Hour, zap.NewNop())
	ctx := context.Background()

	lc.Put(ctx, ArchivedKey(7, 1, 10), listing{Page: 1})
	lc.Put(ctx, ArchivedKey(9, 1, 10), listing{Page: 1})

	lc.InvalidateUserArchive(ctx, 7)

	var got listing
	assert.False(t, lc.Get(ctx, ArchivedKey(7, 1, 10), &got))
	assert.True(t, lc.Get(ctx, ArchivedKey(9, 1, 10), &got))
}

func TestListingCache_BackendErrorDegradesToMiss(t *testing.T) {
	backend := newMemoryCache()
	backend.failing = true
	lc := NewListingCache(backend, time.Hour, zap.NewNop())
	ctx := context.Background()

	// Writes and invalidations are swallowed, reads report a miss
	lc.Put(ctx, TaskListKey(7, 1, 10), listing{Page: 1})
	lc.InvalidateWorkspace(ctx, 7)

	var got listing
	assert.False(t, lc.Get(ctx, TaskListKey(7, 1, 10), &got))
}

func TestKeyShapes(t *testing.T) {
	assert.Equal(t, "task-list:7:1:10", TaskListKey(7, 1, 10))
	assert.Equal(t, "archived:3:2:25", ArchivedKey(3, 2, 25))
}
