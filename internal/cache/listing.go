package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	taskListPrefix = "task-list"
	archivedPrefix = "archived"
)

// ListingCache is the read-through cache for paginated task listings.
// Keys are scoped by workspace (active listings) or by user (archived
// listings); invalidation always covers the whole scope. Cache failures
// degrade to store reads and are logged, never surfaced.
type ListingCache struct {
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewListingCache creates a ListingCache over the given capability.
func NewListingCache(c Cache, ttl time.Duration, logger *zap.Logger) *ListingCache {
	return &ListingCache{cache: c, ttl: ttl, logger: logger}
}

// TaskListKey builds the key for a workspace-scoped task listing page.
func TaskListKey(workspaceID uint64, page, limit int) string {
	return fmt.Sprintf("%s:%d:%d:%d", taskListPrefix, workspaceID, page, limit)
}

// ArchivedKey builds the key for a user-scoped archived listing page.
func ArchivedKey(userID uint64, page, limit int) string {
	return fmt.Sprintf("%s:%d:%d:%d", archivedPrefix, userID, page, limit)
}

// Get unmarshals a cached listing into out. Returns false on miss or error.
func (l *ListingCache) Get(ctx context.Context, key string, out interface{}) bool {
	data, err := l.cache.Get(ctx, key)
	if err != nil {
		if err != ErrMiss {
			l.logger.Warn("cache read failed, falling back to store", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		l.logger.Warn("cache entry corrupt, discarding", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Put writes a listing through to the cache with the configured TTL.
func (l *ListingCache) Put(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		l.logger.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := l.cache.Set(ctx, key, data, l.ttl); err != nil {
		l.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateWorkspace drops every cached page of a workspace's task listing.
func (l *ListingCache) InvalidateWorkspace(ctx context.Context, workspaceID uint64) {
	prefix := fmt.Sprintf("%s:%d:", taskListPrefix, workspaceID)
	if err := l.cache.DeleteByPrefix(ctx, prefix); err != nil {
		l.logger.Warn("cache invalidation failed", zap.String("prefix", prefix), zap.Error(err))
	}
}

// InvalidateUserArchive drops every cached page of a user's archived listing.
func (l *ListingCache) InvalidateUserArchive(ctx context.Context, userID uint64) {
	prefix := fmt.Sprintf("%s:%d:", archivedPrefix, userID)
	if err := l.cache.DeleteByPrefix(ctx, prefix); err != nil {
		l.logger.Warn("cache invalidation failed", zap.String("prefix", prefix), zap.Error(err))
	}
}
