// Package tasklist caches the connected account's task lists per
// session so tool calls can resolve the default list without a round
// trip on every turn.
package tasklist

import (
	"context"
	"time"

	"github.com/harunnryd/koyomi/internal/google"
	"github.com/harunnryd/koyomi/internal/session"
)

type Cache struct {
	api google.TasksAPI
	ttl time.Duration
	now func() time.Time
}

func NewCache(api google.TasksAPI, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 60 * time.Minute
	}
	return &Cache{
		api: api,
		ttl: ttl,
		now: time.Now,
	}
}

// Cached returns the cached task lists, or nil when the cache is empty
// or expired. It never fetches.
func (c *Cache) Cached(sess *session.Session) []google.TaskListView {
	cache := &sess.TaskListCache
	if len(cache.TaskLists) > 0 && cache.ExpiresAt.After(c.now()) {
		return cache.TaskLists
	}
	return nil
}

// Prefetch always fetches from the upstream and replaces the cache.
func (c *Cache) Prefetch(ctx context.Context, conn *google.Connection, sess *session.Session) ([]google.TaskListView, error) {
	lists, err := c.api.ListTaskLists(ctx, conn)
	if err != nil {
		return nil, err
	}
	sess.TaskListCache.TaskLists = lists
	sess.TaskListCache.ExpiresAt = c.now().Add(c.ttl)
	return lists, nil
}

// CachedOrFetch serves from the cache when valid and fetches otherwise.
func (c *Cache) CachedOrFetch(ctx context.Context, conn *google.Connection, sess *session.Session) ([]google.TaskListView, error) {
	if cached := c.Cached(sess); cached != nil {
		return cached, nil
	}
	return c.Prefetch(ctx, conn, sess)
}
