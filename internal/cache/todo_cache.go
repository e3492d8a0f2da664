package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	dom "tasklist/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyListPrefix   = "todo:list:"
	keySearchPrefix = "todo:search:"
)

// TodoCache caches per-user todo list and search results in Redis.
type TodoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTodoCache returns a new TodoCache.
func NewTodoCache(rdb *redis.Client, ttl time.Duration) *TodoCache {
	return &TodoCache{rdb: rdb, ttl: ttl}
}

// GetList returns the cached list for the user or nil if miss.
func (c *TodoCache) GetList(ctx context.Context, userID int64) ([]dom.Todo, error) {
	return c.get(ctx, listKey(userID))
}

// SetList stores the user's list in cache.
func (c *TodoCache) SetList(ctx context.Context, userID int64, list []dom.Todo) error {
	return c.set(ctx, listKey(userID), list)
}

// GetSearch returns the cached search result for query q, or nil if miss.
func (c *TodoCache) GetSearch(ctx context.Context, userID int64, q string) ([]dom.Todo, error) {
	return c.get(ctx, searchKey(userID, q))
}

// SetSearch stores the search result in cache.
func (c *TodoCache) SetSearch(ctx context.Context, userID int64, q string, list []dom.Todo) error {
	return c.set(ctx, searchKey(userID, q), list)
}

// InvalidateUser removes the user's list and search keys (cache invalidation on write).
func (c *TodoCache) InvalidateUser(ctx context.Context, userID int64) error {
	uid := strconv.FormatInt(userID, 10)
	if err := c.rdb.Del(ctx, keyListPrefix+uid).Err(); err != nil {
		return err
	}
	iter := c.rdb.Scan(ctx, 0, keySearchPrefix+uid+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *TodoCache) get(ctx context.Context, key string) ([]dom.Todo, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []dom.Todo
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *TodoCache) set(ctx context.Context, key string, list []dom.Todo) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

func listKey(userID int64) string {
	return keyListPrefix + strconv.FormatInt(userID, 10)
}

func searchKey(userID int64, q string) string {
	return keySearchPrefix + strconv.FormatInt(userID, 10) + ":" + normalizeQuery(q)
}

func normalizeQuery(q string) string {
	return strings.TrimSpace(strings.ToLower(q))
}
