package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/alvmarrod/degrees/internal/query"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "degrees:page:"

// NewRedisClient connects to redis and verifies the connection
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

// PageCache serves page metadata from redis and falls back to the wrapped
// fetcher for misses. Redis failures are logged and treated as misses
type PageCache struct {
	rdb  *redis.Client
	next query.MetadataFetcher
	ttl  time.Duration
}

// NewPageCache wraps next with a redis-backed cache
func NewPageCache(rdb *redis.Client, next query.MetadataFetcher, ttl time.Duration) *PageCache {
	return &PageCache{rdb: rdb, next: next, ttl: ttl}
}

// FetchMetadata implements query.MetadataFetcher
func (c *PageCache) FetchMetadata(ctx context.Context, pageIDs []int) (query.PagesMap, error) {
	if len(pageIDs) == 0 {
		return query.PagesMap{}, nil
	}

	pages, misses := c.lookup(ctx, pageIDs)
	if len(misses) == 0 {
		logrus.Debugf("Metadata cache hit for all %d pages", len(pageIDs))
		return pages, nil
	}

	fetched, err := c.next.FetchMetadata(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, info := range fetched {
		pages[id] = info
	}

	c.store(ctx, fetched)
	return pages, nil
}

func (c *PageCache) lookup(ctx context.Context, pageIDs []int) (query.PagesMap, []int) {
	pages := make(query.PagesMap, len(pageIDs))

	keys := make([]string, len(pageIDs))
	for i, id := range pageIDs {
		keys[i] = cacheKey(id)
	}

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		logrus.Warnf("Metadata cache lookup failed, fetching %d pages upstream: %v", len(pageIDs), err)
		return pages, pageIDs
	}

	var misses []int
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			misses = append(misses, pageIDs[i])
			continue
		}
		var info query.PageInfo
		if err := json.Unmarshal([]byte(raw), &info); err != nil {
			logrus.Warnf("Discarding corrupt cache entry %s: %v", keys[i], err)
			misses = append(misses, pageIDs[i])
			continue
		}
		pages[pageIDs[i]] = info
	}

	return pages, misses
}

func (c *PageCache) store(ctx context.Context, pages query.PagesMap) {
	if len(pages) == 0 {
		return
	}

	pipe := c.rdb.Pipeline()
	for id, info := range pages {
		raw, err := json.Marshal(info)
		if err != nil {
			continue
		}
		pipe.Set(ctx, cacheKey(id), raw, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logrus.Warnf("Failed to cache metadata for %d pages: %v", len(pages), err)
	}
}

func cacheKey(pageID int) string {
	return keyPrefix + strconv.Itoa(pageID)
}
