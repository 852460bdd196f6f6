package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Fetcher loads a draw's rules from the remote authority.
type Fetcher interface {
	FetchDrawRules(ctx context.Context, drawID string) (DrawRules, error)
}

// Cache is a read-through Redis cache over the authority's rules
// endpoint. Capture sessions read rules at open time; the TTL bounds how
// stale a terminal's limits can get while online.
type Cache struct {
	Rdb     *redis.Client
	Fetcher Fetcher
	TTL     time.Duration
}

func NewCache(rdb *redis.Client, f Fetcher, ttl time.Duration) *Cache {
	return &Cache{Rdb: rdb, Fetcher: f, TTL: ttl}
}

func key(drawID string) string { return "rules:draw:" + drawID }

// Get returns the rules for a draw, preferring the cached copy and
// falling back to the authority on a miss. Cache errors count as misses
// so a down redis never blocks opening a session.
func (c *Cache) Get(ctx context.Context, drawID string) (DrawRules, error) {
	if b, err := c.Rdb.Get(ctx, key(drawID)).Bytes(); err == nil {
		var r DrawRules
		if jerr := json.Unmarshal(b, &r); jerr == nil {
			return r, nil
		}
	}

	r, err := c.Fetcher.FetchDrawRules(ctx, drawID)
	if err != nil {
		return DrawRules{}, fmt.Errorf("fetch draw rules: %w", err)
	}

	if raw, merr := json.Marshal(r); merr == nil {
		_ = c.Rdb.Set(ctx, key(drawID), raw, c.TTL).Err()
	}
	return r, nil
}
