package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/unionlens/contract-assistant/internal/model"
	"github.com/unionlens/contract-assistant/internal/store"
)

// Horizon is the freshness window for a cached answer. Entries older than
// this are treated as absent and evicted on read.
const Horizon = 7 * 24 * time.Hour

// statDay formats the calendar day used as the CacheStat primary key.
func statDay(t time.Time) string { return t.UTC().Format("2006-01-02") }

// ResponseCache stores answers per (contract, normalized query) with
// expire-on-read semantics and daily hit/miss accounting.
//
// Failure policy: reads fail open (a storage error is a miss), writes and
// counter bumps are logged and swallowed. Cache trouble must never fail the
// request that produced the answer.
type ResponseCache struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func New(s store.Store, log zerolog.Logger) *ResponseCache {
	return &ResponseCache{store: s, log: log, now: time.Now}
}

// WithClock overrides the time source. Test hook.
func (c *ResponseCache) WithClock(now func() time.Time) *ResponseCache {
	c.now = now
	return c
}

// Get returns the cached answer for (contractID, query) when a fresh entry
// exists. A stale entry is evicted and reported as a miss. The returned bool
// mirrors a map lookup.
func (c *ResponseCache) Get(ctx context.Context, contractID, query string) (string, bool) {
	key := DeriveKey(contractID, query)
	now := c.now()

	e, err := c.store.CacheEntries().Get(ctx, key)
	if err != nil {
		if err != model.ErrNotFound {
			c.log.Warn().Err(err).Str("key", key).Msg("cache lookup failed, treating as miss")
		}
		c.recordMiss(ctx, now)
		return "", false
	}

	if now.Sub(e.CreationTime) > Horizon {
		// Concurrent reads of the same stale key may race to delete; the
		// delete is idempotent so no coordination is needed.
		if err := c.store.CacheEntries().Delete(ctx, key); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("stale cache entry eviction failed")
		}
		c.recordMiss(ctx, now)
		return "", false
	}

	c.recordHit(ctx, now)
	return e.ResponseText, true
}

// Put upserts the answer for (contractID, query). On a key conflict the
// response text is replaced and the entry's age resets. Errors are swallowed:
// failing to cache is never fatal to the request.
func (c *ResponseCache) Put(ctx context.Context, contractID, query, response string) {
	e := &model.CacheEntry{
		Key:          DeriveKey(contractID, query),
		ContractID:   contractID,
		QueryText:    query,
		ResponseText: response,
		CreationTime: c.now(),
	}
	if err := c.store.CacheEntries().Upsert(ctx, e); err != nil {
		c.log.Warn().Err(err).Str("key", e.Key).Msg("cache write failed")
	}
}

func (c *ResponseCache) recordHit(ctx context.Context, now time.Time) {
	if err := c.store.CacheStats().IncrHit(ctx, statDay(now)); err != nil {
		c.log.Warn().Err(err).Msg("cache hit counter bump failed")
	}
}

func (c *ResponseCache) recordMiss(ctx context.Context, now time.Time) {
	if err := c.store.CacheStats().IncrMiss(ctx, statDay(now)); err != nil {
		c.log.Warn().Err(err).Msg("cache miss counter bump failed")
	}
}
