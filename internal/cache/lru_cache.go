package cache

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tabuasmare/marebot/internal/config"
	"github.com/tabuasmare/marebot/internal/models"
)

// LRUCacheEntry wraps the cached coordinate with its expiry
type LRUCacheEntry struct {
	Data      models.Coordinate
	ExpiresAt time.Time
}

// CoordinateCache keeps recently geocoded places in memory.
// Only successful lookups are stored, so a miss is always retried upstream.
type CoordinateCache struct {
	lru    *lru.Cache[string, *LRUCacheEntry]
	ttl    time.Duration
	clock  clock
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCoordinateCache creates a cache sized and aged from cfg
func NewCoordinateCache(cfg *config.CacheConfig) (*CoordinateCache, error) {
	lruCache, err := lru.New[string, *LRUCacheEntry](cfg.GeocodeLRUSize)
	if err != nil {
		return nil, fmt.Errorf("creating LRU cache: %w", err)
	}

	return &CoordinateCache{
		lru:   lruCache,
		ttl:   cfg.GetGeocodeLRUTTL(),
		clock: realClock{},
	}, nil
}

func cacheKey(place string) string {
	return strings.ToLower(strings.TrimSpace(place))
}

// Get returns the cached coordinate for place if present and not expired
func (c *CoordinateCache) Get(place string) (models.Coordinate, bool) {
	key := cacheKey(place)
	if entry, ok := c.lru.Get(key); ok {
		if c.clock.Now().Before(entry.ExpiresAt) {
			c.hits.Add(1)
			return entry.Data, true
		}
		// Entry expired, remove it
		c.lru.Remove(key)
	}
	c.misses.Add(1)
	return models.Coordinate{}, false
}

func (c *CoordinateCache) Put(place string, coord models.Coordinate) {
	c.lru.Add(cacheKey(place), &LRUCacheEntry{
		Data:      coord,
		ExpiresAt: c.clock.Now().Add(c.ttl),
	})
}

// Stats returns statistics about cache hits and misses
func (c *CoordinateCache) Stats() map[string]uint64 {
	return map[string]uint64{
		"lru_hits":   c.hits.Load(),
		"lru_misses": c.misses.Load(),
	}
}

// Clear removes all entries from the cache
func (c *CoordinateCache) Clear() {
	c.lru.Purge()
}
