// internal/cache/cache.go
package cache

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/law-makers/reviewcrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

// Cache defines the interface for scrape result caching implementations.
//
// Entries are keyed by target URL and requested limit (see KeyFor).
type Cache interface {
	// Get retrieves cached reviews by key.
	Get(key string) ([]models.Review, bool)

	// Set stores reviews under key, replacing any existing entry.
	Set(key string, reviews []models.Review)

	// Delete removes a cached entry. Missing keys are ignored.
	Delete(key string)

	// Clear removes all entries.
	Clear()

	// Len returns the number of live entries.
	Len() int
}

// MemoryCache is an in-memory LRU cache whose entries expire after a fixed TTL
type MemoryCache struct {
	lru    *expirable.LRU[string, []models.Review]
	ttl    time.Duration
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewMemoryCache creates a cache holding at most size entries for ttl each
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MemoryCache{
		lru: expirable.NewLRU[string, []models.Review](size, func(key string, _ []models.Review) {
			log.Debug().Str("key", key).Msg("Evicted from cache")
		}, ttl),
		ttl: ttl,
	}
}

// Get retrieves cached reviews. The returned slice is a copy.
func (mc *MemoryCache) Get(key string) ([]models.Review, bool) {
	reviews, ok := mc.lru.Get(key)
	if !ok {
		mc.misses.Add(1)
		return nil, false
	}
	mc.hits.Add(1)
	log.Debug().Str("key", key).Msg("Cache hit")
	return clone(reviews), true
}

// Set stores a copy of reviews under key
func (mc *MemoryCache) Set(key string, reviews []models.Review) {
	mc.lru.Add(key, clone(reviews))
	log.Debug().
		Str("key", key).
		Dur("ttl", mc.ttl).
		Int("reviews", len(reviews)).
		Msg("Cached result")
}

// Delete removes a cached entry
func (mc *MemoryCache) Delete(key string) {
	mc.lru.Remove(key)
}

// Clear removes all cached entries and resets counters
func (mc *MemoryCache) Clear() {
	mc.lru.Purge()
	mc.hits.Store(0)
	mc.misses.Store(0)
}

// Len returns the number of live entries
func (mc *MemoryCache) Len() int {
	return mc.lru.Len()
}

// Stats returns cache statistics including hit rate
func (mc *MemoryCache) Stats() map[string]interface{} {
	hits := mc.hits.Load()
	misses := mc.misses.Load()

	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return map[string]interface{}{
		"entries":  mc.lru.Len(),
		"hits":     hits,
		"misses":   misses,
		"hit_rate": hitRate,
	}
}

// Nop is a Cache that never stores anything
type Nop struct{}

func (Nop) Get(string) ([]models.Review, bool) { return nil, false }
func (Nop) Set(string, []models.Review)        {}
func (Nop) Delete(string)                      {}
func (Nop) Clear()                             {}
func (Nop) Len() int                           { return 0 }

// KeyFor generates a cache key from a URL and review limit
func KeyFor(url string, limit int) string {
	if limit < 0 {
		limit = 0
	}
	return fmt.Sprintf("%s::%d", url, limit)
}

func clone(rs []models.Review) []models.Review {
	if rs == nil {
		return nil
	}
	out := make([]models.Review, len(rs))
	copy(out, rs)
	return out
}
