package service

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lacuradellauto/support-rag-be/types"
)

// CacheEntry is one cached answer: the full draft set for a query and
// parameter tuple, stamped with its creation time.
type CacheEntry struct {
	Drafts    []types.Draft
	Model     string
	CreatedAt time.Time
}

// ResponseCache maps a cache key to a previously generated answer.
// Implementations must be safe for concurrent use.
type ResponseCache interface {
	Get(key string) (*CacheEntry, bool)
	Put(key string, entry *CacheEntry)
}

// CacheKey derives the deterministic key for a generation request.
// Every generation-affecting input participates, so any parameter
// change is a miss.
func CacheKey(query string, nTickets, nGuides int, language, model string, draftCount int, temperatures []float32) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	temps := make([]string, len(temperatures))
	for i, t := range temperatures {
		temps[i] = fmt.Sprintf("%.2f", t)
	}
	input := fmt.Sprintf("%s_%d_%d_%s_%s_%d_%s",
		normalized, nTickets, nGuides, strings.ToLower(language), model, draftCount, strings.Join(temps, ","))
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}

// MemoryCache is an in-memory ResponseCache with a fixed TTL. Expired
// entries are treated as absent on read and removed lazily. There is
// no size bound: at the intended scale (low thousands of distinct
// queries) unbounded growth is an accepted limitation.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
	ttl     time.Duration
	now     func() time.Time
	hits    uint64
	misses  uint64
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*CacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// NewMemoryCacheWithClock substitutes the time source, for tests.
func NewMemoryCacheWithClock(ttl time.Duration, now func() time.Time) *MemoryCache {
	cache := NewMemoryCache(ttl)
	cache.now = now
	return cache
}

func (c *MemoryCache) Get(key string) (*CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.now().Sub(entry.CreatedAt) > c.ttl {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	c.hits++
	return entry, true
}

func (c *MemoryCache) Put(key string, entry *CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = c.now()
	}
	c.entries[key] = entry
}

// Stats reports hit/miss counters and the live entry count.
func (c *MemoryCache) Stats() (hits, misses uint64, size int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, len(c.entries)
}
