package service

import (
	"testing"
	"time"

	"github.com/lacuradellauto/support-rag-be/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheTTLBoundary(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	cache := NewMemoryCacheWithClock(24*time.Hour, func() time.Time { return now })

	cache.Put("k", &CacheEntry{Drafts: []types.Draft{{Text: "hello"}}})

	// Just inside the TTL.
	now = base.Add(24*time.Hour - time.Second)
	entry, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, "hello", entry.Drafts[0].Text)

	// Just past the TTL.
	now = base.Add(24*time.Hour + time.Second)
	_, ok = cache.Get("k")
	assert.False(t, ok)

	// The expired entry was removed, not just hidden.
	_, _, size := cache.Stats()
	assert.Equal(t, 0, size)
}

func TestMemoryCacheMissOnUnknownKey(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	_, ok := cache.Get("nope")
	assert.False(t, ok)

	hits, misses, _ := cache.Stats()
	assert.Equal(t, uint64(0), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestMemoryCacheOverwriteSameKey(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	cache.Put("k", &CacheEntry{Drafts: []types.Draft{{Text: "first"}}})
	cache.Put("k", &CacheEntry{Drafts: []types.Draft{{Text: "second"}}})

	entry, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, "second", entry.Drafts[0].Text)
}

func TestCacheKeyNormalizesQuery(t *testing.T) {
	temps := []float32{0.3}
	a := CacheKey("  Come Lavare l'Auto  ", 3, 3, "italian", "gemma2:2b", 1, temps)
	b := CacheKey("come lavare l'auto", 3, 3, "italian", "gemma2:2b", 1, temps)
	assert.Equal(t, a, b)
}

func TestCacheKeySensitivity(t *testing.T) {
	temps := []float32{0.3}
	base := CacheKey("query", 3, 3, "italian", "gemma2:2b", 1, temps)

	assert.NotEqual(t, base, CacheKey("query", 3, 5, "italian", "gemma2:2b", 1, temps), "n_guides must affect the key")
	assert.NotEqual(t, base, CacheKey("query", 5, 3, "italian", "gemma2:2b", 1, temps), "n_tickets must affect the key")
	assert.NotEqual(t, base, CacheKey("query", 3, 3, "english", "gemma2:2b", 1, temps), "language must affect the key")
	assert.NotEqual(t, base, CacheKey("query", 3, 3, "italian", "llama3:8b", 1, temps), "model must affect the key")
	assert.NotEqual(t, base, CacheKey("query", 3, 3, "italian", "gemma2:2b", 2, []float32{0.3, 0.5}), "draft count must affect the key")
}
