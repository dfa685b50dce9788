package langprompt

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// cacheNamespace is the fixed first token of every cache key.
const cacheNamespace = "langprompt"

// cacheKeySep joins key parts. Identifiers must not contain it; there is no
// escaping.
const cacheKeySep = ":"

// NoExpiry is a Set TTL sentinel storing an entry that never expires. Used
// for content addressed by exact version number, which is immutable.
const NoExpiry time.Duration = -1

// CacheEntry holds a cached payload and its expiry. A zero ExpiresAt means
// the entry never expires.
type CacheEntry struct {
	Value     json.RawMessage
	ExpiresAt time.Time
}

func (e *CacheEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Cache is an in-process key→payload store with per-entry TTL. It is
// disabled by default: a disabled cache accepts every call and always
// misses. Safe for concurrent use.
//
// Expiry is enforced on read: Get evicts any expired entry it finds.
// CleanupExpired exists for periodic maintenance only, not correctness.
type Cache struct {
	enabled    bool
	defaultTTL time.Duration

	mu    sync.RWMutex
	store map[string]*CacheEntry
}

// NewCache creates a cache. When enabled is false all operations are no-ops.
func NewCache(enabled bool, defaultTTL time.Duration) *Cache {
	return &Cache{
		enabled:    enabled,
		defaultTTL: defaultTTL,
		store:      make(map[string]*CacheEntry),
	}
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Get returns the stored payload for key, or ok=false when the cache is
// disabled, the key is absent, or the entry has expired. An expired entry is
// removed as a side effect of the read.
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	if !c.enabled {
		return nil, false
	}

	c.mu.RLock()
	entry, exists := c.store[key]
	c.mu.RUnlock()
	if !exists {
		return nil, false
	}

	if entry.expired(time.Now()) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have replaced it.
		if cur, ok := c.store[key]; ok && cur.expired(time.Now()) {
			delete(c.store, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return entry.Value, true
}

// Set stores value under key. A ttl of 0 uses the configured default;
// NoExpiry stores the entry without an expiry. No-op when disabled.
func (c *Cache) Set(key string, value json.RawMessage, ttl time.Duration) {
	if !c.enabled {
		return
	}

	entry := &CacheEntry{Value: value}
	switch {
	case ttl == NoExpiry:
		// zero ExpiresAt: never expires
	case ttl == 0:
		entry.ExpiresAt = time.Now().Add(c.defaultTTL)
	default:
		entry.ExpiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.store[key] = entry
	c.mu.Unlock()
}

// Delete removes key unconditionally.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.store, key)
	c.mu.Unlock()
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.store = make(map[string]*CacheEntry)
	c.mu.Unlock()
}

// CleanupExpired sweeps all currently-expired entries and returns the count
// removed.
func (c *Cache) CleanupExpired() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.store {
		if entry.expired(now) {
			delete(c.store, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// MakeKey builds a cache key from a project scope, a resource-type token and
// zero or more identifiers:
//
//	MakeKey("proj-123", "prompt", "greeting") == "langprompt:proj-123:prompt:greeting"
func MakeKey(projectScope, resource string, identifiers ...string) string {
	parts := make([]string, 0, 3+len(identifiers))
	parts = append(parts, cacheNamespace, projectScope, resource)
	parts = append(parts, identifiers...)
	return strings.Join(parts, cacheKeySep)
}
