package llm

import (
	"context"
	"sync"
	"time"
)

// Cache stores raw LLM replies by key. Implementations must be safe for
// concurrent use. A failing cache behaves as a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Close() error
}

const (
	defaultCacheTTL        = time.Hour
	defaultCacheMaxEntries = 10000
	cacheSweepInterval     = 5 * time.Minute
)

type cacheEntry struct {
	expiry time.Time
	value  []byte
}

// memoryCache keeps replies in process for ttl. When full it drops expired
// entries first and then the entry closest to expiry.
type memoryCache struct {
	entries    map[string]cacheEntry
	stopCh     chan struct{}
	ttl        time.Duration
	maxEntries int
	mu         sync.RWMutex
	once       sync.Once
}

func newMemoryCache(ttl time.Duration) *memoryCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	c := &memoryCache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: defaultCacheMaxEntries,
		stopCh:     make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiry) {
		return nil, false
	}
	return entry.value, true
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.sweepLocked(now)
		if len(c.entries) >= c.maxEntries {
			c.evictSoonestLocked()
		}
	}
	c.entries[key] = cacheEntry{
		value:  append([]byte(nil), value...),
		expiry: now.Add(c.ttl),
	}
}

func (c *memoryCache) sweepLoop() {
	ticker := time.NewTicker(cacheSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			c.sweepLocked(now)
			c.mu.Unlock()
		}
	}
}

// sweepLocked removes entries expired at now.
func (c *memoryCache) sweepLocked(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.expiry) {
			delete(c.entries, key)
		}
	}
}

func (c *memoryCache) evictSoonestLocked() {
	var (
		victim string
		first  time.Time
	)
	for key, entry := range c.entries {
		if victim == "" || entry.expiry.Before(first) {
			victim, first = key, entry.expiry
		}
	}
	delete(c.entries, victim)
}

func (c *memoryCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

func (c *memoryCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the sweeper. It is safe to call more than once.
func (c *memoryCache) Close() error {
	c.once.Do(func() { close(c.stopCh) })
	return nil
}

// noopCache never stores anything.
type noopCache struct{}

func (noopCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (noopCache) Set(context.Context, string, []byte)         {}
func (noopCache) Close() error                                { return nil }
