package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("basic operations", func(t *testing.T) {
		cache := newMemoryCache(5 * time.Minute)
		defer func() { _ = cache.Close() }()

		_, found := cache.Get(ctx, "non-existent")
		assert.False(t, found)

		cache.Set(ctx, "classify:금리", []byte(`{"term":"금리","is_financial":true}`))

		got, found := cache.Get(ctx, "classify:금리")
		assert.True(t, found)
		assert.JSONEq(t, `{"term":"금리","is_financial":true}`, string(got))
		assert.Equal(t, 1, cache.size())

		cache.clear()
		assert.Equal(t, 0, cache.size())
		_, found = cache.Get(ctx, "classify:금리")
		assert.False(t, found)
	})

	t.Run("expiration", func(t *testing.T) {
		cache := newMemoryCache(50 * time.Millisecond)
		defer func() { _ = cache.Close() }()

		cache.Set(ctx, "key", []byte("value"))
		_, found := cache.Get(ctx, "key")
		assert.True(t, found)

		time.Sleep(100 * time.Millisecond)

		_, found = cache.Get(ctx, "key")
		assert.False(t, found)
	})

	t.Run("stored value is copied", func(t *testing.T) {
		cache := newMemoryCache(time.Minute)
		defer func() { _ = cache.Close() }()

		value := []byte("original")
		cache.Set(ctx, "key", value)
		value[0] = 'X'

		got, found := cache.Get(ctx, "key")
		require.True(t, found)
		assert.Equal(t, "original", string(got))
	})

	t.Run("concurrent access", func(t *testing.T) {
		cache := newMemoryCache(time.Minute)
		defer func() { _ = cache.Close() }()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				key := fmt.Sprintf("key-%d", id)
				cache.Set(ctx, key, []byte(key))
				got, found := cache.Get(ctx, key)
				assert.True(t, found)
				assert.Equal(t, key, string(got))
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 20, cache.size())
	})

	t.Run("full cache evicts the oldest entry", func(t *testing.T) {
		cache := newMemoryCache(time.Minute)
		defer func() { _ = cache.Close() }()
		cache.maxEntries = 2

		cache.Set(ctx, "a", []byte("1"))
		time.Sleep(2 * time.Millisecond)
		cache.Set(ctx, "b", []byte("2"))
		time.Sleep(2 * time.Millisecond)
		cache.Set(ctx, "c", []byte("3"))

		assert.Equal(t, 2, cache.size())
		_, found := cache.Get(ctx, "a")
		assert.False(t, found)
		_, found = cache.Get(ctx, "c")
		assert.True(t, found)

		cache.Set(ctx, "c", []byte("4"))
		assert.Equal(t, 2, cache.size(), "overwriting does not evict")
	})

	t.Run("sweep drops expired entries", func(t *testing.T) {
		cache := newMemoryCache(time.Minute)
		defer func() { _ = cache.Close() }()

		cache.Set(ctx, "old", []byte("v"))
		cache.mu.Lock()
		cache.sweepLocked(time.Now().Add(2 * time.Minute))
		cache.mu.Unlock()
		assert.Equal(t, 0, cache.size())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		cache := newMemoryCache(time.Minute)
		require.NoError(t, cache.Close())
		require.NoError(t, cache.Close())
	})
}

func TestNoopCache(t *testing.T) {
	var c Cache = noopCache{}
	c.Set(context.Background(), "k", []byte("v"))
	_, found := c.Get(context.Background(), "k")
	assert.False(t, found)
	assert.NoError(t, c.Close())
}

func TestRedisCache_Unreachable(t *testing.T) {
	// Nothing listens on port 1; every operation must degrade to a miss.
	cache := newRedisCache("127.0.0.1:1", time.Minute, slog.Default())
	defer func() { _ = cache.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.Error(t, cache.Ping(ctx))
	cache.Set(ctx, "k", []byte("v"))
	_, found := cache.Get(ctx, "k")
	assert.False(t, found)
}

func TestNewRedisCache_URL(t *testing.T) {
	cache := newRedisCache("redis://:secret@cache.internal:6380/2", 0, slog.Default())
	defer func() { _ = cache.Close() }()

	opts := cache.client.Options()
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, time.Hour, cache.ttl)
}
