package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config holds configuration for the LLM service.
type Config struct {
	Provider     string
	APIKey       string
	Model        string
	Language     string
	CacheBackend string
	RedisAddr    string
	MaxRetries   int
	RetryDelay   time.Duration
	CacheTTL     time.Duration
	RateLimit    int
}

// NewClient creates a raw LLM client based on the provided configuration.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "":
		return newGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// NewCache creates the response cache selected by cfg.CacheBackend.
func NewCache(ctx context.Context, cfg Config, logger *slog.Logger) (Cache, error) {
	switch strings.ToLower(cfg.CacheBackend) {
	case "memory", "":
		return newMemoryCache(cfg.CacheTTL), nil
	case "none":
		return noopCache{}, nil
	case "redis":
		rc := newRedisCache(cfg.RedisAddr, cfg.CacheTTL, logger)
		if err := rc.Ping(ctx); err != nil {
			logger.Warn("redis cache unreachable, continuing with misses",
				"addr", cfg.RedisAddr,
				"error", err)
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.CacheBackend)
	}
}

// NewService wires the configured provider, cache and rate limiter.
func NewService(ctx context.Context, cfg Config, logger *slog.Logger) (*Service, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	cache, err := NewCache(ctx, cfg, logger)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	return newService(client, cache, cfg, logger), nil
}
