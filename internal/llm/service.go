package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/finlens/internal/common"
)

// Service runs structured requests against a Client with rate limiting,
// retries and response caching. It is safe for concurrent use and shared by
// the Classifier, Definer and MenuFinder.
type Service struct {
	client    Client
	cache     Cache
	logger    *slog.Logger
	limiter   *rateLimiter
	language  string
	retryOpts common.RetryOptions
}

func newService(client Client, cache Cache, cfg Config, logger *slog.Logger) *Service {
	if cache == nil {
		cache = noopCache{}
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts <= 0 {
		retryOpts.MaxAttempts = 1
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	language := cfg.Language
	if language == "" {
		language = "Korean"
	}

	return &Service{
		client:    client,
		cache:     cache,
		logger:    logger,
		limiter:   newRateLimiter(cfg.RateLimit),
		language:  language,
		retryOpts: retryOpts,
	}
}

// generate runs req and hands the raw reply to decode, which parses and
// validates it. Only replies that decode cleanly are cached under cacheKey;
// an empty cacheKey disables caching.
func (s *Service) generate(ctx context.Context, op, cacheKey string, req Request, decode func(raw string) error) error {
	if cacheKey != "" {
		if raw, ok := s.cache.Get(ctx, cacheKey); ok {
			if err := decode(string(raw)); err == nil {
				s.logger.Debug("cache hit", "op", op, "key", cacheKey)
				return nil
			}
		}
	}

	var reply string
	err := common.WithRetry(ctx, func() error {
		if err := s.limiter.wait(ctx); err != nil {
			return common.Permanent(fmt.Errorf("rate limit error: %w", err))
		}

		text, err := s.client.Generate(ctx, req)
		if err != nil {
			s.logger.Warn("LLM request failed", "op", op, "error", err)
			var marked *common.RetryableError
			if errors.As(err, &marked) {
				return err
			}
			return common.Retryable(err)
		}

		if err := decode(text); err != nil {
			s.logger.Warn("invalid LLM response", "op", op, "error", err)
			if errors.Is(err, ErrTermMismatch) {
				return common.Permanent(err)
			}
			return common.Retryable(err)
		}

		reply = text
		return nil
	}, s.retryOpts)
	if err != nil {
		return fmt.Errorf("%s failed: %w", op, err)
	}

	if cacheKey != "" {
		s.cache.Set(ctx, cacheKey, []byte(reply))
	}
	return nil
}

// Close releases the client and cache.
func (s *Service) Close() error {
	return errors.Join(s.client.Close(), s.cache.Close())
}
