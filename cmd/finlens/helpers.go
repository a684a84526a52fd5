package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/finlens/internal/config"
	"github.com/Veraticus/finlens/internal/dictionary"
	"github.com/Veraticus/finlens/internal/finbert"
	"github.com/Veraticus/finlens/internal/llm"
	"github.com/Veraticus/finlens/internal/storage"
	"github.com/spf13/viper"
)

// loadConfig reads the validated configuration from the global viper instance.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initStorage opens the SQLite store and brings its schema up to date.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// dictionaryColumns returns the configured CSV headers.
func dictionaryColumns(cfg *config.Config) dictionary.Columns {
	cols := dictionary.Columns{
		Term:       cfg.Dictionary.TermColumn,
		Definition: cfg.Dictionary.DefinitionColumn,
	}
	if cols.Term == "" {
		cols.Term = dictionary.DefaultColumns.Term
	}
	if cols.Definition == "" {
		cols.Definition = dictionary.DefaultColumns.Definition
	}
	return cols
}

// loadDictionary loads the dictionary from the configured source.
func loadDictionary(ctx context.Context, cfg *config.Config) (*dictionary.Dictionary, error) {
	if cfg.Dictionary.Source != config.SourceSQLite {
		return dictionary.LoadCSV(cfg.Dictionary.Path, dictionaryColumns(cfg), slog.Default())
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	entries, err := store.DictionaryEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary: %w", err)
	}
	if len(entries) == 0 {
		slog.Warn("dictionary store is empty, run 'finlens dict import' to load one", "path", cfg.Database.Path)
	}
	return dictionary.New(entries), nil
}

// loadClassifier connects to the local model server.
func loadClassifier(ctx context.Context, cfg *config.Config) (*finbert.Classifier, error) {
	return finbert.Load(ctx, finbert.Config{
		URL:       cfg.FinBERT.URL,
		Model:     cfg.FinBERT.Model,
		Threshold: cfg.FinBERT.Threshold,
		Timeout:   cfg.FinBERT.Timeout,
	}, slog.Default())
}

// llmConfig maps the LLM section of cfg to the llm package's settings.
func llmConfig(cfg *config.Config) llm.Config {
	return llm.Config{
		Provider:     cfg.LLM.Provider,
		APIKey:       cfg.LLM.APIKey,
		Model:        cfg.LLM.Model,
		Language:     cfg.LLM.Language,
		CacheBackend: cfg.LLM.Cache.Backend,
		RedisAddr:    cfg.LLM.Cache.RedisAddr,
		CacheTTL:     cfg.LLM.Cache.TTL,
		MaxRetries:   cfg.LLM.MaxRetries,
		RetryDelay:   cfg.LLM.RetryDelay,
		RateLimit:    cfg.LLM.RateLimit,
	}
}

// newLLMService creates the LLM service, failing when no API key is configured.
func newLLMService(ctx context.Context, cfg *config.Config) (*llm.Service, error) {
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}
	svc, err := llm.NewService(ctx, llmConfig(cfg), slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM service: %w", err)
	}
	return svc, nil
}

// closeLLM releases the LLM service, logging any failure.
func closeLLM(svc *llm.Service) {
	if err := svc.Close(); err != nil {
		slog.Warn("Failed to close LLM service", "error", err)
	}
}
