// Package tui implements the interactive dictionary browser.
package tui

import (
	"context"
	"time"

	"github.com/Veraticus/finlens/internal/model"
	"github.com/Veraticus/finlens/internal/tui/themes"
)

// Searcher looks terms up in the dictionary.
type Searcher interface {
	Lookup(query string) []model.DictionaryMatch
	Len() int
}

// Definer asks the LLM to explain a term.
type Definer interface {
	DefineText(ctx context.Context, term string) (model.Definition, error)
}

// Config holds TUI configuration.
type Config struct {
	Theme         themes.Theme
	Dictionary    Searcher
	Definer       Definer
	Width         int
	Height        int
	DefineTimeout time.Duration
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:         themes.Default,
		Width:         80,
		Height:        24,
		DefineTimeout: 30 * time.Second,
	}
}

// WithDefiner enables LLM definitions for the selected match.
func WithDefiner(d Definer) Option {
	return func(c *Config) {
		c.Definer = d
	}
}
