package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run opens the dictionary browser and blocks until the user quits or ctx
// is canceled.
func Run(ctx context.Context, opts ...Option) error {
	m := New(opts...)
	if m.config.Dictionary == nil {
		return errors.New("dictionary is required")
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("dictionary browser failed: %w", err)
	}
	return nil
}

// WithDictionary sets the dictionary to browse.
func WithDictionary(d Searcher) Option {
	return func(c *Config) {
		c.Dictionary = d
	}
}
