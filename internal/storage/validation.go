// Package storage persists the financial dictionary in SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/finlens/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrEmptySlice    = errors.New("slice cannot be empty")
	ErrInvalidEntry  = errors.New("invalid dictionary entry")
	ErrDuplicateTerm = errors.New("duplicate dictionary term")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateEntries checks that every entry has a term and a definition and
// that no term appears twice.
func validateEntries(entries []model.DictionaryEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: entries", ErrEmptySlice)
	}

	seen := make(map[string]int, len(entries))
	for i, entry := range entries {
		if strings.TrimSpace(entry.Term) == "" {
			return fmt.Errorf("entry at index %d: %w: term is empty", i, ErrInvalidEntry)
		}
		if strings.TrimSpace(entry.Definition) == "" {
			return fmt.Errorf("entry at index %d: %w: definition for %q is empty", i, ErrInvalidEntry, entry.Term)
		}
		if first, ok := seen[entry.Term]; ok {
			return fmt.Errorf("entry at index %d: %w: %q first seen at index %d", i, ErrDuplicateTerm, entry.Term, first)
		}
		seen[entry.Term] = i
	}
	return nil
}
