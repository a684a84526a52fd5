// Package dictionary holds the static financial-term dictionary and answers
// fuzzy lookups against it.
package dictionary

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/Veraticus/finlens/internal/model"
)

const (
	// MaxMatches is the number of matches Lookup returns at most.
	MaxMatches = 3
	// MinScore is the lowest token-set ratio Lookup accepts.
	MinScore = 60.0
)

// Columns names the CSV header cells holding the term and its definition.
type Columns struct {
	Term       string
	Definition string
}

// DefaultColumns are the headers of the bundled Korean dictionary.
var DefaultColumns = Columns{Term: "용어", Definition: "설명"}

var fallbackColumns = Columns{Term: "term", Definition: "definition"}

// ErrMissingColumn is returned when a CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing dictionary column")

// Dictionary is an immutable list of entries. It is safe for concurrent use.
type Dictionary struct {
	entries []model.DictionaryEntry
}

// New builds a dictionary from entries. Blank terms are dropped and a
// repeated term keeps its first definition.
func New(entries []model.DictionaryEntry) *Dictionary {
	seen := make(map[string]struct{}, len(entries))
	kept := make([]model.DictionaryEntry, 0, len(entries))
	for _, e := range entries {
		term := strings.TrimSpace(e.Term)
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		kept = append(kept, model.DictionaryEntry{Term: term, Definition: strings.TrimSpace(e.Definition)})
	}
	return &Dictionary{entries: kept}
}

// LoadCSV reads a dictionary file. A missing file yields an empty dictionary
// and a warning so the service can still start.
func LoadCSV(path string, cols Columns, logger *slog.Logger) (*Dictionary, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("dictionary file not found, starting with an empty dictionary", "path", path)
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer func() { _ = f.Close() }()

	entries, err := ParseCSV(f, cols)
	if err != nil {
		return nil, fmt.Errorf("parse dictionary %s: %w", path, err)
	}

	dict := New(entries)
	logger.Info("dictionary loaded", "path", path, "entries", dict.Len())
	return dict, nil
}

// ParseCSV reads entries from a CSV with a header row. The term and
// definition columns are located by name; if cols are not present the
// English headers term/definition are tried.
func ParseCSV(r io.Reader, cols Columns) ([]model.DictionaryEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	termIdx, defIdx, err := columnIndexes(header, cols)
	if err != nil {
		return nil, err
	}

	var entries []model.DictionaryEntry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		if termIdx >= len(record) {
			continue
		}
		entry := model.DictionaryEntry{Term: record[termIdx]}
		if defIdx < len(record) {
			entry.Definition = record[defIdx]
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func columnIndexes(header []string, cols Columns) (int, int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, ok := index[h]; !ok {
			index[h] = i
		}
	}

	for _, c := range []Columns{cols, fallbackColumns} {
		termIdx, okTerm := index[c.Term]
		defIdx, okDef := index[c.Definition]
		if okTerm && okDef {
			return termIdx, defIdx, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: want %q and %q", ErrMissingColumn, cols.Term, cols.Definition)
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Entries returns a copy of all entries in dictionary order.
func (d *Dictionary) Entries() []model.DictionaryEntry {
	out := make([]model.DictionaryEntry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Lookup returns up to MaxMatches entries whose token-set ratio against query
// is at least MinScore, best first. Equal scores keep dictionary order.
func (d *Dictionary) Lookup(query string) []model.DictionaryMatch {
	matches := make([]model.DictionaryMatch, 0, MaxMatches)
	if strings.TrimSpace(query) == "" {
		return matches
	}

	for _, e := range d.entries {
		score := TokenSetRatio(query, e.Term)
		if score < MinScore {
			continue
		}
		matches = append(matches, model.DictionaryMatch{
			Term:       e.Term,
			Definition: e.Definition,
			Score:      math.Round(score*100) / 100,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > MaxMatches {
		matches = matches[:MaxMatches]
	}
	return matches
}
