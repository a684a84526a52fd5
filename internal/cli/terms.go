package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadTerms reads one term per line. Blank lines and lines starting with
// '#' are skipped, surrounding whitespace is trimmed.
func ReadTerms(r io.Reader) ([]string, error) {
	var terms []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read terms: %w", err)
	}
	return terms, nil
}

// Chunk splits terms into consecutive slices of at most size items.
func Chunk(terms []string, size int) [][]string {
	if size <= 0 {
		size = len(terms)
	}
	var chunks [][]string
	for start := 0; start < len(terms); start += size {
		end := min(start+size, len(terms))
		chunks = append(chunks, terms[start:end])
	}
	return chunks
}
