package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidResponse is returned when the model's reply is not the JSON
// object that was asked for or misses required fields.
var ErrInvalidResponse = errors.New("invalid LLM response")

// StripCodeFences removes a Markdown code fence some models wrap JSON in.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseJSON decodes a model reply into out.
func parseJSON(content string, out any) error {
	content = StripCodeFences(content)
	if content == "" {
		return fmt.Errorf("%w: empty content", ErrInvalidResponse)
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return nil
}

// requireString reports a missing or blank string field.
func requireString(field string, v *string) error {
	if v == nil || strings.TrimSpace(*v) == "" {
		return fmt.Errorf("%w: missing %s", ErrInvalidResponse, field)
	}
	return nil
}
