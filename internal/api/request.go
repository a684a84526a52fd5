package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
)

// errNotObject is reported when the body is not a JSON object.
var errNotObject = errors.New("request body must be a JSON object")

// requestBody is a decoded JSON object whose fields are checked lazily so
// each failure can name the offending field.
type requestBody map[string]json.RawMessage

func readBody(c *gin.Context) (requestBody, error) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	var body requestBody
	if err := json.Unmarshal(data, &body); err != nil || body == nil {
		return nil, errNotObject
	}
	return body, nil
}

// String returns field as a non-blank string.
func (b requestBody) String(field string) (string, error) {
	raw, ok := b[field]
	if !ok {
		return "", fmt.Errorf("%s field is required", field)
	}

	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		return "", fmt.Errorf("%s must be a string", field)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%s must not be empty", field)
	}
	return s, nil
}

// Strings returns field as a list of strings. An empty list is valid.
func (b requestBody) Strings(field string) ([]string, error) {
	raw, ok := b[field]
	if !ok {
		return nil, fmt.Errorf("%s field is required", field)
	}

	var items []json.RawMessage
	if isNull(raw) || json.Unmarshal(raw, &items) != nil {
		return nil, fmt.Errorf("%s must be a list", field)
	}

	out := make([]string, len(items))
	for i, item := range items {
		if isNull(item) || json.Unmarshal(item, &out[i]) != nil {
			return nil, fmt.Errorf("%s must contain only strings", field)
		}
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
