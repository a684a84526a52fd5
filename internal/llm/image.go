package llm

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrBadImage is returned for image payloads that are not valid base64.
var ErrBadImage = errors.New("invalid base64 image")

const defaultImageMIME = "image/jpeg"

// DecodeImage decodes a base64 image that may carry a data-URI prefix
// ("data:<mime>;base64,"). Both the standard and the URL-safe alphabet are
// accepted, padded or not.
func DecodeImage(s string) (*Image, error) {
	payload, hint := splitDataURL(strings.TrimSpace(s))
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrBadImage)
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadImage, err)
	}

	return &Image{MIMEType: pickMIME(hint, data), Data: data}, nil
}

func splitDataURL(s string) (payload, mime string) {
	if !strings.HasPrefix(s, "data:") {
		return s, ""
	}
	idx := strings.IndexByte(s, ',')
	if idx < 0 {
		return s, ""
	}
	meta := s[len("data:"):idx]
	if semi := strings.IndexByte(meta, ';'); semi >= 0 {
		meta = meta[:semi]
	}
	return s[idx+1:], meta
}

func decodeBase64(s string) ([]byte, error) {
	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	} {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// pickMIME prefers the data-URI type, then sniffs the bytes, then falls back
// to JPEG.
func pickMIME(hint string, data []byte) string {
	if h := strings.TrimSpace(hint); strings.HasPrefix(h, "image/") {
		return h
	}
	if len(data) > 0 {
		if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
			return sniffed
		}
	}
	return defaultImageMIME
}
