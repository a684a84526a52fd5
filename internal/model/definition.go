package model

import "strings"

// Definition is an explanation generated for a term or for text found in an image.
type Definition struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	Category   string `json:"category"`
}

// Complete reports whether every field is non-empty.
func (d Definition) Complete() bool {
	return strings.TrimSpace(d.Term) != "" &&
		strings.TrimSpace(d.Definition) != "" &&
		strings.TrimSpace(d.Category) != ""
}
