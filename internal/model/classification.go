// Package model defines the core domain models used throughout the application.
package model

// Classification is the financial/non-financial verdict for one term.
// Error is only set on batch items that could not be scored.
type Classification struct {
	Term        string `json:"term"`
	Error       string `json:"error,omitempty"`
	IsFinancial bool   `json:"is_financial"`
}

// Failed reports whether the classification carries a per-item error.
func (c Classification) Failed() bool {
	return c.Error != ""
}
