package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

// Progress tracks how many terms of a run have been processed.
type Progress struct {
	bar    *progressbar.ProgressBar
	writer io.Writer
	total  int
	done   int
}

// NewProgress creates a progress bar for total items written to w.
func NewProgress(w io.Writer, total int, description string) *Progress {
	p := &Progress{writer: w, total: total}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Add advances the bar by n items.
func (p *Progress) Add(n int) {
	p.done += n
	if err := p.bar.Add(n); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Done returns how many items have been processed.
func (p *Progress) Done() int {
	return p.done
}

// Total returns the number of items expected.
func (p *Progress) Total() int {
	return p.total
}

// Finish completes the bar even when fewer items were processed.
func (p *Progress) Finish() {
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
