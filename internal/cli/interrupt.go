package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler cancels a run on SIGINT/SIGTERM and tells the user how
// far it got.
type InterruptHandler struct {
	writer      io.Writer
	progress    *Progress
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{writer: writer}
}

// Track reports p's counts in the interrupt message.
func (h *InterruptHandler) Track(p *Progress) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.progress = p
}

// HandleInterrupts returns a context that is canceled on the first signal.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context) context.Context {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer signal.Stop(sigChan)
		h.watch(ctx, sigChan, cancel)
	}()
	return ctx
}

func (h *InterruptHandler) watch(ctx context.Context, signals <-chan os.Signal, cancel context.CancelFunc) {
	select {
	case <-signals:
		h.mu.Lock()
		if !h.interrupted {
			h.interrupted = true
			h.showInterruptMessage()
		}
		h.mu.Unlock()
		cancel()
	case <-ctx.Done():
	}
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n\n" + FormatWarning("Classification interrupted!")

	if h.progress != nil {
		msg += "\n" + FormatInfo(fmt.Sprintf("%d of %d terms were classified before stopping.",
			h.progress.Done(), h.progress.Total()))
	}
	msg += "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the process was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
