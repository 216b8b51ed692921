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

// InterruptHandler cancels long-running work on SIGINT or SIGTERM and tells
// the user what was kept.
type InterruptHandler struct {
	parent      context.Context
	writer      io.Writer
	signals     chan os.Signal
	task        string
	hint        string
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a handler for task. hint, when set, is shown
// after the interrupt notice.
func NewInterruptHandler(writer io.Writer, task, hint string) *InterruptHandler {
	if writer == nil {
		writer = os.Stderr
	}
	return &InterruptHandler{
		writer:  writer,
		signals: make(chan os.Signal, 1),
		task:    task,
		hint:    hint,
	}
}

// HandleInterrupts returns a context canceled on the first interrupt. Its
// parent being canceled, for example by a process-wide signal context,
// counts as an interrupt too. The returned stop function releases the
// signal handler.
func (h *InterruptHandler) HandleInterrupts(parent context.Context) (context.Context, func()) {
	h.mu.Lock()
	h.parent = parent
	h.mu.Unlock()

	ctx, cancel := context.WithCancel(parent)
	signal.Notify(h.signals, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case <-h.signals:
		case <-parent.Done():
		case <-done:
			return
		}
		h.mu.Lock()
		h.interrupted = true
		h.showInterruptMessage()
		h.mu.Unlock()
		cancel()
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(h.signals)
			close(done)
			cancel()
		})
	}
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n" + FormatWarning(h.task+" interrupted!")
	if h.hint != "" {
		msg += "\n" + FormatInfo(h.hint)
	}
	if _, err := fmt.Fprintln(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted reports whether a signal arrived or the parent context
// was canceled. It does not depend on the watcher goroutine having run.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted || (h.parent != nil && h.parent.Err() != nil)
}
