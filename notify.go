package integrations

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Notifier surfaces user-visible messages.
type Notifier interface {
	Success(msg string)
	Warning(msg string)
	Error(msg string)
}

// NopNotifier discards every message.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Warning(string) {}
func (NopNotifier) Error(string)   {}

// LogNotifier writes messages as log records, for output that is not a
// terminal.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Success(msg string) { n.Logger.Info(msg, "notification", "success") }
func (n LogNotifier) Warning(msg string) { n.Logger.Warn(msg, "notification", "warning") }
func (n LogNotifier) Error(msg string)   { n.Logger.Error(msg, "notification", "error") }

// WriterNotifier prints one line per message, for terminals.
type WriterNotifier struct {
	mu sync.Mutex
	W  io.Writer
}

func (n *WriterNotifier) Success(msg string) { n.write("✓", msg) }
func (n *WriterNotifier) Warning(msg string) { n.write("!", msg) }
func (n *WriterNotifier) Error(msg string)   { n.write("✗", msg) }

func (n *WriterNotifier) write(mark, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.W, "%s %s\n", mark, msg)
}
