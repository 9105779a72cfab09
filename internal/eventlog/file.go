package eventlog

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/JonMunkholm/explorer/internal/core"
)

// TimeLayout is the timestamp format of file log lines.
const TimeLayout = "2006-01-02 15:04:05,000"

// FileRecorder appends one line per event:
//
//	2024-05-01 12:00:00,000 - INFO - File loaded successfully
type FileRecorder struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer
}

// OpenFile opens (or creates) path for appending.
func OpenFile(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &FileRecorder{w: f, c: f}, nil
}

// NewFileRecorder writes events to w. Close does not close w.
func NewFileRecorder(w io.Writer) *FileRecorder {
	return &FileRecorder{w: w}
}

// Record implements core.EventRecorder.
func (r *FileRecorder) Record(_ context.Context, e core.Event) error {
	line := FormatLine(e)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := io.WriteString(r.w, line); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Close closes the underlying file when the recorder owns it.
func (r *FileRecorder) Close() error {
	if r.c == nil {
		return nil
	}
	return r.c.Close()
}

// FormatLine renders an event as a single log line ending in a newline.
// Newlines inside the message are flattened so one event is one line.
func FormatLine(e core.Event) string {
	msg := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(e.Message)
	return fmt.Sprintf("%s - %s - %s\n", e.CreatedAt.Format(TimeLayout), e.Level, msg)
}
