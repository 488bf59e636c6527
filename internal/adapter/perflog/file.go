// Package perflog appends training results to a plain text file.
package perflog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileLog is an append-only performance log, one line per training run.
type FileLog struct {
	path string
	mu   sync.Mutex
}

// NewFileLog creates a FileLog at path. The file and its directory are
// created on first Append.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

func (l *FileLog) Append(_ context.Context, line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create perf log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open perf log: %w", err)
	}
	if _, err := fmt.Fprintln(f, line); err != nil {
		f.Close()
		return fmt.Errorf("append perf log: %w", err)
	}
	return f.Close()
}
