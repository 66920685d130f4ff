// internal/logbook/logbook.go
//
// Session log for the onboarding console. Everything noteworthy — loads,
// mutations, boundary failures, unknown status labels — lands here, and the
// TUI tails the file into its log panel so users can see what happened even
// after a screen has moved on.

package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logbook persists console activity to a simple text file. A nil *Logbook
// is valid and discards everything, so callers never guard their log calls.
type Logbook struct {
	path  string
	scope string
	debug bool
	mu    *sync.Mutex
}

// New creates a logbook that writes to the provided path, creating parent
// directories as needed.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: ensure log dir: %w", err)
	}
	return &Logbook{path: path, mu: &sync.Mutex{}}, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// WithScope returns a logbook writing to the same file with every entry
// prefixed by the given component name.
func (l *Logbook) WithScope(scope string) *Logbook {
	if l == nil {
		return nil
	}
	child := *l
	child.scope = strings.TrimSpace(scope)
	return &child
}

// WithDebug returns a logbook with debug entries enabled or suppressed.
func (l *Logbook) WithDebug(enabled bool) *Logbook {
	if l == nil {
		return nil
	}
	child := *l
	child.debug = enabled
	return &child
}

// Append writes a single entry.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	if level == LevelDebug && !l.debug {
		return
	}
	message = strings.TrimSpace(message)
	if l.scope != "" {
		message = l.scope + ": " + message
	}
	line := fmt.Sprintf("%s %-5s %s\n",
		time.Now().UTC().Format(time.RFC3339),
		string(level),
		message,
	)
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(line)
}

// Tail returns up to maxLines of the most recent entries.
func (l *Logbook) Tail(maxLines int) []string {
	if l == nil || maxLines <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines
}

// Debug appends a debug entry; dropped unless debug logging is enabled.
func (l *Logbook) Debug(format string, args ...any) {
	l.Append(LevelDebug, fmt.Sprintf(format, args...))
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}
