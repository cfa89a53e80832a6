// Package eventlog appends typing session events to a JSONL file.
package eventlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event type constants.
const (
	EventSessionStarted   = "session_started"
	EventFirstKeystroke   = "first_keystroke"
	EventSubmitRejected   = "submit_rejected"
	EventSessionCompleted = "session_completed"
	EventSessionReset     = "session_reset"
)

// Event is a single line in the log.
type Event struct {
	Time           time.Time `json:"time"`
	Event          string    `json:"event"`
	SessionID      string    `json:"session,omitempty"`
	ReferenceChars int       `json:"reference_chars,omitempty"`
	Error          string    `json:"error,omitempty"`
	Result         *Metrics  `json:"result,omitempty"`
}

// Metrics is the score attached to a session_completed event. Its fields are
// always written, zeros included.
type Metrics struct {
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
	WPM             float64 `json:"wpm"`
	AccuracyPercent float64 `json:"accuracy_percent"`
}

// Logger writes append-only JSONL events to a file.
type Logger struct {
	path string
	mu   sync.Mutex
}

// New creates a Logger writing to path, creating parent directories.
// An existing file is appended to, never truncated.
func New(path string) (*Logger, error) {
	if path == "" {
		return nil, fmt.Errorf("log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &Logger{path: path}, nil
}

// Path returns the file the logger appends to.
func (l *Logger) Path() string {
	return l.path
}

// Append writes one event as a JSON line. A zero Time is set to now (UTC).
func (l *Logger) Append(event Event) error {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal log event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write log event: %w", err)
	}
	return f.Close()
}

// ReadAll parses every event in the file. A missing file yields no events.
func (l *Logger) ReadAll() ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Event{}, nil
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var events []Event
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("failed to parse log line %d: %w", lineNum, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}
	return events, nil
}
