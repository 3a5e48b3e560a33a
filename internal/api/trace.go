package api

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// TraceEntry records a single request attempt.
type TraceEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	Attempt    int       `json:"attempt"`
	RequestID  string    `json:"request_id"`
	StatusCode int       `json:"status_code,omitempty"`
	ErrorKind  Kind      `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// Tracer appends attempts to a file in NDJSON format.
type Tracer struct {
	file   *os.File
	mu     sync.Mutex
	failed atomic.Bool
}

// OpenTracer opens (or creates) path for appending trace entries.
func OpenTracer(path string) (*Tracer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	return &Tracer{file: f}, nil
}

// Path returns the trace file path.
func (t *Tracer) Path() string {
	if t == nil || t.file == nil {
		return ""
	}
	return t.file.Name()
}

// Write records a trace entry. A failed write never fails the request; the
// caller decides whether to report it.
func (t *Tracer) Write(entry TraceEntry) error {
	if t == nil || t.file == nil {
		return nil
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode trace entry: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write trace file: %w", err)
	}
	return nil
}

// firstFailure reports true for the first failed write only.
func (t *Tracer) firstFailure() bool {
	return t.failed.CompareAndSwap(false, true)
}

// Close closes the trace file.
func (t *Tracer) Close() error {
	if t == nil || t.file == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file.Close()
}
