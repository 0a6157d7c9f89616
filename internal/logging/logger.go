// Package logging provides leveled logging and interaction tracing for bayesplot.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A TraceLogger for structured JSONL interaction traces (interactions.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug. At this level every
// recomputation is logged, not just user actions.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Event is one traced interaction.
type Event struct {
	// Kind is "update", "regenerate" or "render".
	Kind    string `json:"kind"`
	Session string `json:"session,omitempty"`

	Mu0    float64 `json:"mu0"`
	Sigma0 float64 `json:"sigma0"`
	Sigma  float64 `json:"sigma"`
	N      int     `json:"n"`

	PosteriorMean     float64 `json:"posterior_mean"`
	PosteriorVariance float64 `json:"posterior_variance"`

	DurationMicros int64  `json:"duration_us"`
	Error          string `json:"error,omitempty"`
}

// TraceLogger appends interaction events to a JSONL file.
// It is safe for concurrent use. A nil TraceLogger is safe to use;
// all methods are no-ops on nil receiver.
type TraceLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewTraceLogger creates a trace logger writing to dir/interactions.jsonl.
// At "info" level (the default) it returns nil and no file is created.
// Returns nil if the file cannot be opened.
func NewTraceLogger(dir string, level string) *TraceLogger {
	if dir == "" || ParseLevel(level) == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, "interactions.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &TraceLogger{file: f}
}

type timedEvent struct {
	Time string `json:"time"`
	Event
}

// Log writes an event as a single JSONL line with a UTC timestamp.
func (tl *TraceLogger) Log(ev Event) {
	if tl == nil {
		return
	}

	data, err := json.Marshal(timedEvent{
		Time:  time.Now().UTC().Format(time.RFC3339Nano),
		Event: ev,
	})
	if err != nil {
		return
	}
	data = append(data, '\n')

	tl.mu.Lock()
	defer tl.mu.Unlock()
	if tl.file == nil {
		return
	}
	_, _ = tl.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (tl *TraceLogger) Close() {
	if tl == nil {
		return
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.file != nil {
		tl.file.Close()
		tl.file = nil
	}
}
