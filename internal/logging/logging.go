// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures the process-wide slog logger. Records go to the
// console through a text handler and, from Error level up, to a persistent
// error log as timestamped blocks that carry stack detail when available.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// StackKey is the attribute key whose value is printed as a stack block in
// the error log.
const StackKey = "stack"

// ErrorKey is the attribute key for errors. Errors are printed with %+v in the
// error log, so errors carrying a stack (github.com/pkg/errors) show it.
const ErrorKey = "error"

// Init configures the global slog default. Console records at or above level
// are written to console; records at Error level and above are also written
// to errLog when it is non-nil.
func Init(level slog.Level, console, errLog io.Writer) {
	if console == nil {
		console = os.Stderr
	}
	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: level}),
	}
	if errLog != nil {
		handlers = append(handlers, NewBlockHandler(errLog, slog.LevelError))
	}
	slog.SetDefault(slog.New(fanout(handlers)))
}

// New returns a logger with a "component" attribute for module-scoped logging.
func New(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog.Level.
// Unknown names map to Info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OpenErrorLog opens path for appending, creating it when missing.
func OpenErrorLog(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening error log %s: %w", path, err)
	}
	return f, nil
}

// fanout dispatches each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// BlockHandler writes one block per record:
//
//	2026-01-02T15:04:05Z - message key=value ...
//	<stack or detailed error, when present>
//	<blank line>
type BlockHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewBlockHandler returns a handler writing records at or above level to w.
func NewBlockHandler(w io.Writer, level slog.Leveler) *BlockHandler {
	return &BlockHandler{mu: &sync.Mutex{}, w: w, level: level}
}

func (h *BlockHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *BlockHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(ts.Format(time.RFC3339))
	b.WriteString(" - ")
	b.WriteString(r.Message)

	var details []string
	write := func(a slog.Attr) {
		a.Value = a.Value.Resolve()
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		switch {
		case a.Key == StackKey:
			details = append(details, strings.TrimRight(a.Value.String(), "\n"))
		case a.Key == ErrorKey && a.Value.Kind() == slog.KindAny:
			if err, ok := a.Value.Any().(error); ok {
				fmt.Fprintf(&b, " %s=%q", key, err.Error())
				if detail := fmt.Sprintf("%+v", err); detail != err.Error() {
					details = append(details, detail)
				}
				return
			}
			fmt.Fprintf(&b, " %s=%v", key, a.Value)
		default:
			fmt.Fprintf(&b, " %s=%v", key, a.Value)
		}
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(a)
		return true
	})
	b.WriteString("\n")
	for _, d := range details {
		b.WriteString(d)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *BlockHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

func (h *BlockHandler) WithGroup(name string) slog.Handler {
	nh := *h
	if nh.group != "" {
		nh.group += "." + name
	} else {
		nh.group = name
	}
	return &nh
}
