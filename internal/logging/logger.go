package logging

import (
	"context"
	"log/slog"
	"os"

	"gorm.io/gorm"
)

// Setup installs the stdout JSON logger. It runs before the database is
// available; AttachSink upgrades the default logger once it is.
func Setup() {
	slog.SetDefault(slog.New(stdoutHandler()))
}

// AttachSink rebuilds the default logger to fan out to stdout and the
// Postgres batch sink. The returned sink must be stopped on shutdown so
// buffered records get flushed.
func AttachSink(db *gorm.DB) *PGHandler {
	sink := NewPGHandler(db)
	slog.SetDefault(slog.New(newFanout(stdoutHandler(), sink)))
	return sink
}

func stdoutHandler() slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}

// fanout delivers each record to every child whose level admits it. A
// child failing never blocks the others; the first error is reported.
type fanout struct {
	children []slog.Handler
}

func newFanout(children ...slog.Handler) *fanout {
	return &fanout{children: children}
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.children {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range f.children {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	children := make([]slog.Handler, len(f.children))
	for i, h := range f.children {
		children[i] = h.WithAttrs(attrs)
	}
	return &fanout{children: children}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	children := make([]slog.Handler, len(f.children))
	for i, h := range f.children {
		children[i] = h.WithGroup(name)
	}
	return &fanout{children: children}
}
