package logging

import (
	"context"
	"log/slog"
)

// teeHandler sends every record to the terminal handler and to the log file
// handler. Each side applies its own level.
type teeHandler struct {
	terminal slog.Handler
	file     slog.Handler
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return t.terminal.Enabled(ctx, level) || t.file.Enabled(ctx, level)
}

func (t *teeHandler) Handle(ctx context.Context, r slog.Record) error { //nolint:gocritic // slog.Handler interface requires value
	var terminalErr, fileErr error

	if t.terminal.Enabled(ctx, r.Level) {
		terminalErr = t.terminal.Handle(ctx, r.Clone())
	}

	if t.file.Enabled(ctx, r.Level) {
		fileErr = t.file.Handle(ctx, r.Clone())
	}

	if terminalErr != nil {
		return terminalErr
	}

	return fileErr
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{
		terminal: t.terminal.WithAttrs(attrs),
		file:     t.file.WithAttrs(attrs),
	}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{
		terminal: t.terminal.WithGroup(name),
		file:     t.file.WithGroup(name),
	}
}
