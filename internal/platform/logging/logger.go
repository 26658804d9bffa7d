// Package logging builds the slog loggers used by aquote.
//
// Logs always go to stderr so they never mix with command output on stdout.
// With a log file configured, records are also appended as JSON to a
// rotating file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelTrace is below debug and logs raw vendor responses.
const LevelTrace = slog.Level(-8)

// Config holds logging configuration.
type Config struct {
	Level   string // trace, debug, info, warn, error
	Format  string // json, text, pretty
	Service string // service name for default attrs
	Version string // service version for default attrs
	File    FileConfig
}

// FileConfig configures the rotating JSON log file.
type FileConfig struct {
	Enabled    bool
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New creates a logger writing to stderr.
func New(cfg *Config) *slog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter creates a logger writing to w, plus the log file when
// cfg.File is enabled. Secrets are redacted in every format.
func NewWithWriter(cfg *Config, w io.Writer) *slog.Logger {
	level := parseLevel(cfg.Level)
	replaceAttr := NewReplaceAttr()
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}

	handler := terminalHandler(cfg.Format, w, level, opts)

	if cfg.File.Enabled && cfg.File.Path != "" {
		handler = &teeHandler{
			terminal: handler,
			file:     slog.NewJSONHandler(rotatingFile(&cfg.File), opts),
		}
	}

	return slog.New(handler).With(
		slog.String("service_name", cfg.Service),
		slog.String("service_version", cfg.Version),
	)
}

func terminalHandler(format string, w io.Writer, level slog.Level, opts *slog.HandlerOptions) slog.Handler {
	switch strings.ToLower(format) {
	case "text":
		return slog.NewTextHandler(w, opts)
	case "pretty":
		return newRedactingHandler(newPrettyHandler(w, level), opts.ReplaceAttr)
	default:
		return slog.NewJSONHandler(w, opts)
	}
}

func rotatingFile(cfg *FileConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// newPrettyHandler returns a colorized human-oriented handler.
func newPrettyHandler(w io.Writer, level slog.Level) slog.Handler {
	charmLevel := slogToCharmLevel(level)
	if level < slog.LevelDebug {
		charmLevel = log.Level(level)
	}

	return log.NewWithOptions(w, log.Options{
		Level:           charmLevel,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
}

// parseLevel converts a config level name. Unknown names mean info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
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

// slogToCharmLevel maps a slog level onto the nearest charmbracelet/log level.
func slogToCharmLevel(level slog.Level) log.Level {
	switch {
	case level < slog.LevelInfo:
		return log.DebugLevel
	case level < slog.LevelWarn:
		return log.InfoLevel
	case level < slog.LevelError:
		return log.WarnLevel
	default:
		return log.ErrorLevel
	}
}
