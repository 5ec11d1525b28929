package logging

import (
	"io"
	"log/slog"
	"strings"
)

// redactedKeys name attributes that may carry clinical text. Their values
// are replaced before any handler sees them.
var redactedKeys = map[string]bool{
	"text":  true,
	"note":  true,
	"input": true,
}

// New builds a logger writing to w. JSON output is used when stdout carries
// machine-readable results (NDJSON, piped reports); text otherwise.
func New(w io.Writer, json bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: redact}
	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Init creates and sets the package-level default slog logger.
func Init(w io.Writer, json bool, level slog.Level) {
	slog.SetDefault(New(w, json, level))
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if redactedKeys[a.Key] && a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, "[redacted]")
	}
	return a
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to slog.Level.
// Unknown strings default to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
