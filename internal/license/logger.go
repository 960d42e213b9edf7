package license

import (
	"context"
	"log/slog"
	"time"
)

// LogLevel represents the logging level
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// LogEntry represents a structured license log entry
type LogEntry struct {
	Level      LogLevel
	Action     string
	Result     string
	LicenseKey string
	UserEmail  string
	Duration   time.Duration
	Error      error
	Metadata   map[string]interface{}
}

// Logger writes license events with keys masked
type Logger struct {
	slog *slog.Logger
}

// NewLogger wraps base with the license component attribute
func NewLogger(base *slog.Logger) *Logger {
	return &Logger{slog: base.With("component", "license")}
}

// Log logs a structured entry
func (l *Logger) Log(ctx context.Context, entry LogEntry) {
	if l == nil || l.slog == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("action", entry.Action),
	}
	if entry.LicenseKey != "" {
		attrs = append(attrs, slog.String("license_key", MaskKey(entry.LicenseKey)))
	}
	if entry.UserEmail != "" {
		attrs = append(attrs, slog.String("user_email", entry.UserEmail))
	}
	if entry.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", entry.Duration))
	}
	if entry.Error != nil {
		attrs = append(attrs, slog.String("error", entry.Error.Error()))
	}
	for k, v := range entry.Metadata {
		attrs = append(attrs, slog.Any(k, v))
	}

	level := slog.LevelInfo
	switch entry.Level {
	case DebugLevel:
		level = slog.LevelDebug
	case WarnLevel:
		level = slog.LevelWarn
	case ErrorLevel:
		level = slog.LevelError
	}
	l.slog.LogAttrs(ctx, level, entry.Result, attrs...)
}
