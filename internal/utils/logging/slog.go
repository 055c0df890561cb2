package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// NewJSON returns an slog.Logger writing JSON lines to w (stdout when nil).
func NewJSON(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// SlogLogger adapts an *slog.Logger to Logger.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l; a nil l uses slog.Default().
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{l: l}
}

// Debug logs at debug level.
func (s *SlogLogger) Debug(msg string, ctx Fields) { s.log(slog.LevelDebug, msg, ctx) }

// Info logs at info level.
func (s *SlogLogger) Info(msg string, ctx Fields) { s.log(slog.LevelInfo, msg, ctx) }

// Warn logs at warn level.
func (s *SlogLogger) Warn(msg string, ctx Fields) { s.log(slog.LevelWarn, msg, ctx) }

func (s *SlogLogger) log(level slog.Level, msg string, ctx Fields) {
	attrs := make([]slog.Attr, 0, len(ctx))
	for k, v := range ctx {
		attrs = append(attrs, slog.Any(k, v))
	}
	s.l.LogAttrs(context.Background(), level, msg, attrs...)
}

var _ Logger = (*SlogLogger)(nil)
