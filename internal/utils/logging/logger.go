// Package logging is the small logging surface shared by the pre sign-up hook
// and the post-deploy canaries. The hook writes through slog (see NewJSON), the
// canaries through the Pulumi engine log, and tests through a buffer.
package logging

// Fields carries the structured part of an entry, such as a request id or a
// canary case name. Values end up JSON encoded.
type Fields map[string]any

// Logger takes a fixed message and its fields. Messages are event names like
// "canary.ok"; anything variable belongs in Fields.
type Logger interface {
	Debug(msg string, ctx Fields)
	Info(msg string, ctx Fields)
	Warn(msg string, ctx Fields)
}

// NopLogger is the default when no logger is supplied.
type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
