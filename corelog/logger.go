// Package corelog provides the minimal structured-logging interface shared
// across Conductor's packages. It mirrors the teacher framework's logging
// contract: a small interface, a safe no-op default, and an optional
// component-aware extension so each subsystem tags its own fields without
// pulling in a third-party logging library.
package corelog

import "context"

// Logger is the minimal logging interface every Conductor subsystem takes
// as a dependency. A nil Logger is never passed around; callers fall back
// to NoOpLogger instead.
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Debug(msg string, fields map[string]interface{})

	InfoWithContext(ctx context.Context, msg string, fields map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, fields map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{})
	DebugWithContext(ctx context.Context, msg string, fields map[string]interface{})
}

// ComponentAwareLogger lets a subsystem derive a child logger tagged with
// its own component name, e.g. "conductor/scoring" or "conductor/notify".
type ComponentAwareLogger interface {
	Logger
	WithComponent(component string) Logger
}

// NoOpLogger discards everything. It is the safe default when a caller
// does not supply a Logger.
type NoOpLogger struct{}

func (NoOpLogger) Info(string, map[string]interface{})                             {}
func (NoOpLogger) Warn(string, map[string]interface{})                             {}
func (NoOpLogger) Error(string, map[string]interface{})                            {}
func (NoOpLogger) Debug(string, map[string]interface{})                            {}
func (NoOpLogger) InfoWithContext(context.Context, string, map[string]interface{})  {}
func (NoOpLogger) WarnWithContext(context.Context, string, map[string]interface{})  {}
func (NoOpLogger) ErrorWithContext(context.Context, string, map[string]interface{}) {}
func (NoOpLogger) DebugWithContext(context.Context, string, map[string]interface{}) {}
func (NoOpLogger) WithComponent(string) Logger                                      { return NoOpLogger{} }

// Safe returns l, or a NoOpLogger if l is nil. Every package that accepts
// an optional Logger should route it through Safe before use.
func Safe(l Logger) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	return l
}

// SafeComponent returns a Logger tagged with component, falling back to
// NoOpLogger when l is nil and to l itself when l isn't component-aware.
func SafeComponent(l Logger, component string) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	if cal, ok := l.(ComponentAwareLogger); ok {
		return cal.WithComponent(component)
	}
	return l
}
