package corelog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// StandardLogger is a self-contained Logger implementation: JSON lines when
// running under Kubernetes (or when explicitly configured), plain text
// otherwise. Configuration follows the same environment-variable-with-
// sensible-defaults precedence the rest of Conductor uses:
//
//  1. an explicit SetLevel call (level only)
//  2. CONDUCTOR_LOG_LEVEL / CONDUCTOR_LOG_FORMAT
//  3. auto-detected Kubernetes environment (forces JSON)
//  4. defaults (level=info, format=text)
type StandardLogger struct {
	component string
	level     level
	format    string
	out       io.Writer
	mu        sync.Mutex
}

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

func parseLevel(s string) level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return levelDebug
	case "WARN", "WARNING":
		return levelWarn
	case "ERROR":
		return levelError
	default:
		return levelInfo
	}
}

// NewStandardLogger creates a StandardLogger writing to os.Stderr.
func NewStandardLogger(component string) *StandardLogger {
	format := os.Getenv("CONDUCTOR_LOG_FORMAT")
	if format == "" {
		if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
			format = "json"
		} else {
			format = "text"
		}
	}
	return &StandardLogger{
		component: component,
		level:     parseLevel(os.Getenv("CONDUCTOR_LOG_LEVEL")),
		format:    format,
		out:       os.Stderr,
	}
}

// WithComponent returns a copy of the logger tagged with a new component.
func (l *StandardLogger) WithComponent(component string) Logger {
	return &StandardLogger{component: component, level: l.level, format: l.format, out: l.out}
}

// SetLevel overrides the minimum log level, taking precedence over
// CONDUCTOR_LOG_LEVEL. Intended for callers exposing their own --log-level
// flag (e.g. cmd/conductor).
func (l *StandardLogger) SetLevel(s string) {
	l.level = parseLevel(s)
}

func (l *StandardLogger) log(lvl level, msg string, fields map[string]interface{}) {
	if lvl < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := time.Now().UTC().Format(time.RFC3339Nano)
	if l.format == "json" {
		entry := map[string]interface{}{
			"timestamp": ts,
			"level":     levelName(lvl),
			"component": l.component,
			"message":   msg,
		}
		for k, v := range fields {
			entry[k] = v
		}
		enc := json.NewEncoder(l.out)
		_ = enc.Encode(entry)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s: %s", ts, levelName(lvl), l.component, msg)
	for k, v := range fields {
		fmt.Fprintf(&b, " %s=%v", k, v)
	}
	fmt.Fprintln(l.out, b.String())
}

func levelName(l level) string {
	switch l {
	case levelDebug:
		return "DEBUG"
	case levelWarn:
		return "WARN"
	case levelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (l *StandardLogger) Info(msg string, fields map[string]interface{})  { l.log(levelInfo, msg, fields) }
func (l *StandardLogger) Warn(msg string, fields map[string]interface{})  { l.log(levelWarn, msg, fields) }
func (l *StandardLogger) Error(msg string, fields map[string]interface{}) { l.log(levelError, msg, fields) }
func (l *StandardLogger) Debug(msg string, fields map[string]interface{}) { l.log(levelDebug, msg, fields) }

func (l *StandardLogger) InfoWithContext(_ context.Context, msg string, fields map[string]interface{}) {
	l.Info(msg, fields)
}
func (l *StandardLogger) WarnWithContext(_ context.Context, msg string, fields map[string]interface{}) {
	l.Warn(msg, fields)
}
func (l *StandardLogger) ErrorWithContext(_ context.Context, msg string, fields map[string]interface{}) {
	l.Error(msg, fields)
}
func (l *StandardLogger) DebugWithContext(_ context.Context, msg string, fields map[string]interface{}) {
	l.Debug(msg, fields)
}

var _ ComponentAwareLogger = (*StandardLogger)(nil)
