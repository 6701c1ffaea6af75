package core

import "context"

// Telemetry is the optional tracing/metrics seam the orchestrator's
// Executor calls through; the scoring executor and the notification
// manager do not use it. A nil Telemetry is
// always safe to use via the NoOpTelemetry default — Conductor's core
// never requires OpenTelemetry to be wired; conductor/telemetry supplies
// a real implementation when a host wants one.
type Telemetry interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
	RecordMetric(name string, value float64, labels map[string]string)
}

// Span is a single traced operation.
type Span interface {
	End()
	SetAttribute(key string, value interface{})
	AddEvent(name string, attrs map[string]interface{})
	RecordError(err error)
}

// NoOpTelemetry discards everything.
type NoOpTelemetry struct{}

func (NoOpTelemetry) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, noopSpan{}
}
func (NoOpTelemetry) RecordMetric(string, float64, map[string]string) {}

type noopSpan struct{}

func (noopSpan) End()                                       {}
func (noopSpan) SetAttribute(string, interface{})           {}
func (noopSpan) AddEvent(string, map[string]interface{})    {}
func (noopSpan) RecordError(error)                           {}

// SafeTelemetry returns t, or NoOpTelemetry if t is nil.
func SafeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return NoOpTelemetry{}
	}
	return t
}

var _ Telemetry = NoOpTelemetry{}
var _ Span = noopSpan{}
