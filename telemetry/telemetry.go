// Package telemetry wires Conductor's core.Telemetry seam to OpenTelemetry,
// the way the teacher framework's telemetry package wires tracing/metrics
// for the orchestration module (AddSpanEvent, NewTracedHTTPClient). A host
// that doesn't care about tracing never needs this package — the engine
// only depends on core.Telemetry, which defaults to a no-op.
package telemetry

import (
	"context"
	"net/http"

	"github.com/ensemble-edge/conductor/core"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Provider implements core.Telemetry over a configured OpenTelemetry
// TracerProvider/MeterProvider pair.
type Provider struct {
	tracer  trace.Tracer
	meter   metric.Meter
	metrics map[string]metric.Float64Counter
}

// NewProvider builds a Provider using the globally configured OpenTelemetry
// providers (set by the host via otel.SetTracerProvider/SetMeterProvider,
// or OpenTelemetry's no-op defaults when the host configures nothing).
func NewProvider(instrumentationName string) *Provider {
	return &Provider{
		tracer:  otel.Tracer(instrumentationName),
		meter:   otel.Meter(instrumentationName),
		metrics: make(map[string]metric.Float64Counter),
	}
}

// StartSpan implements core.Telemetry.
func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, core.Span) {
	ctx, span := p.tracer.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

// RecordMetric implements core.Telemetry. Metrics are lazily registered as
// float64 counters keyed by name; labels become attributes.
func (p *Provider) RecordMetric(name string, value float64, labels map[string]string) {
	counter, ok := p.metrics[name]
	if !ok {
		var err error
		counter, err = p.meter.Float64Counter(name)
		if err != nil {
			return
		}
		p.metrics[name] = counter
	}
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	counter.Add(context.Background(), value, metric.WithAttributes(attrs...))
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() { s.span.End() }

func (s *otelSpan) SetAttribute(key string, value interface{}) {
	s.span.SetAttributes(toAttribute(key, value))
}

func (s *otelSpan) AddEvent(name string, attrs map[string]interface{}) {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, toAttribute(k, v))
	}
	s.span.AddEvent(name, trace.WithAttributes(kvs...))
}

func (s *otelSpan) RecordError(err error) {
	s.span.RecordError(err)
}

func toAttribute(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	default:
		return attribute.String(key, toString(v))
	}
}

func toString(v interface{}) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}

// NewTracedHTTPClient returns an *http.Client instrumented with otelhttp so
// outbound webhook/agent calls participate in the caller's trace, mirroring
// the teacher's telemetry.NewTracedHTTPClient.
func NewTracedHTTPClient(base *http.Client) *http.Client {
	if base == nil {
		base = &http.Client{}
	}
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &http.Client{
		Transport: otelhttp.NewTransport(transport),
		Timeout:   base.Timeout,
	}
}

var _ core.Telemetry = (*Provider)(nil)
