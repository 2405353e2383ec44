package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer with the attribute conversion used
// across the pipeline. Without a registered provider spans are no-ops.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from the global provider.
func NewTracer(name string) *Tracer {
	return &Tracer{tracer: otel.Tracer(name)}
}

// NewTracerWithProvider creates a tracer from an explicit provider.
func NewTracerWithProvider(tp trace.TracerProvider, name string) *Tracer {
	return &Tracer{tracer: tp.Tracer(name)}
}

// StartSpan starts a span with the given attributes.
func (t *Tracer) StartSpan(ctx context.Context, spanName string, attrs map[string]interface{}) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, spanName, trace.WithAttributes(convertAttributes(attrs)...))
}

// RecordError marks the span as failed.
func (t *Tracer) RecordError(span trace.Span, err error, description string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, description)
}

func convertAttributes(attrs map[string]interface{}) []attribute.KeyValue {
	result := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			result = append(result, attribute.String(k, val))
		case int:
			result = append(result, attribute.Int(k, val))
		case int64:
			result = append(result, attribute.Int64(k, val))
		case float64:
			result = append(result, attribute.Float64(k, val))
		case bool:
			result = append(result, attribute.Bool(k, val))
		case fmt.Stringer:
			result = append(result, attribute.String(k, val.String()))
		default:
			result = append(result, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
	return result
}
