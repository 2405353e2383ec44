package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer(t *testing.T) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return NewTracerWithProvider(tp, "test"), recorder
}

func TestTracer_StartSpanAttributes(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	_, span := tracer.StartSpan(context.Background(), "features.Derive", map[string]interface{}{
		"request_id": "req-1",
		"rows":       3,
		"score":      3.7,
		"cached":     true,
		"timeout":    2 * time.Second,
	})
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "features.Derive", ended[0].Name())

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "req-1", attrs["request_id"].AsString())
	assert.Equal(t, int64(3), attrs["rows"].AsInt64())
	assert.Equal(t, 3.7, attrs["score"].AsFloat64())
	assert.True(t, attrs["cached"].AsBool())
	assert.Equal(t, "2s", attrs["timeout"].AsString())
}

func TestTracer_RecordError(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	_, span := tracer.StartSpan(context.Background(), "load", nil)
	tracer.RecordError(span, errors.New("boom"), "artifact load failed")
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "artifact load failed", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
}
