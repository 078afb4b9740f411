package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/BaSui01/pipeflow/types"
)

func spanAttr(span tracetest.SpanStub, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestEngineEmitsAgentSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	engine := NewEngine(greeterRegistry(t), WithTracerProvider(tp))
	_, _, err := engine.Process(context.Background(), "greeter", types.Data{"name": "Maria", "language": "es"})
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2, "one span per agent invocation")

	agents := make([]string, 0, len(spans))
	for _, span := range spans {
		assert.Equal(t, "pipeline.agent", span.Name)
		name, ok := spanAttr(span, "agent")
		require.True(t, ok)
		agents = append(agents, name.AsString())
		outcome, ok := spanAttr(span, "outcome")
		require.True(t, ok)
		assert.NotEmpty(t, outcome.AsString())
		id, ok := spanAttr(span, "pipeline_id")
		require.True(t, ok)
		assert.Positive(t, id.AsInt64())
	}
	assert.Equal(t, []string{"greeter", "formatter"}, agents)
}

func TestFailedInvocationRecordsSpanError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	engine := NewEngine(greeterRegistry(t), WithTracerProvider(tp))
	_, _, err := engine.Process(context.Background(), "greeter", types.Data{})
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
}
