package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	require.NoError(t, InitWithExporter("fluxchart", "0.0.1", exporter))

	ctx, parent := Start(context.Background(), "machine.start", map[string]string{"machine.id": "m1"})
	parent.AddEvent("Entered", map[string]string{"state": "/a"})
	_, child := Start(ctx, "machine.deliver", nil)
	child.SetAttributes(map[string]string{"event.type": "tick"})
	child.End(errors.New("boom"))
	parent.End(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "machine.deliver", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Contains(t, spans[0].Attributes, attribute.String("event.type", "tick"))
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Equal(t, "machine.start", spans[1].Name)
	assert.Equal(t, codes.Ok, spans[1].Status.Code)
	assert.Contains(t, spans[1].Attributes, attribute.String("machine.id", "m1"))
	require.Len(t, spans[1].Events, 1)
	assert.Equal(t, "Entered", spans[1].Events[0].Name)

	var nilSpan *Span
	nilSpan.AddEvent("ignored", nil)
	nilSpan.SetAttributes(map[string]string{"a": "b"})
	nilSpan.End(nil)
}
