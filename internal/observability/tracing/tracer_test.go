package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestNew_Disabled(t *testing.T) {
	tr, err := New(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, tr.Shutdown(context.Background()))

	_, span := tr.Start(context.Background(), "noop")
	span.End()
}

func TestNilTracer_Start(t *testing.T) {
	var tr *Tracer
	ctx, span := tr.StartCommand(context.Background(), "op", "inv-1")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.NoError(t, tr.Shutdown(context.Background()))
}

func TestStartCommand_Attributes(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())

	tr := &Tracer{tracer: tp.Tracer(InstrumentationName)}

	ctx, root := tr.StartCommand(context.Background(), "deop", "inv-2")
	_, child := tr.StartClient(ctx, "discord.role.remove")
	child.End()
	root.End()

	spans := rec.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "discord.role.remove", spans[0].Name())
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())
	assert.Equal(t, root.SpanContext().SpanID(), spans[0].Parent().SpanID())

	assert.Equal(t, "command deop", spans[1].Name())
	assert.Contains(t, spans[1].Attributes(), attribute.String("autoop.command", "deop"))
	assert.Contains(t, spans[1].Attributes(), attribute.String("autoop.invocation_id", "inv-2"))
}
