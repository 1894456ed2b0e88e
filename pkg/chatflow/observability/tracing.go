package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartSaveSpan starts a span covering validation and persistence of a flow.
	StartSaveSpan(ctx context.Context, flowID string, nodeCount, edgeCount int) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager backed by the global OTel tracer
// provider at the time of the call.
func NewSpanManager() SpanManager {
	return &otelSpanManager{tracer: otel.Tracer("chatflow")}
}

// StartSaveSpan starts a span for a save.
func (m *otelSpanManager) StartSaveSpan(ctx context.Context, flowID string, nodeCount, edgeCount int) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "chatflow.save",
		trace.WithAttributes(
			attribute.String("flow.id", flowID),
			attribute.Int("flow.nodes", nodeCount),
			attribute.Int("flow.edges", edgeCount),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
