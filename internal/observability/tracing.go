package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer with predicate-engine span helpers.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer using the given TracerProvider. Passing
// otel.GetTracerProvider() yields the global no-op provider until the host
// configures a real one.
func NewTracer(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(TracerName)}
}

// StartParse starts a span around Parse.
func (t *Tracer) StartParse(ctx context.Context, source string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "predicate.parse", trace.WithAttributes(
		OperationAttr(OpParse),
		attribute.Int("predicate.source_len", len(source)),
	))
}

// StartOptimize starts a span around Optimize.
func (t *Tracer) StartOptimize(ctx context.Context, id string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "predicate.optimize", trace.WithAttributes(
		OperationAttr(OpOptimize),
		PredicateIDAttr(id),
	))
}

// StartEvaluate starts a span around a single Predicate.Evaluate/Analyze call.
func (t *Tracer) StartEvaluate(ctx context.Context, id string, analyze bool) (context.Context, trace.Span) {
	op := OpEvaluate
	if analyze {
		op = OpAnalyze
	}
	return t.tracer.Start(ctx, "predicate."+op, trace.WithAttributes(
		OperationAttr(op),
		PredicateIDAttr(id),
	))
}

// StartCompile starts a span around OptimizedPredicateSet.compileAST.
func (t *Tracer) StartCompile(ctx context.Context, memberCount int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "predicateset.compile", trace.WithAttributes(
		OperationAttr(OpCompile),
		MemberCountAttr(memberCount),
	))
}

// StartFinalize starts a span around OptimizedPredicateSet.finalize.
func (t *Tracer) StartFinalize(ctx context.Context) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "predicateset.finalize", trace.WithAttributes(
		OperationAttr(OpFinalize),
	))
}

// RecordResult annotates span with the boolean result of an evaluation.
func (t *Tracer) RecordResult(span trace.Span, result bool) {
	span.SetAttributes(ResultAttr(result))
}

// RecordError records an error on the span and marks it failed.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// LoggerWithTrace enriches logger with the active span's trace/span IDs.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return logger
	}
	return logger.With(
		slog.String(LogFieldTraceID, span.SpanContext().TraceID().String()),
		slog.String(LogFieldSpanID, span.SpanContext().SpanID().String()),
	)
}
