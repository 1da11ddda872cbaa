package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestConfigInitializeWithProviders(t *testing.T) {
	cfg := NewConfig(
		WithTracerProvider(tracenoop.NewTracerProvider()),
		WithMeterProvider(noop.NewMeterProvider()),
		WithServerTiming(),
	)
	cfg.Initialize()

	assert.NotNil(t, cfg.Tracer())
	assert.NotNil(t, cfg.Metrics())
	assert.True(t, cfg.IsEnabled())
	assert.True(t, cfg.ServerTimingEnabled())
}

func TestConfigInitializeNoProvidersFallsBackToNoop(t *testing.T) {
	cfg := NewConfig()
	cfg.Initialize()

	assert.False(t, cfg.IsEnabled())
	assert.NotNil(t, cfg.Tracer())
	assert.NotNil(t, cfg.Metrics())
}

func TestNilConfigReturnsNoop(t *testing.T) {
	var cfg *Config
	assert.NotNil(t, cfg.Tracer())
	assert.NotNil(t, cfg.Metrics())
	assert.False(t, cfg.IsEnabled())
}

func TestTracerSpanLifecycle(t *testing.T) {
	tracer := NewTracer(tracenoop.NewTracerProvider())
	ctx, span := tracer.StartParse(context.Background(), `status = "active"`)
	require.NotNil(t, span)
	tracer.RecordResult(span, true)
	span.End()

	_, span = tracer.StartEvaluate(ctx, "pred-1", true)
	tracer.RecordError(span, nil)
	span.End()
}

func TestMetricsRecordingDoesNotPanic(t *testing.T) {
	metrics := NewNoopMetrics()
	ctx := context.Background()
	metrics.RecordParse(ctx)
	metrics.RecordEvaluate(ctx)
	metrics.RecordCacheHit(ctx)
	metrics.RecordRewrite(ctx)
	metrics.RecordCompile(ctx, 4, 1.5)
}
