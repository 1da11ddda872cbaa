package observability

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the predicate engine's metric instruments.
type Metrics struct {
	parseCount       metric.Int64Counter
	evaluateCount    metric.Int64Counter
	cacheHitCount    metric.Int64Counter
	optimizeRewrites metric.Int64Counter
	branchCount      metric.Int64Histogram
	compileDuration  metric.Float64Histogram
}

// NewMetrics creates a Metrics instance from the given MeterProvider.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter(MeterName)
	m := &Metrics{}

	var err error
	m.parseCount, err = meter.Int64Counter("predicate.parse.count",
		metric.WithDescription("Total number of predicates parsed"))
	if err != nil {
		m.parseCount, _ = meter.Int64Counter("predicate.parse.count")
	}

	m.evaluateCount, err = meter.Int64Counter("predicate.evaluate.count",
		metric.WithDescription("Total number of predicate evaluations"))
	if err != nil {
		m.evaluateCount, _ = meter.Int64Counter("predicate.evaluate.count")
	}

	m.cacheHitCount, err = meter.Int64Counter("predicate.subexpr_cache.hits",
		metric.WithDescription("Subexpression cache hits during evaluation"))
	if err != nil {
		m.cacheHitCount, _ = meter.Int64Counter("predicate.subexpr_cache.hits")
	}

	m.optimizeRewrites, err = meter.Int64Counter("predicate.optimize.rewrites",
		metric.WithDescription("Rewrite rules applied by the optimizer"))
	if err != nil {
		m.optimizeRewrites, _ = meter.Int64Counter("predicate.optimize.rewrites")
	}

	m.branchCount, err = meter.Int64Histogram("predicateset.branch_count",
		metric.WithDescription("Number of decision-tree branches built per compile"))
	if err != nil {
		m.branchCount, _ = meter.Int64Histogram("predicateset.branch_count")
	}

	m.compileDuration, err = meter.Float64Histogram("predicateset.compile.duration",
		metric.WithDescription("Duration of OptimizedPredicateSet compile in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		m.compileDuration, _ = meter.Float64Histogram("predicateset.compile.duration")
	}

	return m
}

func (m *Metrics) RecordParse(ctx context.Context) {
	m.parseCount.Add(ctx, 1)
}

func (m *Metrics) RecordEvaluate(ctx context.Context) {
	m.evaluateCount.Add(ctx, 1)
}

func (m *Metrics) RecordCacheHit(ctx context.Context) {
	m.cacheHitCount.Add(ctx, 1)
}

func (m *Metrics) RecordRewrite(ctx context.Context) {
	m.optimizeRewrites.Add(ctx, 1)
}

func (m *Metrics) RecordCompile(ctx context.Context, branchCount int, durationMS float64) {
	m.branchCount.Record(ctx, int64(branchCount))
	m.compileDuration.Record(ctx, durationMS)
}
