// Package observability provides OpenTelemetry-based instrumentation for the
// predicate engine's parse, optimize, compile, and evaluate phases.
//
// All observability features are opt-in. When no provider is configured,
// the no-op OpenTelemetry implementations are used with zero overhead.
package observability

import "go.opentelemetry.io/otel/attribute"

// Instrumentation identity constants.
const (
	TracerName = "github.com/sparrowhq/predicate"
	MeterName  = "github.com/sparrowhq/predicate"
)

// Semantic attribute keys for predicate spans and log lines.
const (
	AttrPredicateID     = "predicate.id"
	AttrPredicateText   = "predicate.text"
	AttrDiagnosticCount = "predicate.diagnostic_count"
	AttrOperation       = "predicate.operation"
	AttrResult          = "predicate.result"
	AttrBranchCount     = "predicateset.branch_count"
	AttrLeafCount       = "predicateset.leaf_count"
	AttrMemberCount     = "predicateset.member_count"
	AttrMatchCount      = "predicateset.match_count"
	AttrCacheHit        = "predicate.cache_hit"

	LogFieldPredicateID = "predicate_id"
	LogFieldTraceID     = "trace_id"
	LogFieldSpanID      = "span_id"
)

// Operation names for the predicate.operation attribute.
const (
	OpParse    = "parse"
	OpOptimize = "optimize"
	OpEvaluate = "evaluate"
	OpAnalyze  = "analyze"
	OpCompile  = "compile"
	OpFinalize = "finalize"
)

func PredicateIDAttr(id string) attribute.KeyValue {
	return attribute.String(AttrPredicateID, id)
}

func PredicateTextAttr(text string) attribute.KeyValue {
	return attribute.String(AttrPredicateText, text)
}

func DiagnosticCountAttr(n int) attribute.KeyValue {
	return attribute.Int(AttrDiagnosticCount, n)
}

func OperationAttr(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

func ResultAttr(result bool) attribute.KeyValue {
	return attribute.Bool(AttrResult, result)
}

func BranchCountAttr(n int) attribute.KeyValue {
	return attribute.Int(AttrBranchCount, n)
}

func LeafCountAttr(n int) attribute.KeyValue {
	return attribute.Int(AttrLeafCount, n)
}

func MemberCountAttr(n int) attribute.KeyValue {
	return attribute.Int(AttrMemberCount, n)
}

func MatchCountAttr(n int) attribute.KeyValue {
	return attribute.Int(AttrMatchCount, n)
}
