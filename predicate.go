// Package predicate implements an embeddable boolean predicate engine:
// parse a small DSL into an AST, optimize it, and evaluate it (singly or as
// a batch decision tree) against attribute-keyed documents.
package predicate

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sparrowhq/predicate/internal/lang"
	"github.com/sparrowhq/predicate/internal/observability"
)

// Document is the key-to-value lookup a predicate is evaluated against.
type Document = lang.Document

// Resolver resolves an identifier name to a value given a document,
// overriding the default dotted-path lookup.
type Resolver = lang.Resolver

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc = lang.ResolverFunc

// Predicate is a parsed, optimized boolean expression. Apart from
// SetResolver, a Predicate built by New is not modified after construction:
// Evaluate/Analyze may be called concurrently from multiple goroutines, each
// against its own EvalContext.
type Predicate struct {
	id     uuid.UUID
	source string
	ast    lang.Node
	diags  []lang.Diagnostic

	resolver lang.Resolver
	logger   *slog.Logger
	obs      *observability.Config
}

// Option configures a Predicate at construction time.
type Option func(*Predicate)

// WithResolver installs a custom identifier Resolver, overriding the
// default dotted-path lookup against the evaluated document.
func WithResolver(r Resolver) Option {
	return func(p *Predicate) { p.resolver = r }
}

// WithLogger attaches a structured logger. A nil logger (the default)
// falls back to slog.Default() inside New, the way the teacher's
// setLoggerInDB attaches a logger to a *gorm.DB: a small per-construction
// option rather than a global.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Predicate) { p.logger = logger }
}

// WithObservability installs an observability.Config for tracing and
// metrics. A nil or never-supplied Config behaves as a no-op.
func WithObservability(cfg *observability.Config) Option {
	return func(p *Predicate) { p.obs = cfg }
}

// New parses and optimizes source into a Predicate. The result may be
// invalid (IsValid reports false and Errors reports why); an invalid
// Predicate must not be evaluated.
func New(source string, opts ...Option) *Predicate {
	p := &Predicate{id: uuid.New(), source: source}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.loggerOrDefault()

	tracer := p.obs.Tracer()
	_, span := tracer.StartParse(context.Background(), source)
	defer span.End()

	ast, diags := lang.Parse(source)
	tracer.RecordResult(span, len(diags) == 0)
	p.diags = diags

	if len(diags) == 0 {
		ast = lang.Optimize(ast)
	}
	p.ast = ast

	p.obs.Metrics().RecordParse(context.Background())
	if !p.IsValid() {
		p.logger.Warn("predicate failed to parse", "id", p.id, "errors", len(p.diags))
	}
	return p
}

func (p *Predicate) loggerOrDefault() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

// ID returns the stable identity minted at parse time. It is independent
// of the predicate's source text, so a PredicateSet can update() a member
// by identity without tracking its old AST pointer.
func (p *Predicate) ID() uuid.UUID { return p.id }

// Source returns the original DSL text the Predicate was parsed from.
func (p *Predicate) Source() string { return p.source }

// IsValid reports whether parsing produced zero diagnostics.
func (p *Predicate) IsValid() bool { return len(p.diags) == 0 }

// Errors returns every diagnostic collected during parsing, in the order
// they were raised.
func (p *Predicate) Errors() []Diagnostic { return p.diags }

// Description renders the AST as an indented multi-line tree: one line per
// node, "<NodeKind> at line: L, col C", children indented four spaces, in
// evaluation order. Panics with ErrInvalidPredicate if the predicate failed
// to parse.
func (p *Predicate) Description() string {
	if !p.IsValid() {
		panic(ErrInvalidPredicate)
	}
	return lang.Describe(p.ast)
}

// SetResolver replaces the identifier Resolver used by subsequent
// Evaluate/Analyze calls.
func (p *Predicate) SetResolver(r Resolver) { p.resolver = r }

// Evaluate reports whether the predicate holds against doc. Panics with
// ErrInvalidPredicate if the predicate failed to parse.
func (p *Predicate) Evaluate(doc Document) bool {
	matched, _ := p.Analyze(doc)
	return matched
}

// Analyze evaluates the predicate against doc and returns both the
// boolean result and the EvalContext used, which exposes the ordered
// failure trail (empty iff the result is true) and the literal values
// observed for every subexpression. Panics with ErrInvalidPredicate if the
// predicate failed to parse.
func (p *Predicate) Analyze(doc Document) (bool, *lang.EvalContext) {
	if !p.IsValid() {
		panic(ErrInvalidPredicate)
	}
	ctx := lang.NewEvalContext(doc, p.resolver)

	tracer := p.obs.Tracer()
	_, span := tracer.StartEvaluate(context.Background(), p.id.String(), true)
	defer span.End()

	matched := lang.Evaluate(p.ast, ctx)
	tracer.RecordResult(span, matched)
	p.obs.Metrics().RecordEvaluate(context.Background())
	return matched, ctx
}
