package predicate

import (
	"errors"

	"github.com/sparrowhq/predicate/internal/lang"
)

// ErrInvalidPredicate is the panic value raised by Evaluate, Analyze, and
// Description when called on a Predicate that failed to parse. It mirrors
// pypred's InvalidPredicate exception, raised for the same three methods in
// predicate.py.
var ErrInvalidPredicate = errors.New("predicate: invalid predicate")

// Kind classifies a Diagnostic by the stage that raised it: lex, syntax,
// or semantic (spec.md §7). There is no "evaluation" kind — evaluation is
// total on a valid predicate and never fails; it pushes a failure reason
// instead.
type Kind = lang.DiagnosticKind

const (
	Lex      = lang.Lex
	Syntax   = lang.Syntax
	Semantic = lang.Semantic
)

// Diagnostic is a single parse-time finding: a predicate with any
// Diagnostic at all is invalid and cannot be evaluated or optimized.
type Diagnostic = lang.Diagnostic
