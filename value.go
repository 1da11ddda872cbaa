package predicate

import "github.com/sparrowhq/predicate/internal/lang"

// Value is the tagged union every expression evaluates to, re-exported for
// callers implementing a custom Resolver.
type Value = lang.Value

// Constructors for Value, re-exported from internal/lang for custom
// Resolver implementations.
var (
	Undefined  = lang.Undefined
	Null       = lang.Null
	EmptyConst = lang.EmptyConst
	Bool       = lang.Bool
	Number     = lang.Number
	String     = lang.String
	Sequence   = lang.Sequence
	SetValue   = lang.Set
)
