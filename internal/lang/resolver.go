package lang

import "strings"

// Document is the key-to-value lookup a predicate is evaluated against.
// Values may themselves be nested Documents (or map[string]any convertible
// to one) to support dotted-path identifiers.
type Document map[string]any

// Resolver resolves an identifier name to a Value given a document. It is
// the injected capability mentioned in spec.md's design notes: either a
// function value or a small single-method interface.
type Resolver interface {
	Resolve(name string, doc Document) (Value, bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(name string, doc Document) (Value, bool)

func (f ResolverFunc) Resolve(name string, doc Document) (Value, bool) {
	return f(name, doc)
}

// DottedPathResolver is the default Resolver: it splits name on '.' and
// performs successive map lookups. A missing key at any level yields
// Undefined (via the second return value being false).
type DottedPathResolver struct{}

func (DottedPathResolver) Resolve(name string, doc Document) (Value, bool) {
	parts := strings.Split(name, ".")
	var cur any = map[string]any(doc)
	for _, part := range parts {
		m, ok := asMap(cur)
		if !ok {
			return Value{}, false
		}
		v, ok := m[part]
		if !ok {
			return Value{}, false
		}
		cur = v
	}
	return fromGo(cur), true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case Document:
		return map[string]any(m), true
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}

// fromGo converts a native Go value observed in a Document into a Value.
func fromGo(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case []any:
		items := make([]Value, len(t))
		for i, it := range t {
			items[i] = fromGo(it)
		}
		return Sequence(items)
	case []string:
		items := make([]Value, len(t))
		for i, it := range t {
			items[i] = String(it)
		}
		return Sequence(items)
	case map[string]any, Document:
		// A nested document resolved as a leaf value (e.g. the caller asked
		// for the whole subtree) has no scalar representation; treat it as
		// Undefined rather than guessing.
		return Undefined()
	default:
		return Undefined()
	}
}

// resolveIdentifier implements the four-step identifier resolution
// contract: bare-constant shortcut, custom resolver, default dotted-path
// lookup, then per-evaluation caching.
func resolveIdentifier(name string, ctx *EvalContext) Value {
	if v, ok := ctx.identCache[name]; ok {
		return v
	}

	v := resolveOnce(name, ctx)
	ctx.identCache[name] = v
	return v
}

func resolveOnce(name string, ctx *EvalContext) Value {
	switch name {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	case "null":
		return Null()
	case "empty":
		return EmptyConst()
	case "undefined":
		return Undefined()
	}

	if ctx.Resolver != nil {
		if v, ok := safeResolve(ctx.Resolver, name, ctx.Doc); ok {
			return v
		}
		return Undefined()
	}

	if v, ok := (DottedPathResolver{}).Resolve(name, ctx.Doc); ok {
		return v
	}
	return Undefined()
}

// safeResolve treats a panicking resolver callback as Undefined: resolver
// failures are explanatory, not fatal (spec.md §7).
func safeResolve(r Resolver, name string, doc Document) (v Value, ok bool) {
	defer func() {
		if recover() != nil {
			v, ok = Value{}, false
		}
	}()
	return r.Resolve(name, doc)
}
