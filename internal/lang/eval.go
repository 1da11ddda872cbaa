package lang

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// EvalContext is the per-evaluation scratch space named in spec.md: the
// document, the identifier cache, a failure trail, a literal-value map
// (for analyze output), and a subexpression result cache keyed by a
// syntactic fingerprint of the subtree. A fresh EvalContext is created for
// every Evaluate/Analyze call so concurrent evaluations never interfere.
type EvalContext struct {
	Doc      Document
	Resolver Resolver

	// Failed is the ordered list of human-readable failure reasons
	// accumulated during evaluation. It is empty iff the predicate
	// returned true.
	Failed []string

	// Literals maps a subtree's canonical textual form to the value
	// observed for it during this evaluation, exposed by analyze().
	Literals map[string]Value

	identCache map[string]Value
	subCache   map[uint64]evalResult
}

// NewEvalContext creates a scratch context for one evaluation against doc,
// using resolver for identifier lookups (nil selects the default
// dotted-path resolver).
func NewEvalContext(doc Document, resolver Resolver) *EvalContext {
	return &EvalContext{
		Doc:        doc,
		Resolver:   resolver,
		Literals:   make(map[string]Value),
		identCache: make(map[string]Value),
		subCache:   make(map[uint64]evalResult),
	}
}

func fingerprint(n Node) uint64 {
	return xxhash.Sum64String(n.Text())
}

// evalCached evaluates n against ctx, consulting the subexpression cache
// by fingerprint before doing any work. This is what makes repeated
// subexpressions within one predicate free, independent of hoisting.
func evalCached(n Node, ctx *EvalContext) evalResult {
	fp := fingerprint(n)
	if r, ok := ctx.subCache[fp]; ok {
		return r
	}
	r := n.Eval(ctx)
	ctx.subCache[fp] = r
	ctx.Literals[n.Text()] = r.Value
	return r
}

// Evaluate runs n against ctx and returns its boolean result, populating
// ctx.Failed and ctx.Literals as a side effect.
func Evaluate(n Node, ctx *EvalContext) bool {
	r := evalCached(n, ctx)
	ctx.Failed = r.Reasons
	if !r.Value.Bool && len(ctx.Failed) == 0 {
		// a bare constant or identifier fails without a reason of its own
		ctx.Failed = []string{fmt.Sprintf("%s was %s for %s at line: %d, col %d",
			n.Text(), Render(r.Value), n.kindName(), n.Pos().Line, n.Pos().Col)}
	}
	return r.Value.Bool
}

// --- per-node Eval implementations ---

func (n *IdentifierNode) Eval(ctx *EvalContext) evalResult {
	return evalResult{Value: resolveIdentifier(n.Name, ctx)}
}

func (n *StringLitNode) Eval(ctx *EvalContext) evalResult {
	return evalResult{Value: String(n.Value)}
}

func (n *NumberLitNode) Eval(ctx *EvalContext) evalResult {
	return evalResult{Value: Number(n.Value)}
}

func (n *ConstantNode) Eval(ctx *EvalContext) evalResult {
	switch n.Kind {
	case ConstTrue:
		return evalResult{Value: Bool(true)}
	case ConstFalse:
		return evalResult{Value: Bool(false)}
	case ConstNull:
		return evalResult{Value: Null()}
	case ConstEmpty:
		return evalResult{Value: EmptyConst()}
	case ConstUndefined:
		return evalResult{Value: Undefined()}
	}
	return evalResult{Value: Undefined()}
}

func (n *RegexNode) Eval(ctx *EvalContext) evalResult {
	return evalResult{Value: RegexValue(n.compiled)}
}

func (n *LiteralSetNode) Eval(ctx *EvalContext) evalResult {
	items := make([]Value, len(n.Members))
	for i, m := range n.Members {
		items[i] = evalCached(m, ctx).Value
	}
	return evalResult{Value: Set(items)}
}

func (n *NegateNode) Eval(ctx *EvalContext) evalResult {
	child := evalCached(n.Child, ctx)
	result := !child.Value.Bool
	if result {
		return trueResult()
	}
	return falseResult(fmt.Sprintf("Negation of %s was %v for NotOperator at line: %d, col %d",
		n.Child.Text(), child.Value.Bool, n.pos.Line, n.pos.Col))
}

func (n *AndNode) Eval(ctx *EvalContext) evalResult {
	left := evalCached(n.Left, ctx)
	if !left.Value.Bool {
		return evalResult{Value: Bool(false), Reasons: left.Reasons}
	}
	right := evalCached(n.Right, ctx)
	if !right.Value.Bool {
		return evalResult{Value: Bool(false), Reasons: right.Reasons}
	}
	return trueResult()
}

func (n *OrNode) Eval(ctx *EvalContext) evalResult {
	left := evalCached(n.Left, ctx)
	if left.Value.Bool {
		return trueResult()
	}
	right := evalCached(n.Right, ctx)
	if right.Value.Bool {
		return trueResult()
	}
	reasons := append(append([]string{}, left.Reasons...), right.Reasons...)
	return evalResult{Value: Bool(false), Reasons: reasons}
}

func (n *CompareNode) Eval(ctx *EvalContext) evalResult {
	left := evalCached(n.Left, ctx)
	right := evalCached(n.Right, ctx)

	if n.Op == OpIs || n.Op == OpIsNot {
		eq := Identical(left.Value, right.Value)
		if n.Op == OpIsNot {
			eq = !eq
		}
		if eq {
			return trueResult()
		}
		return falseResult(fmt.Sprintf("Left side: %s, right side: %s for %s at line: %d, col %d",
			Render(left.Value), Render(right.Value), n.kindName(), n.pos.Line, n.pos.Col))
	}

	if left.Value.Kind == KindUndefined || right.Value.Kind == KindUndefined {
		side := "Right"
		if left.Value.Kind == KindUndefined {
			side = "Left"
		}
		return falseResult(fmt.Sprintf("%s side: Undefined for %s at line: %d, col %d",
			side, n.kindName(), n.pos.Line, n.pos.Col))
	}

	var ok bool
	switch n.Op {
	case OpEq:
		ok = Equal(left.Value, right.Value)
	case OpNe:
		ok = !Equal(left.Value, right.Value)
	case OpLt, OpLe, OpGt, OpGe:
		less, orderable := Less(left.Value, right.Value)
		eq := orderable && !less && Equal(left.Value, right.Value)
		switch n.Op {
		case OpLt:
			ok = orderable && less
		case OpLe:
			ok = orderable && (less || eq)
		case OpGt:
			ok = orderable && !less && !eq
		case OpGe:
			ok = orderable && (!less || eq)
		}
		if !orderable {
			return falseResult(fmt.Sprintf("Left side: %s and right side: %s are not orderable for %s at line: %d, col %d",
				Render(left.Value), Render(right.Value), n.kindName(), n.pos.Line, n.pos.Col))
		}
	}

	if ok {
		return trueResult()
	}
	return falseResult(fmt.Sprintf("Left side: %s, right side: %s for %s at line: %d, col %d",
		Render(left.Value), Render(right.Value), n.kindName(), n.pos.Line, n.pos.Col))
}

func (n *ContainsNode) Eval(ctx *EvalContext) evalResult {
	if ls, ok := n.Container.(*LiteralSetNode); ok {
		elem := evalCached(n.Element, ctx)
		if ls.Has(elem.Value) {
			return trueResult()
		}
		return falseResult(fmt.Sprintf("Right side: %s not in left side: %s for ContainsOperator at line: %d, col %d",
			Render(elem.Value), ls.Text(), n.pos.Line, n.pos.Col))
	}

	container := evalCached(n.Container, ctx)
	elem := evalCached(n.Element, ctx)

	switch container.Value.Kind {
	case KindUndefined:
		return falseResult(fmt.Sprintf("Left side: Undefined for ContainsOperator at line: %d, col %d",
			n.pos.Line, n.pos.Col))
	case KindSequence, KindSet:
		for _, it := range container.Value.Items {
			if Equal(it, elem.Value) {
				return trueResult()
			}
		}
		return falseResult(fmt.Sprintf("Right side: %s not in left side: %s for ContainsOperator at line: %d, col %d",
			Render(elem.Value), Render(container.Value), n.pos.Line, n.pos.Col))
	case KindString:
		if elem.Value.Kind == KindString && strings.Contains(container.Value.Str, elem.Value.Str) {
			return trueResult()
		}
		return falseResult(fmt.Sprintf("Right side: %s not in left side: %s for ContainsOperator at line: %d, col %d",
			Render(elem.Value), Render(container.Value), n.pos.Line, n.pos.Col))
	default:
		return falseResult(fmt.Sprintf("Left side: %s is not a sequence, set, or string for ContainsOperator at line: %d, col %d",
			Render(container.Value), n.pos.Line, n.pos.Col))
	}
}

func (n *MatchNode) Eval(ctx *EvalContext) evalResult {
	v := evalCached(n.Identifier, ctx)
	if v.Value.Kind != KindString {
		return falseResult(fmt.Sprintf("Left side: %s is not a string for MatchesOperator at line: %d, col %d",
			Render(v.Value), n.pos.Line, n.pos.Col))
	}
	if n.Regex.compiled == nil {
		return falseResult(fmt.Sprintf("Right side: invalid regex for MatchesOperator at line: %d, col %d",
			n.pos.Line, n.pos.Col))
	}
	if n.Regex.compiled.MatchString(v.Value.Str) {
		return trueResult()
	}
	return falseResult(fmt.Sprintf("Left side: %s does not match %s for MatchesOperator at line: %d, col %d",
		Render(v.Value), n.Regex.Text(), n.pos.Line, n.pos.Col))
}
