package lang

const maxOptimizePasses = 24

// Optimize rewrites a valid AST into an equivalent but faster tree: constant
// folding, boolean absorption, literal-set compilation, contradiction and
// tautology elimination over a single identifier, and selectivity-ordered
// And/Or children (spec.md §4.4). It is applied to fixed point.
func Optimize(n Node) Node {
	if n == nil {
		return n
	}
	prev := n
	for i := 0; i < maxOptimizePasses; i++ {
		next := optimizePass(prev)
		if next.Text() == prev.Text() {
			return next
		}
		prev = next
	}
	return prev
}

func optimizePass(n Node) Node {
	switch v := n.(type) {
	case *NegateNode:
		child := optimizePass(v.Child)
		return rewriteNegate(child, v.pos)

	case *AndNode:
		left := optimizePass(v.Left)
		right := optimizePass(v.Right)
		return rewriteAnd(left, right, v.pos)

	case *OrNode:
		left := optimizePass(v.Left)
		right := optimizePass(v.Right)
		return rewriteOr(left, right, v.pos)

	case *CompareNode:
		left := optimizePass(v.Left)
		right := optimizePass(v.Right)
		rebuilt := NewCompareNode(v.Op, left, right, v.pos)
		return foldIfConstant(rebuilt)

	case *ContainsNode:
		container := optimizePass(v.Container)
		element := optimizePass(v.Element)
		rebuilt := NewContainsNode(container, element, v.pos)
		return foldIfConstant(rebuilt)

	case *MatchNode:
		return foldIfConstant(v)

	default:
		return n
	}
}

func rewriteNegate(child Node, pos Position) Node {
	if inner, ok := child.(*NegateNode); ok {
		return inner.Child
	}
	if c, ok := child.(*ConstantNode); ok {
		switch c.Kind {
		case ConstTrue:
			return NewConstantNode(ConstFalse, pos)
		case ConstFalse:
			return NewConstantNode(ConstTrue, pos)
		}
	}
	rebuilt := NewNegateNode(child, pos)
	return foldIfConstant(rebuilt)
}

func rewriteAnd(left, right Node, pos Position) Node {
	if isConst(left, ConstFalse) || isConst(right, ConstFalse) {
		return NewConstantNode(ConstFalse, pos)
	}
	if isConst(left, ConstTrue) {
		return right
	}
	if isConst(right, ConstTrue) {
		return left
	}
	if replaced, ok := simplifyConjunction(left, right, pos); ok {
		return replaced
	}
	l, r := selectivityOrder(left, right, false)
	return NewAndNode(l, r, pos)
}

func rewriteOr(left, right Node, pos Position) Node {
	if isConst(left, ConstTrue) || isConst(right, ConstTrue) {
		return NewConstantNode(ConstTrue, pos)
	}
	if isConst(left, ConstFalse) {
		return right
	}
	if isConst(right, ConstFalse) {
		return left
	}
	if replaced, ok := literalSetFromEqChain(NewOrNode(left, right, pos)); ok {
		return replaced
	}
	l, r := selectivityOrder(left, right, true)
	return NewOrNode(l, r, pos)
}

func isConst(n Node, kind ConstantKind) bool {
	c, ok := n.(*ConstantNode)
	return ok && c.Kind == kind
}

// foldIfConstant evaluates n at compile time and replaces it with a
// Constant(true|false) when no Identifier is reachable in its subtree, so
// its value cannot depend on the document.
func foldIfConstant(n Node) Node {
	if !isGroundSubtree(n) {
		return n
	}
	ctx := NewEvalContext(nil, nil)
	r := n.Eval(ctx)
	if r.Value.Kind != KindBool {
		return n
	}
	kind := ConstFalse
	if r.Value.Bool {
		kind = ConstTrue
	}
	return NewConstantNode(kind, n.Pos())
}

func isGroundSubtree(n Node) bool {
	if _, ok := n.(*IdentifierNode); ok {
		return false
	}
	for _, c := range n.children() {
		if !isGroundSubtree(c) {
			return false
		}
	}
	return true
}

// --- literal-set compilation (§4.4 rule 3) ---

// literalSetFromEqChain recognizes Or(Eq(id,a), Or(Eq(id,b), ...)) over a
// single identifier with ground right-hand sides (or its symmetric form)
// and collapses it to Contains(LiteralSet{a,b,...}, id).
func literalSetFromEqChain(n Node) (Node, bool) {
	name, grounds, ok := flattenEqChain(n)
	if !ok || len(grounds) < 2 {
		return nil, false
	}
	set, err := NewLiteralSetNode(grounds, n.Pos())
	if err != nil {
		return nil, false
	}
	id := NewIdentifierNode(name, n.Pos())
	return NewContainsNode(set, id, n.Pos()), true
}

func flattenEqChain(n Node) (name string, grounds []Node, ok bool) {
	switch v := n.(type) {
	case *CompareNode:
		if v.Op != OpEq {
			return "", nil, false
		}
		id, ground, ok2 := splitIdentGround(v.Left, v.Right)
		if !ok2 {
			return "", nil, false
		}
		return id.Name, []Node{ground}, true
	case *ContainsNode:
		// an already-collapsed Contains(LiteralSet, id) from a previous
		// optimize pass is itself a valid chain link, so further Or(Eq, ...)
		// siblings keep merging into the same set instead of stalling.
		id, idOk := v.Element.(*IdentifierNode)
		set, setOk := v.Container.(*LiteralSetNode)
		if !idOk || !setOk {
			return "", nil, false
		}
		return id.Name, append([]Node{}, set.Members...), true
	case *OrNode:
		ln, lv, lok := flattenEqChain(v.Left)
		if !lok {
			return "", nil, false
		}
		rn, rv, rok := flattenEqChain(v.Right)
		if !rok || rn != ln {
			return "", nil, false
		}
		return ln, append(lv, rv...), true
	default:
		return "", nil, false
	}
}

func splitIdentGround(a, b Node) (*IdentifierNode, Node, bool) {
	if id, ok := a.(*IdentifierNode); ok {
		if _, ok2 := groundValue(b); ok2 {
			return id, b, true
		}
	}
	if id, ok := b.(*IdentifierNode); ok {
		if _, ok2 := groundValue(a); ok2 {
			return id, a, true
		}
	}
	return nil, nil, false
}

// --- contradiction / tautology over one identifier (§4.4 rule 4) ---

// simplifyConjunction looks at left `and` right and, if both sides (after
// flattening nested Ands) are comparisons against ground values on the
// same identifier, checks satisfiability and drops redundant bounds. Only
// the numeric-interval shapes named in spec.md are recognized; anything
// else is left alone.
func simplifyConjunction(left, right Node, pos Position) (Node, bool) {
	var chain []*CompareNode
	if !collectCompareChain(left, &chain) || !collectCompareChain(right, &chain) {
		return nil, false
	}
	if len(chain) < 2 {
		return nil, false
	}
	name, norm, ok := normalizeChain(chain)
	if !ok {
		return nil, false
	}
	return buildIntervalResult(name, norm, pos)
}

func collectCompareChain(n Node, out *[]*CompareNode) bool {
	switch v := n.(type) {
	case *CompareNode:
		*out = append(*out, v)
		return true
	case *AndNode:
		return collectCompareChain(v.Left, out) && collectCompareChain(v.Right, out)
	default:
		return false
	}
}

type normalizedCompare struct {
	op    CompareOp
	value float64
}

// normalizeChain requires every compare to be on the same identifier with a
// numeric ground value on the other side, flipping the operator when the
// identifier appears on the right (e.g. "3 < x" becomes "x > 3").
func normalizeChain(chain []*CompareNode) (string, []normalizedCompare, bool) {
	var name string
	out := make([]normalizedCompare, 0, len(chain))
	for _, c := range chain {
		if c.Op != OpEq && c.Op != OpNe && c.Op != OpLt && c.Op != OpLe && c.Op != OpGt && c.Op != OpGe {
			return "", nil, false
		}
		id, okL := c.Left.(*IdentifierNode)
		op := c.Op
		var groundNode Node
		if okL {
			groundNode = c.Right
		} else {
			id, _ = c.Right.(*IdentifierNode)
			groundNode = c.Left
			op = flipOp(c.Op)
		}
		if id == nil {
			return "", nil, false
		}
		if name == "" {
			name = id.Name
		} else if name != id.Name {
			return "", nil, false
		}
		num, ok := groundNode.(*NumberLitNode)
		if !ok {
			return "", nil, false
		}
		out = append(out, normalizedCompare{op: op, value: num.Value})
	}
	return name, out, true
}

func flipOp(op CompareOp) CompareOp {
	switch op {
	case OpLt:
		return OpGt
	case OpLe:
		return OpGe
	case OpGt:
		return OpLt
	case OpGe:
		return OpLe
	default:
		return op
	}
}

func buildIntervalResult(name string, chain []normalizedCompare, pos Position) (Node, bool) {
	var (
		haveEq           bool
		eqValue          float64
		haveLower        bool
		lower            float64
		lowerInclusive   bool
		haveUpper        bool
		upper            float64
		upperInclusive   bool
		forbidden        []float64
	)

	for _, c := range chain {
		switch c.op {
		case OpEq:
			if haveEq && eqValue != c.value {
				return NewConstantNode(ConstFalse, pos), true
			}
			haveEq, eqValue = true, c.value
		case OpNe:
			forbidden = append(forbidden, c.value)
		case OpLt, OpLe:
			if !haveUpper || c.value < upper || (c.value == upper && !c.incl()) {
				upper, upperInclusive, haveUpper = c.value, c.incl(), true
			}
		case OpGt, OpGe:
			if !haveLower || c.value > lower || (c.value == lower && !c.incl()) {
				lower, lowerInclusive, haveLower = c.value, c.incl(), true
			}
		}
	}

	if haveEq {
		if haveLower && (eqValue < lower || (eqValue == lower && !lowerInclusive)) {
			return NewConstantNode(ConstFalse, pos), true
		}
		if haveUpper && (eqValue > upper || (eqValue == upper && !upperInclusive)) {
			return NewConstantNode(ConstFalse, pos), true
		}
		for _, f := range forbidden {
			if f == eqValue {
				return NewConstantNode(ConstFalse, pos), true
			}
		}
		id := NewIdentifierNode(name, pos)
		num := NewNumberLitNode(eqValue, pos)
		return NewCompareNode(OpEq, id, num, pos), true
	}

	if haveLower && haveUpper {
		if lower > upper {
			return NewConstantNode(ConstFalse, pos), true
		}
		if lower == upper {
			if lowerInclusive && upperInclusive {
				id := NewIdentifierNode(name, pos)
				num := NewNumberLitNode(lower, pos)
				return NewCompareNode(OpEq, id, num, pos), true
			}
			return NewConstantNode(ConstFalse, pos), true
		}
	}

	// Only a same-direction chain (no forbidden values, not fully pinned)
	// collapses further; report success when we tightened to a single
	// bound replacing an originally longer chain.
	if len(forbidden) == 0 {
		id := NewIdentifierNode(name, pos)
		switch {
		case haveLower && haveUpper:
			lowerOp := OpGt
			if lowerInclusive {
				lowerOp = OpGe
			}
			upperOp := OpLt
			if upperInclusive {
				upperOp = OpLe
			}
			lo := NewCompareNode(lowerOp, id, NewNumberLitNode(lower, pos), pos)
			hi := NewCompareNode(upperOp, id, NewNumberLitNode(upper, pos), pos)
			if len(chain) > 2 {
				return NewAndNode(lo, hi, pos), true
			}
			return nil, false
		case haveLower && len(chain) > 1:
			op := OpGt
			if lowerInclusive {
				op = OpGe
			}
			return NewCompareNode(op, id, NewNumberLitNode(lower, pos), pos), true
		case haveUpper && len(chain) > 1:
			op := OpLt
			if upperInclusive {
				op = OpLe
			}
			return NewCompareNode(op, id, NewNumberLitNode(upper, pos), pos), true
		}
	}

	return nil, false
}

func (c normalizedCompare) incl() bool { return c.op == OpLe || c.op == OpGe }

// --- selectivity ordering (§4.4 rule 5) ---

// StaticCost ranks a node's per-evaluation cost: constant < literal-set
// contains < comparison on an identifier < match < everything else.
func StaticCost(n Node) int {
	switch v := n.(type) {
	case *ConstantNode:
		return 0
	case *ContainsNode:
		if _, ok := v.Container.(*LiteralSetNode); ok {
			return 1
		}
		return 2
	case *CompareNode:
		return 2
	case *MatchNode:
		return 3
	default:
		return 4
	}
}

// Selectivity estimates P(node is true). Without runtime statistics this
// defaults to 0.5, per spec.md §4.4's explicit fallback.
func Selectivity(n Node) float64 {
	return 0.5
}

// selectivityOrder reorders two And/Or children so the cheaper one goes
// left, breaking ties by selectivity (for Or, the cheaper-and-more-likely-
// to-succeed child moves left; for And, the cheaper-and-more-likely-to-fail
// child moves left). With a constant default selectivity the cost
// dimension dominates.
func selectivityOrder(left, right Node, isOr bool) (Node, Node) {
	lc, rc := StaticCost(left), StaticCost(right)
	if lc <= rc {
		return left, right
	}
	return right, left
}

// Subtrees returns every node in n's tree (including n), for shared-
// subexpression mining across a predicate population.
func Subtrees(n Node) []Node {
	if n == nil {
		return nil
	}
	out := []Node{n}
	for _, c := range n.children() {
		out = append(out, Subtrees(c)...)
	}
	return out
}

// AsConstantBool reports whether n is a folded Constant(true|false).
func AsConstantBool(n Node) (bool, bool) {
	c, ok := n.(*ConstantNode)
	if !ok {
		return false, false
	}
	switch c.Kind {
	case ConstTrue:
		return true, true
	case ConstFalse:
		return false, true
	}
	return false, false
}

// Substitute replaces every node whose canonical text equals targetText
// with Constant(value), then the caller is expected to re-run Optimize.
func Substitute(root Node, targetText string, value bool) Node {
	if root == nil {
		return nil
	}
	if root.Text() == targetText {
		kind := ConstFalse
		if value {
			kind = ConstTrue
		}
		return NewConstantNode(kind, root.Pos())
	}
	switch v := root.(type) {
	case *NegateNode:
		return NewNegateNode(Substitute(v.Child, targetText, value), v.pos)
	case *AndNode:
		return NewAndNode(Substitute(v.Left, targetText, value), Substitute(v.Right, targetText, value), v.pos)
	case *OrNode:
		return NewOrNode(Substitute(v.Left, targetText, value), Substitute(v.Right, targetText, value), v.pos)
	case *CompareNode:
		return NewCompareNode(v.Op, Substitute(v.Left, targetText, value), Substitute(v.Right, targetText, value), v.pos)
	case *ContainsNode:
		return NewContainsNode(Substitute(v.Container, targetText, value), Substitute(v.Element, targetText, value), v.pos)
	default:
		return root
	}
}
