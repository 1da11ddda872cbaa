// Package optimizedset builds the decision tree described in spec.md §4.5:
// a single tree of shared branch expressions mined across a population of
// predicates, so matching a document against N predicates touches each
// shared subexpression once instead of N times.
package optimizedset

import (
	"sort"

	"github.com/google/uuid"

	"github.com/sparrowhq/predicate/internal/lang"
	"github.com/sparrowhq/predicate/internal/tuning"
)

// Member is one predicate's contribution to the population being compiled:
// a stable identity plus the (already single-predicate-optimized) AST to
// mine and partition.
type Member struct {
	ID  uuid.UUID
	AST lang.Node
}

// Tree is a compiled decision tree: Branch is nil for a leaf. Branch nodes
// carry the hoisted expression to evaluate once per document; leaves carry
// the members still undetermined after every branch on the path to them.
type Tree struct {
	Branch lang.Node
	True   *Tree
	False  *Tree

	// Matched holds members that collapsed to Constant(true) on the path
	// reaching this node, branch or leaf: they match unconditionally once a
	// descent passes through it, with no further evaluation.
	Matched []uuid.UUID

	// Residual holds members whose specialised AST still depends on the
	// document at this leaf.
	Residual []Member
}

func (t *Tree) isLeaf() bool { return t.Branch == nil }

// candidate is a subexpression seen across the population, scored for
// branch selection.
type candidate struct {
	text  string
	node  lang.Node
	count int
}

// Compile builds a Tree from members using cfg's tuning parameters. It is a
// pure function of (members, cfg); callers needing compile_ast()'s
// idempotent-rebuild-on-change semantics (spec.md §6) memoize at a higher
// layer keyed on the population's signature.
func Compile(members []Member, cfg tuning.Config) *Tree {
	return build(members, cfg, 0)
}

func build(members []Member, cfg tuning.Config, depth int) *Tree {
	if depth >= cfg.MaxDepth || len(members) == 0 {
		return leafFrom(members)
	}

	cand, ok := selectBranch(members, cfg)
	if !ok {
		return leafFrom(members)
	}

	trueMembers, trueMatched := partition(members, cand.text, true)
	falseMembers, falseMatched := partition(members, cand.text, false)

	node := &Tree{Branch: cand.node}
	node.True = build(trueMembers, cfg, depth+1)
	node.True.Matched = append(node.True.Matched, trueMatched...)
	node.False = build(falseMembers, cfg, depth+1)
	node.False.Matched = append(node.False.Matched, falseMatched...)
	return node
}

func leafFrom(members []Member) *Tree {
	return &Tree{Residual: members}
}

// selectBranch mines every boolean-valued subtree across members (spec.md
// §4.5 step 1; identifiers, literals and literal sets are skipped), keeps
// fingerprints occurring at least cfg.MinCount times, and picks the
// one maximising occurrence count and discriminating power while
// penalising evaluation cost (step 2). Ties break by fingerprint text so
// the build is reproducible.
func selectBranch(members []Member, cfg tuning.Config) (candidate, bool) {
	seen := make(map[string]*candidate)
	var order []string
	for _, m := range members {
		for _, sub := range lang.Subtrees(m.AST) {
			if _, isConst := lang.AsConstantBool(sub); isConst {
				continue
			}
			switch sub.(type) {
			case *lang.IdentifierNode, *lang.StringLitNode, *lang.NumberLitNode,
				*lang.ConstantNode, *lang.RegexNode, *lang.LiteralSetNode:
				// operands, not boolean tests: substituting a constant for
				// one would rewrite the comparison around it
				continue
			}
			text := sub.Text()
			c, ok := seen[text]
			if !ok {
				c = &candidate{text: text, node: sub}
				seen[text] = c
				order = append(order, text)
			}
			c.count++
		}
	}

	sort.Strings(order)

	best := candidate{}
	bestScore := -1.0
	found := false
	total := len(members)
	for _, text := range order {
		c := seen[text]
		if c.count < cfg.MinCount {
			continue
		}
		score, benefit := scoreBranch(*c, total, cfg)
		if benefit < cfg.MinBenefit {
			continue
		}
		if score > bestScore {
			bestScore = score
			best = *c
			found = true
		}
	}
	return best, found
}

// scoreBranch estimates the value of hoisting candidate c: discriminating
// power (how close to an even true/false split it produces) weighted
// against its per-evaluation cost, and the benefit ratio against
// evaluating it separately in every occurrence.
func scoreBranch(c candidate, total int, cfg tuning.Config) (score, benefit float64) {
	cost := cfg.Cost(lang.KindName(c.node))
	if cost <= 0 {
		cost = 0.1
	}

	// Discriminating power is approximated from occurrence count alone
	// (the true/false split itself is only known after partitioning);
	// a fingerprint occurring in every member is maximally useful to
	// hoist regardless of which way it splits.
	occupancy := float64(c.count) / float64(total)
	discriminate := occupancy
	if discriminate > 1 {
		discriminate = 1
	}

	separateCost := float64(c.count) * cost
	sharedCost := cost
	benefit = (separateCost - sharedCost) / separateCost
	score = discriminate*float64(cfg.MinCount) - cost
	return score, benefit
}

// partition specialises every member by substituting want for the branch
// expression named by targetText, re-optimizing, and classifying the
// result: dropped (collapsed to Constant(false)), matched
// (collapsed to Constant(true)), or kept as a residual member with its
// specialised AST.
func partition(members []Member, targetText string, want bool) ([]Member, []uuid.UUID) {
	var residual []Member
	var matched []uuid.UUID
	for _, m := range members {
		specialised := lang.Optimize(lang.Substitute(m.AST, targetText, want))
		if v, ok := lang.AsConstantBool(specialised); ok {
			if v {
				matched = append(matched, m.ID)
			}
			continue
		}
		residual = append(residual, Member{ID: m.ID, AST: specialised})
	}
	return residual, matched
}

// Evaluate descends the tree against doc, evaluating each branch once via
// ctx's shared subexpression cache, and returns the matching member IDs:
// the unconditional matches of every node on the path, then the residuals
// of the leaf it arrives at that evaluate true.
func Evaluate(t *Tree, ctx *lang.EvalContext) []uuid.UUID {
	var out []uuid.UUID
	cur := t
	for !cur.isLeaf() {
		out = append(out, cur.Matched...)
		if lang.Evaluate(cur.Branch, ctx) {
			cur = cur.True
		} else {
			cur = cur.False
		}
	}

	out = append(out, cur.Matched...)
	for _, m := range cur.Residual {
		if lang.Evaluate(m.AST, ctx) {
			out = append(out, m.ID)
		}
	}
	return out
}

// Finalize walks the tree so the caller can assert a successful compile
// completed; Tree carries no construction-only bookkeeping beyond what
// evaluation itself needs, so there is nothing left to prune once build
// returns. It is kept as a distinct step (rather than folded into Compile)
// because spec.md §6 names finalize() as a separate, optional, idempotent
// pass, and a future tuning change that adds scratch fields to Tree should
// free them here.
func Finalize(t *Tree) {
	if t == nil || t.isLeaf() {
		return
	}
	Finalize(t.True)
	Finalize(t.False)
}

