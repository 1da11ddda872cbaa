package optimizedset

import (
	"fmt"
	"strings"
)

// Describe renders the tree in the same indented-line idiom as a single
// predicate's AST (spec.md §6): one line per node, four-space indent per
// depth. Branch nodes render as "Branch: <expression text>"; leaves render
// their matched and residual member counts.
func Describe(t *Tree) string {
	var b strings.Builder
	describeNode(t, 0, &b)
	return b.String()
}

func describeNode(t *Tree, depth int, b *strings.Builder) {
	if t == nil {
		return
	}
	indent := strings.Repeat("    ", depth)
	if t.isLeaf() {
		fmt.Fprintf(b, "%sLeaf: %d matched, %d residual\n", indent, len(t.Matched), len(t.Residual))
		return
	}
	fmt.Fprintf(b, "%sBranch: %s\n", indent, t.Branch.Text())
	fmt.Fprintf(b, "%s  true ->\n", indent)
	describeNode(t.True, depth+2, b)
	fmt.Fprintf(b, "%s  false ->\n", indent)
	describeNode(t.False, depth+2, b)
}
