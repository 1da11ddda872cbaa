package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOK(t *testing.T, source string) Node {
	t.Helper()
	root, diags := Parse(source)
	require.Empty(t, diags, "unexpected diagnostics for %q: %v", source, diags)
	require.NotNil(t, root)
	return root
}

func TestEvaluateSimpleComparison(t *testing.T) {
	root := parseOK(t, `status = "active"`)
	ctx := NewEvalContext(Document{"status": "active"}, nil)
	assert.True(t, Evaluate(root, ctx))
	assert.Empty(t, ctx.Failed)

	ctx2 := NewEvalContext(Document{"status": "inactive"}, nil)
	assert.False(t, Evaluate(root, ctx2))
	assert.NotEmpty(t, ctx2.Failed)
}

func TestEvaluateAndShortCircuitsOnLeftFailure(t *testing.T) {
	root := parseOK(t, `a = 1 and b = 2`)
	ctx := NewEvalContext(Document{"a": 9, "b": 2}, nil)
	assert.False(t, Evaluate(root, ctx))
	require.Len(t, ctx.Failed, 1)
	assert.Contains(t, ctx.Failed[0], "EqualsOperator")
}

func TestEvaluateOrAggregatesReasonsWhenBothFalse(t *testing.T) {
	root := parseOK(t, `a = 1 or b = 2`)
	ctx := NewEvalContext(Document{"a": 9, "b": 9}, nil)
	assert.False(t, Evaluate(root, ctx))
	assert.Len(t, ctx.Failed, 2)
}

func TestEvaluateOrTrueHasEmptyFailureTrail(t *testing.T) {
	root := parseOK(t, `a = 1 or b = 2`)
	ctx := NewEvalContext(Document{"a": 9, "b": 2}, nil)
	assert.True(t, Evaluate(root, ctx))
	assert.Empty(t, ctx.Failed)
}

// A predicate's failure trail must be empty exactly when it evaluates true,
// across And, Or, and Negate combinators.
func TestFailureTrailEmptyIffTrue(t *testing.T) {
	cases := []string{
		`a = 1 and b = 2`,
		`a = 1 or b = 2`,
		`not (a = 1)`,
		`(a = 1 and b = 2) or c = 3`,
	}
	docs := []Document{
		{"a": 1, "b": 2, "c": 3},
		{"a": 9, "b": 9, "c": 9},
		{"a": 1, "b": 2, "c": 9},
	}
	for _, src := range cases {
		root := parseOK(t, src)
		for _, doc := range docs {
			ctx := NewEvalContext(doc, nil)
			result := Evaluate(root, ctx)
			if result {
				assert.Emptyf(t, ctx.Failed, "%q against %v should have empty trail when true", src, doc)
			} else {
				assert.NotEmptyf(t, ctx.Failed, "%q against %v should have a trail when false", src, doc)
			}
		}
	}
}

func TestEvaluateNegate(t *testing.T) {
	root := parseOK(t, `not (status = "active")`)
	ctx := NewEvalContext(Document{"status": "active"}, nil)
	assert.False(t, Evaluate(root, ctx))

	ctx2 := NewEvalContext(Document{"status": "inactive"}, nil)
	assert.True(t, Evaluate(root, ctx2))
}

func TestContainsLiteralSetFastPath(t *testing.T) {
	root := parseOK(t, `{"WARN", "ERR", "CRIT"} contains level`)
	containsNode, ok := root.(*ContainsNode)
	require.True(t, ok)
	_, ok = containsNode.Container.(*LiteralSetNode)
	require.True(t, ok)

	ctx := NewEvalContext(Document{"level": "ERR"}, nil)
	assert.True(t, Evaluate(root, ctx))

	ctx2 := NewEvalContext(Document{"level": "INFO"}, nil)
	assert.False(t, Evaluate(root, ctx2))
}

func TestContainsSequence(t *testing.T) {
	root := parseOK(t, `tags contains "prod"`)
	ctx := NewEvalContext(Document{"tags": []any{"staging", "prod"}}, nil)
	assert.True(t, Evaluate(root, ctx))
}

func TestContainsString(t *testing.T) {
	root := parseOK(t, `message contains "CPU load"`)
	ctx := NewEvalContext(Document{"message": "alert: CPU load high"}, nil)
	assert.True(t, Evaluate(root, ctx))

	ctx2 := NewEvalContext(Document{"message": "all clear"}, nil)
	assert.False(t, Evaluate(root, ctx2))
}

func TestMatchesRegex(t *testing.T) {
	root := parseOK(t, `name matches /^server-\d+$/`)
	ctx := NewEvalContext(Document{"name": "server-42"}, nil)
	assert.True(t, Evaluate(root, ctx))

	ctx2 := NewEvalContext(Document{"name": "server-x"}, nil)
	assert.False(t, Evaluate(root, ctx2))
}

func TestIsOperatorDistinguishesNullEmptyFalse(t *testing.T) {
	root := parseOK(t, `v is null`)
	assert.True(t, Evaluate(root, NewEvalContext(Document{"v": nil}, nil)))
	assert.False(t, Evaluate(root, NewEvalContext(Document{"v": ""}, nil)))
	assert.False(t, Evaluate(root, NewEvalContext(Document{"v": false}, nil)))
}

func TestUndefinedComparisonIsAlwaysFalse(t *testing.T) {
	root := parseOK(t, `missing_field = "x"`)
	ctx := NewEvalContext(Document{}, nil)
	assert.False(t, Evaluate(root, ctx))
	require.Len(t, ctx.Failed, 1)
	assert.Contains(t, ctx.Failed[0], "Undefined")
}

func TestUndefinedIsOperatorCanBeTrue(t *testing.T) {
	root := parseOK(t, `missing_field is undefined`)
	ctx := NewEvalContext(Document{}, nil)
	assert.True(t, Evaluate(root, ctx))
}

func TestSubexpressionCacheIsSharedAcrossReferences(t *testing.T) {
	root := parseOK(t, `(a = 1) and (a = 1)`)
	calls := 0
	counting := ResolverFunc(func(name string, doc Document) (Value, bool) {
		calls++
		return Number(1), true
	})
	ctx := NewEvalContext(Document{}, counting)
	assert.True(t, Evaluate(root, ctx))
	assert.Equal(t, 1, calls, "identical subexpressions should be evaluated once per EvalContext")
}

func TestOrderingComparisonsOnStrings(t *testing.T) {
	root := parseOK(t, `name < "m"`)
	assert.True(t, Evaluate(root, NewEvalContext(Document{"name": "apple"}, nil)))
	assert.False(t, Evaluate(root, NewEvalContext(Document{"name": "zebra"}, nil)))
}

func TestNonOrderableComparisonIsFalse(t *testing.T) {
	root := parseOK(t, `a < b`)
	ctx := NewEvalContext(Document{"a": 1, "b": "x"}, nil)
	assert.False(t, Evaluate(root, ctx))
}
