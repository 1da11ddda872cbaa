package optimizedset

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparrowhq/predicate/internal/lang"
	"github.com/sparrowhq/predicate/internal/tuning"
)

func parseOptimized(t *testing.T, source string) lang.Node {
	t.Helper()
	ast, diags := lang.Parse(source)
	require.Empty(t, diags, "source: %s", source)
	return lang.Optimize(ast)
}

func newMember(t *testing.T, source string) Member {
	t.Helper()
	return Member{ID: uuid.New(), AST: parseOptimized(t, source)}
}

func TestCompileSharesABranchAcrossMembers(t *testing.T) {
	m1 := newMember(t, `status = "active" and retries < 3`)
	m2 := newMember(t, `status = "active" and retries > 10`)
	m3 := newMember(t, `status = "closed"`)

	cfg := tuning.Config{MinCount: 2, MaxDepth: 4, MinBenefit: 0, CostWeights: tuning.Default().CostWeights}
	tree := Compile([]Member{m1, m2, m3}, cfg)

	require.NotNil(t, tree)
	assert.NotNil(t, tree.Branch, "expected a shared subexpression to be hoisted into a branch")
}

func TestEvaluateMatchesCorrectMembersAcrossBranches(t *testing.T) {
	m1 := newMember(t, `status = "active" and retries < 3`)
	m2 := newMember(t, `status = "active" and retries > 10`)
	m3 := newMember(t, `status = "closed"`)

	cfg := tuning.Config{MinCount: 2, MaxDepth: 4, MinBenefit: 0, CostWeights: tuning.Default().CostWeights}
	tree := Compile([]Member{m1, m2, m3}, cfg)

	doc := lang.Document{"status": "active", "retries": 1.0}
	ctx := lang.NewEvalContext(doc, nil)
	matched := Evaluate(tree, ctx)

	ids := toSet(matched)
	assert.True(t, ids[m1.ID])
	assert.False(t, ids[m2.ID])
	assert.False(t, ids[m3.ID])
}

func TestEvaluateHandlesUnconditionalMatchAfterPartition(t *testing.T) {
	m1 := newMember(t, `status = "active"`)
	m2 := newMember(t, `status = "active" or status = "pending"`)

	cfg := tuning.Config{MinCount: 2, MaxDepth: 4, MinBenefit: 0, CostWeights: tuning.Default().CostWeights}
	tree := Compile([]Member{m1, m2}, cfg)

	doc := lang.Document{"status": "active"}
	ctx := lang.NewEvalContext(doc, nil)
	matched := Evaluate(tree, ctx)

	ids := toSet(matched)
	assert.True(t, ids[m1.ID])
	assert.True(t, ids[m2.ID])
}

func TestCompileWithNoSharedSubexpressionsYieldsALeaf(t *testing.T) {
	m1 := newMember(t, `status = "active"`)
	m2 := newMember(t, `region = "eu"`)

	tree := Compile([]Member{m1, m2}, tuning.Default())
	assert.Nil(t, tree.Branch)
	assert.Len(t, tree.Residual, 2)
}

func TestCompileRespectsMaxDepth(t *testing.T) {
	members := []Member{
		newMember(t, `a = 1 and b = 1 and c = 1`),
		newMember(t, `a = 1 and b = 1 and c = 2`),
		newMember(t, `a = 1 and b = 2 and c = 3`),
	}

	cfg := tuning.Config{MinCount: 2, MaxDepth: 1, MinBenefit: 0, CostWeights: tuning.Default().CostWeights}
	tree := Compile(members, cfg)

	require.NotNil(t, tree)
	if tree.Branch != nil {
		assert.Nil(t, tree.True.Branch)
		assert.Nil(t, tree.False.Branch)
	}
}

func TestDescribeRendersBranchAndLeafLines(t *testing.T) {
	m1 := newMember(t, `status = "active" and retries < 3`)
	m2 := newMember(t, `status = "active" and retries > 10`)

	cfg := tuning.Config{MinCount: 2, MaxDepth: 4, MinBenefit: 0, CostWeights: tuning.Default().CostWeights}
	tree := Compile([]Member{m1, m2}, cfg)

	desc := Describe(tree)
	assert.NotEmpty(t, desc)
}

func TestFinalizeIsIdempotent(t *testing.T) {
	m1 := newMember(t, `status = "active" and retries < 3`)
	m2 := newMember(t, `status = "active" and retries > 10`)

	cfg := tuning.Config{MinCount: 2, MaxDepth: 4, MinBenefit: 0, CostWeights: tuning.Default().CostWeights}
	tree := Compile([]Member{m1, m2}, cfg)

	assert.NotPanics(t, func() {
		Finalize(tree)
		Finalize(tree)
	})
}

func toSet(ids []uuid.UUID) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
