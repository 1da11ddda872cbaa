package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidPredicate(t *testing.T) {
	p := New(`status = "active" and retries < 3`)
	require.True(t, p.IsValid())
	assert.Empty(t, p.Errors())
	assert.NotEqual(t, "", p.ID().String())
}

func TestNewInvalidPredicateCollectsDiagnostics(t *testing.T) {
	p := New(`status = `)
	require.False(t, p.IsValid())
	assert.NotEmpty(t, p.Errors())
}

func TestEvaluateInvalidPredicatePanics(t *testing.T) {
	p := New(`status = `)
	require.False(t, p.IsValid())
	assert.PanicsWithValue(t, ErrInvalidPredicate, func() {
		p.Evaluate(Document{"status": "active"})
	})
}

func TestAnalyzeInvalidPredicatePanics(t *testing.T) {
	p := New(`status = `)
	require.False(t, p.IsValid())
	assert.PanicsWithValue(t, ErrInvalidPredicate, func() {
		p.Analyze(Document{"status": "active"})
	})
}

func TestEvaluateTrue(t *testing.T) {
	p := New(`status = "active"`)
	require.True(t, p.IsValid())
	assert.True(t, p.Evaluate(Document{"status": "active"}))
	assert.False(t, p.Evaluate(Document{"status": "inactive"}))
}

func TestAnalyzeExposesFailureTrail(t *testing.T) {
	p := New(`status = "active" and retries < 3`)
	require.True(t, p.IsValid())

	matched, ctx := p.Analyze(Document{"status": "inactive", "retries": 1.0})
	assert.False(t, matched)
	assert.NotEmpty(t, ctx.Failed)

	matched, ctx = p.Analyze(Document{"status": "active", "retries": 1.0})
	assert.True(t, matched)
	assert.Empty(t, ctx.Failed)
}

func TestDescriptionRendersTreeForValidPredicate(t *testing.T) {
	p := New(`status = "active"`)
	desc := p.Description()
	assert.Contains(t, desc, "EqualsOperator")
}

func TestDescriptionInvalidPredicatePanics(t *testing.T) {
	p := New(`status = `)
	require.False(t, p.IsValid())
	assert.PanicsWithValue(t, ErrInvalidPredicate, func() {
		p.Description()
	})
}

func TestSetResolverOverridesIdentifierLookup(t *testing.T) {
	p := New(`region = "eu"`)
	require.True(t, p.IsValid())

	p.SetResolver(ResolverFunc(func(name string, doc Document) (Value, bool) {
		if name == "region" {
			return String("eu"), true
		}
		return Value{}, false
	}))

	assert.True(t, p.Evaluate(Document{}))
}

func TestWithResolverOptionAppliesAtConstruction(t *testing.T) {
	p := New(`region = "eu"`, WithResolver(ResolverFunc(func(name string, doc Document) (Value, bool) {
		return String("eu"), true
	})))
	assert.True(t, p.Evaluate(Document{}))
}

func TestSourceReturnsOriginalText(t *testing.T) {
	p := New(`status = "active"`)
	assert.Equal(t, `status = "active"`, p.Source())
}
