package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestMatches(t *testing.T) {
	cases := []struct {
		name      string
		candidate string
		pattern   string
		want      bool
	}{
		{"empty pattern is wildcard", "Templado", "", true},
		{"blank pattern is wildcard", "Templado", "   ", true},
		{"equal", "Templado", "Templado", true},
		{"case insensitive", "TEMPLADO", "templado", true},
		{"trims candidate", " Laminado ", "laminado", true},
		{"different value", "Laminado", "Templado", false},
		{"no substring match", "Templado extra", "Templado", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Matches(tc.candidate, tc.pattern))
		})
	}
}

func TestInRangeInclusiveBounds(t *testing.T) {
	min, max := ptr(10), ptr(20)

	assert.True(t, InRange(10, min, max))
	assert.True(t, InRange(20, min, max))
	assert.True(t, InRange(15, min, max))
	assert.False(t, InRange(9, min, max))
	assert.False(t, InRange(21, min, max))
}

func TestInRangeMissingBoundIsUnbounded(t *testing.T) {
	assert.True(t, InRange(1000, ptr(10), nil))
	assert.False(t, InRange(5, ptr(10), nil))
	assert.True(t, InRange(-3, nil, ptr(20)))
	assert.True(t, InRange(42, nil, nil))
}

type pane struct {
	family    string
	thickness float64
}

func TestAllWildcardRuleMatchesEveryCandidate(t *testing.T) {
	rule := All(
		Field(func(p pane) string { return p.family }, ""),
		Range(func(p pane) float64 { return p.thickness }, nil, nil),
	)

	for _, p := range []pane{{"Templado", 4}, {"Laminado", 33}, {"", 0}} {
		assert.True(t, rule(p), "%+v", p)
	}
}

func TestAllRequiresEveryField(t *testing.T) {
	rule := All(
		Field(func(p pane) string { return p.family }, "templado"),
		Range(func(p pane) float64 { return p.thickness }, ptr(10), ptr(20)),
	)

	assert.True(t, rule(pane{"Templado", 10}))
	assert.False(t, rule(pane{"Templado", 21}))
	assert.False(t, rule(pane{"Laminado", 12}))
}

func TestFilterKeepsOrderAndAllMatches(t *testing.T) {
	in := []pane{{"A", 1}, {"B", 2}, {"A", 3}}
	got := Filter(in, Field(func(p pane) string { return p.family }, "a"))
	assert.Equal(t, []pane{{"A", 1}, {"A", 3}}, got)
}
