package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWildcardMatcher(t *testing.T) {
	tests := []struct {
		pattern   string
		candidate string
		want      bool
	}{
		{"a.d", "abd", true},
		{"a.d", "abc", false},
		{"a.d", "xxaZdyy", true},
		{"a.d", "ad", false},
		{"Melting point", "Melting point", true},
		{"point", "Melting point", true},
		{"Melting.point", "Melting_point", true},
		{"(g/cm3)", "Density (g/cm3)", true},
		{"a+b", "aab", false},
		{"a+b", "a+b", true},
		{"", "anything", true},
	}

	m := &WildcardMatcher{}
	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.candidate, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Matches(tt.pattern, tt.candidate))
		})
	}
}

func TestSubstringMatcher(t *testing.T) {
	m := SubstringMatcher{}

	assert.True(t, m.Matches("Melting", "Melting point"))
	assert.False(t, m.Matches("a.d", "abd"))
	assert.False(t, m.Matches("melting", "Melting point"))
}

func TestJaroWinklerMatcher(t *testing.T) {
	m := JaroWinklerMatcher{Threshold: DefaultJaroWinklerThreshold}

	assert.True(t, m.Matches("Melting point", "Melting_point"))
	assert.True(t, m.Matches("point", "Melting point"))
	assert.False(t, m.Matches("Density", "Melting point"))
}

func TestIgnoreCase(t *testing.T) {
	m := IgnoreCase(SubstringMatcher{})

	assert.True(t, m.Matches("MELTING", "melting point"))
}

func TestNewMatcher(t *testing.T) {
	for _, name := range []string{"", MatcherWildcard, MatcherSubstring, MatcherJaroWinkler, "Wildcard"} {
		m, err := NewMatcher(name, false)
		require.NoError(t, err, name)
		assert.True(t, m.Matches("Melting", "Melting point"), name)
	}

	_, err := NewMatcher("levenshtein", false)
	assert.Error(t, err)
}
