package pipeline

import (
	"regexp"
	"strings"
	"sync"

	"github.com/antzucaro/matchr"
	"github.com/rotisserie/eris"
)

// Matcher decides whether an attribute name matches a selection pattern
type Matcher interface {
	Matches(pattern, candidate string) bool
}

// MatcherFunc adapts a function to the Matcher interface
type MatcherFunc func(pattern, candidate string) bool

// Matches calls f
func (f MatcherFunc) Matches(pattern, candidate string) bool {
	return f(pattern, candidate)
}

// Matcher names accepted by NewMatcher
const (
	MatcherWildcard    = "wildcard"
	MatcherSubstring   = "substring"
	MatcherJaroWinkler = "jarowinkler"
)

// DefaultJaroWinklerThreshold is the minimum similarity for a fuzzy match
const DefaultJaroWinklerThreshold = 0.85

// NewMatcher returns the matcher registered under name. An empty name
// selects the wildcard matcher.
func NewMatcher(name string, ignoreCase bool) (Matcher, error) {
	var m Matcher
	switch strings.ToLower(name) {
	case "", MatcherWildcard:
		m = &WildcardMatcher{}
	case MatcherSubstring:
		m = SubstringMatcher{}
	case MatcherJaroWinkler:
		m = JaroWinklerMatcher{Threshold: DefaultJaroWinklerThreshold}
	default:
		return nil, eris.Errorf("pipeline: unknown matcher %q", name)
	}
	if ignoreCase {
		m = IgnoreCase(m)
	}
	return m, nil
}

// SubstringMatcher matches when the pattern occurs verbatim in the candidate
type SubstringMatcher struct{}

// Matches reports whether pattern is a substring of candidate
func (SubstringMatcher) Matches(pattern, candidate string) bool {
	return strings.Contains(candidate, pattern)
}

// WildcardMatcher treats '.' as exactly one arbitrary character and every
// other character literally. The pattern may match anywhere in the
// candidate. Compiled patterns are cached.
type WildcardMatcher struct {
	mu       sync.Mutex
	compiled map[string]*regexp.Regexp
}

// Matches reports whether the wildcard pattern occurs in candidate
func (m *WildcardMatcher) Matches(pattern, candidate string) bool {
	return m.regexp(pattern).MatchString(candidate)
}

func (m *WildcardMatcher) regexp(pattern string) *regexp.Regexp {
	m.mu.Lock()
	defer m.mu.Unlock()

	if re, ok := m.compiled[pattern]; ok {
		return re
	}
	if m.compiled == nil {
		m.compiled = make(map[string]*regexp.Regexp)
	}

	parts := strings.Split(pattern, ".")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	// (?s) lets the wildcard match newlines too
	re := regexp.MustCompile("(?s)" + strings.Join(parts, "."))
	m.compiled[pattern] = re
	return re
}

// JaroWinklerMatcher accepts substrings and near-miss spellings
// ("Melting point" vs "Melting_point") whose Jaro-Winkler similarity
// reaches Threshold.
type JaroWinklerMatcher struct {
	Threshold float64
}

// Matches reports whether candidate contains pattern or is similar enough
func (m JaroWinklerMatcher) Matches(pattern, candidate string) bool {
	if strings.Contains(candidate, pattern) {
		return true
	}
	threshold := m.Threshold
	if threshold <= 0 {
		threshold = DefaultJaroWinklerThreshold
	}
	return matchr.JaroWinkler(pattern, candidate, false) >= threshold
}

// IgnoreCase wraps a matcher so that it compares lower-cased strings
func IgnoreCase(m Matcher) Matcher {
	return MatcherFunc(func(pattern, candidate string) bool {
		return m.Matches(strings.ToLower(pattern), strings.ToLower(candidate))
	})
}
