package pipeline

import (
	"github.com/ppiankov/fourmi/internal/model"
)

// AttributeSelection keeps only results whose attribute matches one of
// the configured patterns. No patterns means no filtering.
type AttributeSelection struct {
	patterns []string
	opts     options
}

// NewAttributeSelection creates an AttributeSelection stage
func NewAttributeSelection(patterns []string, opts ...Option) *AttributeSelection {
	return &AttributeSelection{
		patterns: append([]string(nil), patterns...),
		opts:     newOptions(opts),
	}
}

// Name returns the stage name
func (s *AttributeSelection) Name() string {
	return StageAttributeSelection
}

// Patterns returns a copy of the configured patterns
func (s *AttributeSelection) Patterns() []string {
	return append([]string(nil), s.patterns...)
}

// Process applies the configured patterns
func (s *AttributeSelection) Process(r *model.Result) (*model.Result, error) {
	return s.Select(r, s.patterns)
}

// Select returns r if its attribute matches any of patterns, tried in
// order, or a drop if none matches. Empty patterns pass everything.
func (s *AttributeSelection) Select(r *model.Result, patterns []string) (*model.Result, error) {
	if len(patterns) == 0 {
		return r, nil
	}
	if err := ensureComplete(StageAttributeSelection, r, s.opts); err != nil {
		return nil, err
	}

	attribute := *r.Attribute
	for _, pattern := range patterns {
		if s.opts.matcher.Matches(pattern, attribute) {
			return r, nil
		}
	}
	return nil, drop(StageAttributeSelection, "attribute %q not selected", attribute)
}
