package pipeline

import (
	"sync"

	"github.com/ppiankov/fourmi/internal/model"
)

// signature identifies a fact independent of where it came from
type signature struct {
	attribute  string
	value      string
	conditions string
}

// Duplicate drops results whose (attribute, value, conditions) was
// already accepted during this run. Source and reliability are not part
// of the signature, so one fact reported by two sites is a duplicate.
type Duplicate struct {
	mu   sync.Mutex
	seen map[signature]struct{}
	opts options
}

// NewDuplicate creates a Duplicate stage with an empty seen-set
func NewDuplicate(opts ...Option) *Duplicate {
	return &Duplicate{
		seen: make(map[signature]struct{}),
		opts: newOptions(opts),
	}
}

// Name returns the stage name
func (s *Duplicate) Name() string {
	return StageDuplicate
}

// Process drops the result if its signature was seen before, otherwise
// records the signature and returns the result unchanged.
func (s *Duplicate) Process(r *model.Result) (*model.Result, error) {
	if err := ensureComplete(StageDuplicate, r, s.opts); err != nil {
		return nil, err
	}

	sig := signature{
		attribute:  *r.Attribute,
		value:      *r.Value,
		conditions: *r.Conditions,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[sig]; ok {
		return nil, drop(StageDuplicate, "duplicate %q = %q", sig.attribute, sig.value)
	}
	s.seen[sig] = struct{}{}
	return r, nil
}

// Len returns the number of distinct signatures seen
func (s *Duplicate) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Reset forgets every seen signature
func (s *Duplicate) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[signature]struct{})
}
