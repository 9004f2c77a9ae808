package pipeline

import (
	"github.com/ppiankov/fourmi/internal/model"
	"github.com/rotisserie/eris"
)

// RemoveNone replaces absent fields with the empty string. It never drops.
type RemoveNone struct{}

// NewRemoveNone creates a RemoveNone stage
func NewRemoveNone() *RemoveNone {
	return &RemoveNone{}
}

// Name returns the stage name
func (s *RemoveNone) Name() string {
	return StageRemoveNone
}

// Process fills absent fields. Fields already holding a value, including
// an explicit empty string, are left untouched.
func (s *RemoveNone) Process(r *model.Result) (*model.Result, error) {
	if r == nil {
		return nil, eris.Wrapf(ErrMalformed, "%s: nil result", StageRemoveNone)
	}
	fillAbsent(r)
	return r, nil
}

func fillAbsent(r *model.Result) {
	for _, f := range model.Fields {
		if ref := r.Ref(f); *ref == nil {
			*ref = model.String("")
		}
	}
}
