package pipeline

import (
	"errors"
	"fmt"

	"github.com/ppiankov/fourmi/internal/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Stage is one step of the item pipeline. It returns the (possibly
// modified) result for the next stage, or an error. A *DropError means
// the result was deliberately excluded.
type Stage interface {
	Name() string
	Process(r *model.Result) (*model.Result, error)
}

// ErrMalformed marks a result that is missing fields when it reaches a
// stage that compares field values.
var ErrMalformed = eris.New("malformed result")

// DropError signals that a stage excluded a result. It is an expected
// outcome, not a failure.
type DropError struct {
	Stage  string
	Reason string
}

func (e *DropError) Error() string {
	return fmt.Sprintf("%s: dropped: %s", e.Stage, e.Reason)
}

// IsDrop reports whether err is (or wraps) a *DropError
func IsDrop(err error) bool {
	var drop *DropError
	return errors.As(err, &drop)
}

func drop(stage string, format string, args ...any) error {
	return &DropError{Stage: stage, Reason: fmt.Sprintf(format, args...)}
}

// Option configures a stage or runner
type Option func(*options)

type options struct {
	logger  *zap.Logger
	strict  bool
	matcher Matcher
}

func newOptions(opts []Option) options {
	o := options{
		logger:  zap.L(),
		matcher: &WildcardMatcher{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStrict makes comparing stages reject results with absent fields
// instead of coercing them to empty strings.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithMatcher sets the attribute matcher used by AttributeSelection
func WithMatcher(m Matcher) Option {
	return func(o *options) {
		if m != nil {
			o.matcher = m
		}
	}
}

// ensureComplete enforces the fixed-field invariant for stages that
// compare values. Strict mode fails; otherwise absent fields are filled.
func ensureComplete(stage string, r *model.Result, o options) error {
	if r == nil {
		return eris.Wrapf(ErrMalformed, "%s: nil result", stage)
	}
	missing := r.Missing()
	if len(missing) == 0 {
		return nil
	}
	if o.strict {
		return eris.Wrapf(ErrMalformed, "%s: missing fields %v", stage, missing)
	}
	o.logger.Warn("result reached stage with absent fields",
		zap.String("stage", stage),
		zap.Any("missing", missing),
	)
	fillAbsent(r)
	return nil
}
