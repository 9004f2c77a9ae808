package pipeline

import (
	"sync"

	"github.com/google/uuid"
	"github.com/ppiankov/fourmi/internal/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Stage names used in configuration
const (
	StageRemoveNone         = "remove_none"
	StageDuplicate          = "duplicate"
	StageAttributeSelection = "attribute_selection"
)

// DefaultStages is the default stage order
var DefaultStages = []string{StageRemoveNone, StageDuplicate, StageAttributeSelection}

// Stats counts what happened to the results seen by a Runner
type Stats struct {
	In      int `json:"in"`
	Kept    int `json:"kept"`
	Dropped int `json:"dropped"`
	Failed  int `json:"failed"`
}

// Runner applies an ordered chain of stages to each result. A Runner and
// its stages belong to one crawl run; results are processed one at a time.
type Runner struct {
	mu     sync.Mutex
	id     string
	stages []Stage
	stats  Stats
	logger *zap.Logger
}

// NewRunner creates a runner with the given stages, applied in order
func NewRunner(stages []Stage, opts ...Option) *Runner {
	o := newOptions(opts)
	id := uuid.NewString()
	return &Runner{
		id:     id,
		stages: stages,
		logger: o.logger.With(zap.String("run_id", id)),
	}
}

// Build creates a runner from configuration. Stage names are resolved in
// the configured order; an empty list uses DefaultStages.
func Build(cfg model.PipelineConfig, opts ...Option) (*Runner, error) {
	matcher, err := NewMatcher(cfg.Matcher, cfg.IgnoreCase)
	if err != nil {
		return nil, err
	}

	stageOpts := append([]Option{WithStrict(cfg.Strict), WithMatcher(matcher)}, opts...)

	names := cfg.Stages
	if len(names) == 0 {
		names = DefaultStages
	}

	stages := make([]Stage, 0, len(names))
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			return nil, eris.Errorf("pipeline: stage %q listed twice", name)
		}
		seen[name] = true

		switch name {
		case StageRemoveNone:
			stages = append(stages, NewRemoveNone())
		case StageDuplicate:
			stages = append(stages, NewDuplicate(stageOpts...))
		case StageAttributeSelection:
			stages = append(stages, NewAttributeSelection(cfg.SelectedAttributes, stageOpts...))
		default:
			return nil, eris.Errorf("pipeline: unknown stage %q", name)
		}
	}

	return NewRunner(stages, opts...), nil
}

// ID returns the run identifier
func (r *Runner) ID() string {
	return r.id
}

// Stages returns the stage names in order
func (r *Runner) Stages() []string {
	names := make([]string, len(r.stages))
	for i, s := range r.stages {
		names[i] = s.Name()
	}
	return names
}

// Process runs one result through the chain. It returns the surviving
// result and true, or false if a stage dropped it. A non-nil error means
// a stage failed or res was nil; the result is discarded either way.
func (r *Runner) Process(res *model.Result) (*model.Result, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.In++
	if res == nil {
		r.stats.Failed++
		return nil, false, eris.Wrap(ErrMalformed, "pipeline: nil result")
	}
	cur := res
	for _, stage := range r.stages {
		next, err := stage.Process(cur)
		if err != nil {
			if IsDrop(err) {
				r.stats.Dropped++
				r.logger.Debug("result dropped",
					zap.String("stage", stage.Name()),
					zap.String("reason", err.Error()),
				)
				return nil, false, nil
			}
			r.stats.Failed++
			return nil, false, eris.Wrapf(err, "pipeline: stage %s", stage.Name())
		}
		cur = next
	}
	r.stats.Kept++
	return cur, true, nil
}

// Run processes results in order and returns the survivors in the same
// order. Stage failures are logged and only affect the failing result.
func (r *Runner) Run(results []*model.Result) []*model.Result {
	kept := make([]*model.Result, 0, len(results))
	for _, res := range results {
		out, ok, err := r.Process(res)
		if err != nil {
			r.logger.Error("result processing failed", zap.Error(err))
			continue
		}
		if ok {
			kept = append(kept, out)
		}
	}
	return kept
}

// Stats returns a snapshot of the counters
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
