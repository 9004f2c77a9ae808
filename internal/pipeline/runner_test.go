package pipeline

import (
	"testing"

	"github.com/ppiankov/fourmi/internal/model"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingStage remembers every result it saw
type recordingStage struct {
	seen []*model.Result
}

func (s *recordingStage) Name() string { return "recording" }

func (s *recordingStage) Process(r *model.Result) (*model.Result, error) {
	s.seen = append(s.seen, r)
	return r, nil
}

type failingStage struct{}

func (failingStage) Name() string { return "failing" }

func (failingStage) Process(r *model.Result) (*model.Result, error) {
	if r.Get(model.FieldAttribute) == "boom" {
		return nil, eris.New("boom")
	}
	return r, nil
}

func TestBuild_DefaultOrder(t *testing.T) {
	runner, err := Build(model.PipelineConfig{}, WithLogger(zap.NewNop()))
	require.NoError(t, err)

	assert.Equal(t, DefaultStages, runner.Stages())
	assert.NotEmpty(t, runner.ID())
}

func TestBuild_ConfiguredOrder(t *testing.T) {
	runner, err := Build(model.PipelineConfig{
		Stages: []string{StageAttributeSelection, StageRemoveNone},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{StageAttributeSelection, StageRemoveNone}, runner.Stages())
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(model.PipelineConfig{Stages: []string{"nope"}})
	assert.Error(t, err)

	_, err = Build(model.PipelineConfig{Stages: []string{StageDuplicate, StageDuplicate}})
	assert.Error(t, err)

	_, err = Build(model.PipelineConfig{Matcher: "nope"})
	assert.Error(t, err)
}

func TestBuild_RunsAreIndependent(t *testing.T) {
	a, err := Build(model.PipelineConfig{})
	require.NoError(t, err)
	b, err := Build(model.PipelineConfig{})
	require.NoError(t, err)

	r := model.NewResult("Density", "1", "Wikipedia")
	_, ok, err := a.Process(r.Clone())
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = b.Process(r.Clone())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestRunner_EndToEnd(t *testing.T) {
	runner, err := Build(model.PipelineConfig{SelectedAttributes: []string{"Melting"}})
	require.NoError(t, err)

	wiki := model.NewResult("Melting point", "100C", "Wikipedia")
	pubchem := model.NewResult("Melting point", "100C", "PubChem")
	density := model.NewResult("Density", "1 g/cm3", "PubChem")

	kept := runner.Run([]*model.Result{wiki, pubchem, density})

	require.Len(t, kept, 1)
	assert.Equal(t, "Wikipedia", kept[0].Get(model.FieldSource))
	assert.Empty(t, kept[0].Missing())
	assert.Equal(t, Stats{In: 3, Kept: 1, Dropped: 2}, runner.Stats())
}

func TestRunner_PreservesOrder(t *testing.T) {
	runner, err := Build(model.PipelineConfig{})
	require.NoError(t, err)

	in := []*model.Result{
		model.NewResult("a", "1", "x"),
		model.NewResult("b", "1", "x"),
		model.NewResult("a", "1", "y"),
		model.NewResult("c", "1", "x"),
	}
	kept := runner.Run(in)

	require.Len(t, kept, 3)
	assert.Equal(t, "a", kept[0].Get(model.FieldAttribute))
	assert.Equal(t, "b", kept[1].Get(model.FieldAttribute))
	assert.Equal(t, "c", kept[2].Get(model.FieldAttribute))
}

func TestRunner_DropShortCircuits(t *testing.T) {
	rec := &recordingStage{}
	runner := NewRunner([]Stage{NewAttributeSelection([]string{"Melting"}), rec})

	_, ok, err := runner.Process(model.NewResult("Density", "1", "x"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rec.seen)

	_, ok, err = runner.Process(model.NewResult("Melting point", "1", "x"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, rec.seen, 1)
}

func TestRunner_FailureIsLocal(t *testing.T) {
	runner := NewRunner([]Stage{failingStage{}}, WithLogger(zap.NewNop()))

	_, ok, err := runner.Process(model.NewResult("boom", "", ""))
	require.Error(t, err)
	assert.False(t, ok)
	assert.False(t, IsDrop(err))

	kept := runner.Run([]*model.Result{
		model.NewResult("boom", "", ""),
		model.NewResult("fine", "", ""),
	})
	require.Len(t, kept, 1)
	assert.Equal(t, "fine", kept[0].Get(model.FieldAttribute))
	assert.Equal(t, 2, runner.Stats().Failed)
}

func TestRunner_StrictMalformed(t *testing.T) {
	runner, err := Build(model.PipelineConfig{
		Stages: []string{StageDuplicate},
		Strict: true,
	})
	require.NoError(t, err)

	_, ok, err := runner.Process(&model.Result{Attribute: model.String("Density")})
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, eris.Is(err, ErrMalformed))
}

func TestRunner_NilResultFails(t *testing.T) {
	runner, err := Build(model.PipelineConfig{}, WithLogger(zap.NewNop()))
	require.NoError(t, err)

	_, ok, err := runner.Process(nil)
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, eris.Is(err, ErrMalformed))
	assert.False(t, IsDrop(err))

	kept := runner.Run([]*model.Result{nil, model.NewResult("Density", "1 g/cm3", "PubChem"), nil})
	require.Len(t, kept, 1)
	assert.Equal(t, "Density", kept[0].Get(model.FieldAttribute))
	assert.Equal(t, Stats{In: 4, Kept: 1, Failed: 3}, runner.Stats())
}

func TestStages_NilResult(t *testing.T) {
	stages := []Stage{
		NewRemoveNone(),
		NewDuplicate(WithLogger(zap.NewNop())),
		NewAttributeSelection([]string{"Melting"}, WithLogger(zap.NewNop())),
	}
	for _, stage := range stages {
		t.Run(stage.Name(), func(t *testing.T) {
			out, err := stage.Process(nil)
			assert.Nil(t, out)
			assert.True(t, eris.Is(err, ErrMalformed))
		})
	}
}

func TestRunner_EmptyChain(t *testing.T) {
	runner := NewRunner(nil)
	r := &model.Result{}

	out, ok, err := runner.Process(r)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, r, out)
}
