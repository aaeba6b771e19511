package mutation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/strumline/strumline/model"
)

func note(pitch int, start, end float64) model.NoteEvent {
	return model.NewNoteEvent(0, pitch, 100, start, end)
}

func TestRuleAgentActions(t *testing.T) {
	a := NewRuleAgent()

	assert := assert.New(t)
	assert.Equal(ActionIncrease, a.Action([3]float64{90, 95, 85}))
	assert.Equal(ActionDecrease, a.Action([3]float64{20, 30, 25}))
	assert.Equal(ActionMaintain, a.Action([3]float64{60, 50, 70}))
}

func TestStrengthPolicyClampsToRange(t *testing.T) {
	p := NewStrengthPolicy(NewRuleAgent())

	assert := assert.New(t)
	strong := [3]float64{95, 95, 95}
	weak := [3]float64{10, 10, 10}

	assert.InDelta(0.6, p.SuggestStrength(0.5, strong), 1e-9)
	assert.InDelta(1.0, p.SuggestStrength(0.95, strong), 1e-9)
	assert.InDelta(0.4, p.SuggestStrength(0.5, weak), 1e-9)
	assert.InDelta(0.1, p.SuggestStrength(0.15, weak), 1e-9)
	assert.InDelta(0.5, p.SuggestStrength(0.5, [3]float64{60, 60, 60}), 1e-9)
}

func TestGenerateRejectsEmptyTimeline(t *testing.T) {
	m := NewRiffMutator(NewStrengthPolicy(NewRuleAgent()))

	_, err := m.GenerateProblemSection(context.Background(), nil, model.ScoreMetrics{}, 7.0)
	assert.Error(t, err)
}

func TestGenerateHonorsCancelledContext(t *testing.T) {
	m := NewRiffMutator(NewStrengthPolicy(NewRuleAgent()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.GenerateProblemSection(ctx, []model.NoteEvent{note(45, 0, 0.5)}, model.ScoreMetrics{}, 7.0)
	assert.Error(t, err)
}

func TestGenerateAdaptsStrengthToPerformance(t *testing.T) {
	m := NewRiffMutator(NewStrengthPolicy(NewRuleAgent()))
	notes := []model.NoteEvent{note(45, 0, 0.5)}
	assert := assert.New(t)
	assert.InDelta(0.5, m.Strength(), 1e-9)

	strong := model.ScoreMetrics{CreativityScore: 95, ReactionScore: 95, RhythmScore: 95}
	_, err := m.GenerateProblemSection(context.Background(), notes, strong, 7.0)
	assert.NoError(err)
	assert.InDelta(0.6, m.Strength(), 1e-9)

	weak := model.ScoreMetrics{CreativityScore: 10, ReactionScore: 10, RhythmScore: 10}
	_, err = m.GenerateProblemSection(context.Background(), notes, weak, 7.0)
	assert.NoError(err)
	assert.InDelta(0.5, m.Strength(), 1e-9)
}

func TestSectionWindowTakesRebasedTail(t *testing.T) {
	notes := []model.NoteEvent{
		note(40, 0, 0.5),
		note(45, 10.0, 10.5),
		note(47, 12.0, 12.5),
		note(50, 14.0, 14.5),
	}

	window := sectionWindow(notes, 7.0)

	assert := assert.New(t)
	// cutoff is 14.5 - 7.0 = 7.5, which excludes only the first note
	assert.Len(window, 3)
	assert.InDelta(0.0, window[0].Start, 1e-9)
	assert.InDelta(2.0, window[1].Start, 1e-9)
	assert.InDelta(4.0, window[2].Start, 1e-9)
	assert.Equal([]int{0, 1, 2}, []int{window[0].ID, window[1].ID, window[2].ID})
}

func TestSectionWindowFallsBackToLastNote(t *testing.T) {
	notes := []model.NoteEvent{note(45, 0, 20.0)}

	window := sectionWindow(notes, 7.0)

	assert := assert.New(t)
	assert.Len(window, 1)
	assert.InDelta(0.0, window[0].Start, 1e-9)
	assert.InDelta(20.0, window[0].End, 1e-9)
}

func TestGeneratePreservesRhythm(t *testing.T) {
	m := NewRiffMutator(NewStrengthPolicy(NewRuleAgent()))
	notes := []model.NoteEvent{
		note(45, 0, 0.5),
		note(47, 1.0, 1.5),
		note(50, 2.0, 2.5),
	}

	section, err := m.GenerateProblemSection(context.Background(), notes, model.ScoreMetrics{}, 7.0)

	assert := assert.New(t)
	assert.NoError(err)
	assert.Len(section.MutatedNotes, len(section.OriginalNotes))
	for i, mut := range section.MutatedNotes {
		orig := section.OriginalNotes[i]
		assert.InDelta(orig.Start, mut.Start, 1e-9)
		assert.InDelta(orig.End, mut.End, 1e-9)
		assert.GreaterOrEqual(mut.Pitch, 0)
		assert.LessOrEqual(mut.Pitch, 127)
	}
	assert.InDelta(7.0, section.ProblemDuration, 1e-9)
	// rhythm and velocity are untouched, so pitch always dominates
	assert.Equal("pitch", section.MutationType)
}

func TestAnalyzeMutationTypePicksDominantChange(t *testing.T) {
	original := []model.NoteEvent{
		note(45, 0, 0.5),
		note(47, 1.0, 1.5),
		note(50, 2.0, 2.5),
	}

	shifted := []model.NoteEvent{
		note(47, 0, 0.5),
		note(52, 1.0, 1.5),
		note(50, 2.0, 2.5),
	}
	stretched := []model.NoteEvent{
		note(47, 0, 0.8),
		note(47, 1.0, 1.9),
		note(50, 2.0, 2.4),
	}
	softened := []model.NoteEvent{
		model.NewNoteEvent(0, 45, 60, 0, 0.5),
		model.NewNoteEvent(1, 47, 60, 1.0, 1.5),
		model.NewNoteEvent(2, 50, 60, 2.0, 2.5),
	}

	assert := assert.New(t)
	assert.Equal("pitch", analyzeMutationType(original, shifted))
	assert.Equal("rhythm", analyzeMutationType(original, stretched))
	assert.Equal("velocity", analyzeMutationType(original, softened))
	// no changes at all resolves to the first category
	assert.Equal("pitch", analyzeMutationType(original, original))
}
