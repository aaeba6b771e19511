// Package mutation provides the default problem-section generator and
// the adaptive mutation-strength policy.
package mutation

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/strumline/strumline/model"
	"github.com/strumline/strumline/util"
)

// Generator produces a problem section from the current timeline and
// the player's running performance metrics. Any backend can satisfy it.
type Generator interface {
	GenerateProblemSection(
		ctx context.Context,
		notes []model.NoteEvent,
		metrics model.ScoreMetrics,
		duration float64,
	) (*model.ProblemSection, error)
}

// Agent chooses a strength action from a performance state vector
// (creativity, reaction, rhythm). Actions: 0 decrease, 1 maintain,
// 2 increase.
type Agent interface {
	Action(state [3]float64) int
}

const (
	ActionDecrease = 0
	ActionMaintain = 1
	ActionIncrease = 2
)

// RuleAgent is the built-in fallback agent: strong play earns stronger
// mutations, weak play eases off.
type RuleAgent struct {
	RaiseAbove float64
	LowerBelow float64
}

func NewRuleAgent() RuleAgent {
	return RuleAgent{RaiseAbove: 80, LowerBelow: 40}
}

func (a RuleAgent) Action(state [3]float64) int {
	avg := (state[0] + state[1] + state[2]) / 3
	switch {
	case avg > a.RaiseAbove:
		return ActionIncrease
	case avg < a.LowerBelow:
		return ActionDecrease
	default:
		return ActionMaintain
	}
}

// StrengthPolicy adjusts mutation strength in fixed steps on the
// agent's say-so, clamped to [0.1, 1.0].
type StrengthPolicy struct {
	agent Agent
	step  float64
}

func NewStrengthPolicy(agent Agent) *StrengthPolicy {
	return &StrengthPolicy{agent: agent, step: 0.1}
}

func (p *StrengthPolicy) SuggestStrength(current float64, state [3]float64) float64 {
	switch p.agent.Action(state) {
	case ActionDecrease:
		return util.Clamp(current-p.step, 0.1, 1.0)
	case ActionIncrease:
		return util.Clamp(current+p.step, 0.1, 1.0)
	default:
		return current
	}
}

// RiffMutator is the default Generator: strength-scaled pitch jitter
// over the tail of the timeline, rhythm preserved.
type RiffMutator struct {
	policy   *StrengthPolicy
	rng      *rand.Rand
	strength float64
	now      func() time.Time
}

func NewRiffMutator(policy *StrengthPolicy) *RiffMutator {
	return &RiffMutator{
		policy:   policy,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		strength: 0.5,
		now:      time.Now,
	}
}

// Strength reports the mutator's current mutation strength.
func (m *RiffMutator) Strength() float64 { return m.strength }

// intervals a mutated note may jump by, ordered mild to wild
var mutationIntervals = []int{1, 2, 3, 5, 7, 12}

func (m *RiffMutator) GenerateProblemSection(
	ctx context.Context,
	notes []model.NoteEvent,
	metrics model.ScoreMetrics,
	duration float64,
) (*model.ProblemSection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, fmt.Errorf("cannot generate a problem section from an empty timeline")
	}

	m.strength = m.policy.SuggestStrength(m.strength, [3]float64{
		metrics.CreativityScore,
		metrics.ReactionScore,
		metrics.RhythmScore,
	})

	original := sectionWindow(notes, duration)
	mutated := make([]model.NoteEvent, len(original))
	for i, n := range original {
		pitch := n.Pitch
		if m.rng.Float64() < m.strength {
			interval := mutationIntervals[m.rng.Intn(len(mutationIntervals))]
			if m.rng.Intn(2) == 0 {
				interval = -interval
			}
			pitch = util.Clamp(pitch+interval, 0, 127)
		}
		evt := model.NewNoteEvent(i, pitch, n.Velocity, n.Start, n.End)
		evt.Confidence = n.Confidence
		mutated[i] = evt
	}

	return &model.ProblemSection{
		OriginalNotes:   original,
		MutatedNotes:    mutated,
		MutationType:    analyzeMutationType(original, mutated),
		ProblemDuration: duration,
		CreatedAt:       float64(m.now().UnixNano()) / 1e9,
	}, nil
}

// sectionWindow picks the last run of notes that fits the target
// duration and rebases it to start at zero.
func sectionWindow(notes []model.NoteEvent, duration float64) []model.NoteEvent {
	last := notes[len(notes)-1]
	cutoff := last.End - duration

	var window []model.NoteEvent
	for _, n := range notes {
		if n.Start >= cutoff {
			window = append(window, n)
		}
	}
	if len(window) == 0 {
		window = []model.NoteEvent{last}
	}

	base := window[0].Start
	out := make([]model.NoteEvent, len(window))
	for i, n := range window {
		evt := model.NewNoteEvent(i, n.Pitch, n.Velocity, n.Start-base, n.End-base)
		evt.Confidence = n.Confidence
		out[i] = evt
	}
	return out
}

// analyzeMutationType names the attribute the mutation changed most:
// "pitch", "rhythm" or "velocity". Ties resolve in that order.
func analyzeMutationType(original, mutated []model.NoteEvent) string {
	categories := []string{"pitch", "rhythm", "velocity"}
	changes := make(map[string]int, len(categories))
	for i := range original {
		if i >= len(mutated) {
			break
		}
		orig, mut := original[i], mutated[i]
		if orig.Pitch != mut.Pitch {
			changes["pitch"]++
		}
		if util.Abs(orig.Duration()-mut.Duration()) > 0.01 {
			changes["rhythm"]++
		}
		if util.Abs(orig.Velocity-mut.Velocity) > 5 {
			changes["velocity"]++
		}
	}

	best := categories[0]
	for _, c := range categories[1:] {
		if changes[c] > changes[best] {
			best = c
		}
	}
	return best
}
