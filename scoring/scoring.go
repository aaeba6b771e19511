// Package scoring evaluates player attempts against a reference riff
// and maintains combo and adaptive difficulty state.
package scoring

import (
	"math"
	"time"

	"github.com/strumline/strumline/model"
	"github.com/strumline/strumline/util"
)

// Config carries the timing windows, weights and thresholds of the
// scoring model.
type Config struct {
	PerfectTimingWindow    float64
	GoodTimingWindow       float64
	AcceptableTimingWindow float64

	PerfectPoints    float64
	GoodPoints       float64
	AcceptablePoints float64

	ReactionWeight   float64
	RhythmWeight     float64
	CreativityWeight float64

	MaxComboMultiplier float64
	ComboIncrement     float64

	RecentScoreWindow int
	PhraseGap         float64
	MotifLength       int
}

func DefaultConfig() Config {
	return Config{
		PerfectTimingWindow:    0.1,
		GoodTimingWindow:       0.2,
		AcceptableTimingWindow: 0.3,
		PerfectPoints:          100,
		GoodPoints:             30,
		AcceptablePoints:       20,
		ReactionWeight:         0.4,
		RhythmWeight:           0.3,
		CreativityWeight:       0.3,
		MaxComboMultiplier:     4.0,
		ComboIncrement:         0.5,
		RecentScoreWindow:      5,
		PhraseGap:              0.5,
		MotifLength:            3,
	}
}

// Engine scores hits for one session. It is not safe for concurrent
// use; each session owns exactly one engine.
type Engine struct {
	cfg Config
	now func() time.Time

	currentScore    float64
	comboCount      int
	comboMultiplier float64
	difficulty      model.Difficulty
	recentScores    []float64
	lastNotes       []model.NoteEvent
	metrics         model.ScoreMetrics
}

func New(cfg Config) *Engine {
	e := &Engine{cfg: cfg, now: time.Now}
	e.StartSession()
	return e
}

// WithClock replaces the engine's clock. Evaluations under a frozen
// clock are fully deterministic.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// StartSession resets all per-session state.
func (e *Engine) StartSession() {
	e.currentScore = 0
	e.comboCount = 0
	e.comboMultiplier = 1.0
	e.difficulty = model.DifficultyMedium
	e.recentScores = nil
	e.lastNotes = nil
	e.metrics = model.ScoreMetrics{ComboMultiplier: 1.0}
}

func (e *Engine) TotalScore() float64          { return e.currentScore }
func (e *Engine) Combo() int                   { return e.comboCount }
func (e *Engine) ComboMultiplier() float64     { return e.comboMultiplier }
func (e *Engine) Difficulty() model.Difficulty { return e.difficulty }
func (e *Engine) Metrics() model.ScoreMetrics  { return e.metrics }
func (e *Engine) LastNotes() []model.NoteEvent { return e.lastNotes }

// Evaluate scores one player attempt against the reference notes.
// referenceTime is when the reference demanded a response; the gap to
// the first player note is the reaction time.
func (e *Engine) Evaluate(
	reference []model.NoteEvent,
	player []model.NoteEvent,
	referenceTime float64,
) model.ScoreUpdate {
	now := float64(e.now().UnixNano()) / 1e9

	reaction := e.reactionScore(referenceTime, player)
	rhythm := e.rhythmScore(reference, player)
	creativity := e.creativityScore(reference, player, e.lastNotes)

	e.metrics.ReactionScore = reaction
	e.metrics.RhythmScore = rhythm
	e.metrics.CreativityScore = creativity

	base := reaction*e.cfg.ReactionWeight +
		rhythm*e.cfg.RhythmWeight +
		creativity*e.cfg.CreativityWeight

	if base >= e.cfg.GoodPoints {
		e.comboCount++
		e.comboMultiplier = math.Min(
			1.0+float64(e.comboCount)*e.cfg.ComboIncrement,
			e.cfg.MaxComboMultiplier,
		)
	} else {
		e.comboCount = 0
		e.comboMultiplier = 1.0
	}

	final := base * model.DifficultyMultipliers[e.difficulty] * e.comboMultiplier
	e.currentScore += final
	e.metrics.ComboMultiplier = e.comboMultiplier
	e.metrics.TotalScore = e.currentScore
	e.lastNotes = player

	e.recentScores = append(e.recentScores, base)
	if len(e.recentScores) > e.cfg.RecentScoreWindow {
		e.recentScores = e.recentScores[1:]
	}
	e.adjustDifficulty()

	return model.ScoreUpdate{
		Components: []model.ScoreComponent{
			{Category: "reaction", Value: reaction, Weight: e.cfg.ReactionWeight, Timestamp: now},
			{Category: "rhythm", Value: rhythm, Weight: e.cfg.RhythmWeight, Timestamp: now},
			{Category: "creativity", Value: creativity, Weight: e.cfg.CreativityWeight, Timestamp: now},
		},
		BaseScore:  base,
		TotalScore: e.currentScore,
		Timestamp:  now,
	}
}

// timingPoints applies the piecewise timing-window function shared by
// the reaction and rhythm components.
func (e *Engine) timingPoints(t float64) float64 {
	switch {
	case t <= e.cfg.PerfectTimingWindow:
		return e.cfg.PerfectPoints
	case t <= e.cfg.GoodTimingWindow:
		return e.cfg.GoodPoints
	case t <= e.cfg.AcceptableTimingWindow:
		return e.cfg.AcceptablePoints
	default:
		return math.Max(0, e.cfg.AcceptablePoints*(1-(t-e.cfg.AcceptableTimingWindow)))
	}
}

func (e *Engine) reactionScore(referenceTime float64, player []model.NoteEvent) float64 {
	if len(player) == 0 {
		return 0
	}
	first := player[0].Start
	for _, n := range player[1:] {
		if n.Start < first {
			first = n.Start
		}
	}
	return e.timingPoints(first - referenceTime)
}

func (e *Engine) rhythmScore(reference, player []model.NoteEvent) float64 {
	if len(reference) == 0 || len(player) == 0 {
		return 0
	}
	var totalError float64
	for _, ref := range reference {
		closest := math.Inf(1)
		for _, p := range player {
			if err := util.Abs(p.Start - ref.Start); err < closest {
				closest = err
			}
		}
		totalError += closest
	}
	return e.timingPoints(totalError / float64(len(reference)))
}

func (e *Engine) creativityScore(reference, player, last []model.NoteEvent) float64 {
	if len(reference) == 0 || len(player) == 0 {
		return 0
	}
	score := e.pitchCoherence(reference, player) * 0.4
	score += e.rhythmicVariation(reference, player, last) * 0.3
	score += e.musicalDevelopment(reference, player) * 0.3
	return score
}

// pitchCoherence compares successive-pitch intervals pairwise by index.
// An interval matches on equal sign or on a unison, fifth or octave
// difference.
func (e *Engine) pitchCoherence(reference, player []model.NoteEvent) float64 {
	refIntervals := pitchIntervals(reference)
	playerIntervals := pitchIntervals(player)
	if len(refIntervals) == 0 || len(playerIntervals) == 0 {
		return 0
	}

	matched := 0
	for i := 0; i < len(refIntervals) && i < len(playerIntervals); i++ {
		diff := util.Abs(refIntervals[i] - playerIntervals[i])
		if sign(refIntervals[i]) == sign(playerIntervals[i]) ||
			diff == 0 || diff == 7 || diff == 12 {
			matched++
		}
	}
	return float64(matched) / float64(len(refIntervals)) * 100
}

func (e *Engine) rhythmicVariation(reference, player, last []model.NoteEvent) float64 {
	if last == nil {
		return e.cfg.GoodPoints // baseline for the first attempt
	}
	refDensity := float64(len(reference))
	playerDensity := float64(len(player))
	densityChange := util.Abs(len(player) - len(last))

	switch {
	case densityChange > 0 && playerDensity >= refDensity*0.8:
		return e.cfg.PerfectPoints
	case playerDensity >= refDensity*0.9:
		return e.cfg.GoodPoints
	default:
		return e.cfg.AcceptablePoints
	}
}

func (e *Engine) musicalDevelopment(reference, player []model.NoteEvent) float64 {
	return e.motifScore(reference, player)*0.5 + e.phraseScore(player)*0.5
}

// motifScore relates every length-3 pitch window in the player sequence
// to the reference windows by consecutive-interval equality.
func (e *Engine) motifScore(reference, player []model.NoteEvent) float64 {
	refPatterns := pitchPatterns(reference, e.cfg.MotifLength)
	playerPatterns := pitchPatterns(player, e.cfg.MotifLength)
	if len(playerPatterns) == 0 {
		return 0
	}

	related := 0
	for _, pp := range playerPatterns {
		for _, rp := range refPatterns {
			if patternsRelated(pp, rp) {
				related++
				break
			}
		}
	}
	return float64(related) / float64(len(playerPatterns)) * 100
}

// phraseScore rewards any inter-note gap long enough to read as a
// phrase boundary.
func (e *Engine) phraseScore(player []model.NoteEvent) float64 {
	for i := 1; i < len(player); i++ {
		if player[i].Start-player[i-1].End > e.cfg.PhraseGap {
			return e.cfg.PerfectPoints
		}
	}
	return e.cfg.AcceptablePoints
}

// adjustDifficulty steps at most one level once the recent-score ring
// is full.
func (e *Engine) adjustDifficulty() {
	if len(e.recentScores) < e.cfg.RecentScoreWindow {
		return
	}
	avg := util.Mean(e.recentScores)

	switch {
	case e.difficulty == model.DifficultyEasy && avg > 85:
		e.difficulty = model.DifficultyMedium
	case e.difficulty == model.DifficultyMedium && avg > 90:
		e.difficulty = model.DifficultyHard
	case e.difficulty == model.DifficultyHard && avg > 95:
		e.difficulty = model.DifficultyExpert
	case avg < 60:
		switch e.difficulty {
		case model.DifficultyExpert:
			e.difficulty = model.DifficultyHard
		case model.DifficultyHard:
			e.difficulty = model.DifficultyMedium
		case model.DifficultyMedium:
			e.difficulty = model.DifficultyEasy
		}
	}
}

// ResetCombo clears the combo out of band, e.g. on a miss event.
func (e *Engine) ResetCombo() {
	e.comboCount = 0
	e.comboMultiplier = 1.0
}

// UpdateDifficulty sets the difficulty out of band. Unknown levels are
// rejected and leave the state unchanged.
func (e *Engine) UpdateDifficulty(level string) error {
	d, err := model.ParseDifficulty(level)
	if err != nil {
		return err
	}
	e.difficulty = d
	return nil
}

// EndSession returns the final metrics and reinitializes the engine.
func (e *Engine) EndSession() model.ScoreMetrics {
	metrics := e.metrics
	metrics.TotalScore = e.currentScore
	metrics.ComboMultiplier = e.comboMultiplier
	e.StartSession()
	return metrics
}

func pitchIntervals(notes []model.NoteEvent) []int {
	if len(notes) < 2 {
		return nil
	}
	intervals := make([]int, len(notes)-1)
	for i := 1; i < len(notes); i++ {
		intervals[i-1] = notes[i].Pitch - notes[i-1].Pitch
	}
	return intervals
}

func pitchPatterns(notes []model.NoteEvent, length int) [][]int {
	var patterns [][]int
	for i := 0; i+length <= len(notes); i++ {
		p := make([]int, length)
		for j := 0; j < length; j++ {
			p[j] = notes[i+j].Pitch
		}
		patterns = append(patterns, p)
	}
	return patterns
}

func patternsRelated(p1, p2 []int) bool {
	if len(p1) != len(p2) {
		return false
	}
	for i := 1; i < len(p1); i++ {
		if p1[i]-p1[i-1] != p2[i]-p2[i-1] {
			return false
		}
	}
	return true
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
