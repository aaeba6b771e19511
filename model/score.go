package model

import "fmt"

// Difficulty is one of the four adaptive difficulty levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// DifficultyMultipliers scales the base score per difficulty level.
var DifficultyMultipliers = map[Difficulty]float64{
	DifficultyEasy:   0.8,
	DifficultyMedium: 1.0,
	DifficultyHard:   1.2,
	DifficultyExpert: 1.5,
}

func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(s)
	if _, ok := DifficultyMultipliers[d]; !ok {
		return "", fmt.Errorf("invalid difficulty level: %q", s)
	}
	return d, nil
}

// ScoreComponent is one weighted slice of a hit evaluation.
type ScoreComponent struct {
	Category  string  `json:"category"` // "reaction", "rhythm", "creativity"
	Value     float64 `json:"value"`
	Weight    float64 `json:"weight"`
	Timestamp float64 `json:"timestamp"`
}

// ScoreUpdate is the result of evaluating one player attempt.
type ScoreUpdate struct {
	Components []ScoreComponent `json:"components"`
	BaseScore  float64          `json:"base_score"`
	TotalScore float64          `json:"total_score"`
	Timestamp  float64          `json:"timestamp"`
}

// ScoreMetrics are the running per-category scores for a session.
type ScoreMetrics struct {
	CreativityScore float64 `json:"creativity_score"`
	ReactionScore   float64 `json:"reaction_score"`
	RhythmScore     float64 `json:"rhythm_score"`
	ComboMultiplier float64 `json:"combo_multiplier"`
	TotalScore      float64 `json:"total_score"`
}
