package model

// Mode is the top-level session mode.
type Mode string

const (
	ModeWaiting Mode = "waiting"
	ModeNormal  Mode = "normal"
	ModeProblem Mode = "problem"
	ModeEnded   Mode = "ended"
)

// ProblemSection is a mutated riff the player must answer to. It lives
// only while the session mode is problem.
type ProblemSection struct {
	OriginalNotes   []NoteEvent `json:"original_notes"`
	MutatedNotes    []NoteEvent `json:"mutated_notes"`
	MutationType    string      `json:"mutation_type"`
	ProblemDuration float64     `json:"problem_duration"`
	CreatedAt       float64     `json:"created_at"`
}

// SessionSnapshot is the session state as broadcast to the client.
type SessionSnapshot struct {
	Mode             Mode            `json:"mode"`
	CurrentNotes     []NoteEvent     `json:"current_notes"`
	ProblemSection   *ProblemSection `json:"problem_section"`
	Score            float64         `json:"score"`
	Combo            int             `json:"combo"`
	ComboMultiplier  float64         `json:"combo_multiplier"`
	DifficultyLevel  Difficulty      `json:"difficulty_level"`
	LastHitTime      float64         `json:"last_hit_time,omitempty"`
	IsActive         bool            `json:"is_active"`
	IsPaused         bool            `json:"is_paused"`
	MutationStrength float64         `json:"mutation_strength"`
}

// SessionSummary is what remains of a session after it ends.
type SessionSummary struct {
	ID         string     `json:"id"`
	FinalScore float64    `json:"final_score"`
	FinalCombo int        `json:"final_combo"`
	TotalNotes int        `json:"total_notes"`
	TimePlayed float64    `json:"time_played"`
	Difficulty Difficulty `json:"difficulty"`
}

// SongMetadata describes a known song riff.
type SongMetadata struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Release string `json:"release"`
	Year    uint   `json:"year,omitempty"`
}
