package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MessageType enumerates the frames of the session protocol.
type MessageType string

const (
	MsgSessionState   MessageType = "session_state"
	MsgNoteHit        MessageType = "note_hit"
	MsgNoteMiss       MessageType = "note_miss"
	MsgPauseGame      MessageType = "pause_game"
	MsgResumeGame     MessageType = "resume_game"
	MsgEndGame        MessageType = "end_game"
	MsgSessionEnd     MessageType = "session_end"
	MsgScoreUpdate    MessageType = "score_update"
	MsgProblemWarning MessageType = "problem_warning"
	MsgProblemStart   MessageType = "problem_start"
	MsgProblemEnd     MessageType = "problem_end"
	MsgError          MessageType = "error"
)

var inboundTypes = map[MessageType]bool{
	MsgSessionState: true,
	MsgNoteHit:      true,
	MsgNoteMiss:     true,
	MsgPauseGame:    true,
	MsgResumeGame:   true,
	MsgEndGame:      true,
}

// Message is the wire envelope. Inbound payloads stay raw until the type
// is known; outbound payloads are marshalled in place.
type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp float64         `json:"timestamp"`
}

// OutboundMessage mirrors Message with an already-built payload.
type OutboundMessage struct {
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp float64     `json:"timestamp"`
}

// DecodeMessage parses an inbound frame and rejects unknown or outbound
// message types.
func DecodeMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("invalid message frame: %w", err)
	}
	typ := MessageType(strings.TrimSpace(string(m.Type)))
	if typ == "" {
		return Message{}, fmt.Errorf("message frame missing type")
	}
	if !inboundTypes[typ] {
		return Message{}, fmt.Errorf("unknown inbound message type: %q", typ)
	}
	m.Type = typ
	return m, nil
}

// NoteHitEvent is the inbound payload when the player strikes a note.
type NoteHitEvent struct {
	NoteID   int          `json:"note_id"`
	String   GuitarString `json:"string"`
	HitTime  float64      `json:"hit_time"`
	Accuracy float64      `json:"accuracy"` // -1.0 (early) to 1.0 (late)
}

// RawStateNote is a client-supplied note that may be missing its id or
// string; the session normalizes it before installing.
type RawStateNote struct {
	ID         *int         `json:"id"`
	Pitch      int          `json:"pitch"`
	Velocity   int          `json:"velocity"`
	Start      float64      `json:"start"`
	End        float64      `json:"end"`
	String     GuitarString `json:"string"`
	Confidence float64      `json:"confidence,omitempty"`
}

// StatePayload is the inbound session_state payload. All fields are
// optional; only supplied ones are applied.
type StatePayload struct {
	Notes            []RawStateNote `json:"notes"`
	CurrentNotes     []RawStateNote `json:"current_notes"`
	Mode             *Mode          `json:"mode"`
	IsPaused         *bool          `json:"is_paused"`
	IsActive         *bool          `json:"is_active"`
	DifficultyLevel  *string        `json:"difficulty_level"`
	MutationStrength *float64       `json:"mutation_strength"`
}

// ScoreUpdatePayload is the outbound score_update payload.
type ScoreUpdatePayload struct {
	Score           float64 `json:"score"`
	TotalScore      float64 `json:"total_score"`
	Combo           int     `json:"combo"`
	ComboMultiplier float64 `json:"combo_multiplier"`
}

// ProblemWarningPayload advertises the lead time before a problem section.
type ProblemWarningPayload struct {
	Warning  string  `json:"warning"`
	Duration float64 `json:"duration"`
}

// ProblemEndPayload carries the merged timeline after a problem section.
type ProblemEndPayload struct {
	Mode         Mode        `json:"mode"`
	CurrentNotes []NoteEvent `json:"current_notes"`
}

// SessionEndPayload is the final summary sent on end_game.
type SessionEndPayload struct {
	FinalScore float64 `json:"final_score"`
	FinalCombo int     `json:"final_combo"`
	TotalNotes int     `json:"total_notes"`
	TimePlayed float64 `json:"time_played"`
}

// ErrorPayload is the outbound error payload.
type ErrorPayload struct {
	Error string `json:"error"`
}
