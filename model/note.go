package model

import "sort"

// GuitarString identifies one of the six strings in standard tuning.
type GuitarString string

const (
	StringLowE  GuitarString = "E"
	StringA     GuitarString = "A"
	StringD     GuitarString = "D"
	StringG     GuitarString = "G"
	StringB     GuitarString = "B"
	StringHighE GuitarString = "e"
)

var AllStrings = []GuitarString{
	StringLowE, StringA, StringD, StringG, StringB, StringHighE,
}

// StringForPitch maps a MIDI pitch to the string the note would most
// naturally be played on. Open-string pitches are E2(40) A2(45) D3(50)
// G3(55) B3(59) E4(64).
func StringForPitch(pitch int) GuitarString {
	switch {
	case pitch < 40:
		return StringLowE
	case pitch < 45:
		return StringA
	case pitch < 50:
		return StringD
	case pitch < 55:
		return StringG
	case pitch < 59:
		return StringB
	default:
		return StringHighE
	}
}

// NoteEvent is one detected or scored note. Events are immutable once
// placed on a timeline; mutations produce new events.
type NoteEvent struct {
	ID         int          `json:"id"`
	Pitch      int          `json:"pitch"`
	Velocity   int          `json:"velocity"`
	Start      float64      `json:"start"`
	End        float64      `json:"end"`
	String     GuitarString `json:"string"`
	Confidence float64      `json:"confidence,omitempty"`
}

// NewNoteEvent builds a note with its string derived from pitch.
func NewNoteEvent(id, pitch, velocity int, start, end float64) NoteEvent {
	return NoteEvent{
		ID:       id,
		Pitch:    pitch,
		Velocity: velocity,
		Start:    start,
		End:      end,
		String:   StringForPitch(pitch),
	}
}

func (n NoteEvent) Duration() float64 {
	return n.End - n.Start
}

// SortNotes stable-sorts a timeline ascending by start time.
func SortNotes(notes []NoteEvent) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Start < notes[j].Start
	})
}
