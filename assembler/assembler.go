// Package assembler turns raw per-chunk note detections into a single
// clean, playability-constrained note timeline.
package assembler

import (
	"sort"

	"github.com/strumline/strumline/constants"
	"github.com/strumline/strumline/model"
	"github.com/strumline/strumline/util"
)

// RawNote is one unvalidated note candidate from the detection backend,
// with start/end already shifted to absolute stream time.
type RawNote struct {
	Pitch      int     `json:"pitch"`
	Velocity   int     `json:"velocity"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Chunk is one decoded detection chunk, identified by its position in
// the stream.
type Chunk struct {
	Index int       `json:"index"`
	Notes []RawNote `json:"notes"`
}

// Config bounds what counts as a playable note.
type Config struct {
	Hop             float64 // seconds between chunk starts
	MinDuration     float64
	MaxDuration     float64
	MinVelocity     int
	WindowSize      float64 // rate-limit window, seconds
	MaxPerWindow    int     // admitted notes per window per string
	ChordWindow     float64 // max distance from chord anchor, seconds
	MaxChordNotes   int
	ChordTimeSpread float64 // per-member stagger on flush, seconds
}

func DefaultConfig() Config {
	return Config{
		Hop:             constants.ChunkHop,
		MinDuration:     0.1,
		MaxDuration:     2.0,
		MinVelocity:     50,
		WindowSize:      1.0,
		MaxPerWindow:    3,
		ChordWindow:     0.25,
		MaxChordNotes:   4,
		ChordTimeSpread: 0.001,
	}
}

type Assembler struct {
	cfg Config
}

func New(cfg Config) *Assembler {
	return &Assembler{cfg: cfg}
}

// Assemble runs the full pass sequence over ordered chunks and returns
// the resulting timeline. Chunks must be supplied in stream order.
func (a *Assembler) Assemble(chunks []Chunk) []model.NoteEvent {
	deduped := a.dedupe(chunks)
	filtered := a.filter(deduped)
	limited := a.rateLimit(filtered)
	assembled := a.assembleChords(limited)

	sort.SliceStable(assembled, func(i, j int) bool {
		return assembled[i].Start < assembled[j].Start
	})

	notes := make([]model.NoteEvent, 0, len(assembled))
	for i, n := range assembled {
		evt := model.NewNoteEvent(i, n.Pitch, n.Velocity, n.Start, n.End)
		evt.Confidence = n.Confidence
		notes = append(notes, evt)
	}
	return notes
}

// dedupe drops, for every chunk but the last, notes that fall in the
// region the next chunk also covers, so overlap notes are counted once.
func (a *Assembler) dedupe(chunks []Chunk) []RawNote {
	var out []RawNote
	for pos, chunk := range chunks {
		isLast := pos == len(chunks)-1
		boundary := float64(chunk.Index+1) * a.cfg.Hop
		for _, n := range chunk.Notes {
			if !isLast && n.Start >= boundary {
				continue
			}
			out = append(out, n)
		}
	}
	return out
}

// filter rejects malformed candidates individually and keeps only notes
// within the playable duration and velocity bounds.
func (a *Assembler) filter(notes []RawNote) []RawNote {
	var out []RawNote
	for _, n := range notes {
		if n.Pitch < 0 || n.Pitch > 127 || n.Velocity < 0 || n.Velocity > 127 {
			continue
		}
		if n.End <= n.Start {
			continue
		}
		d := n.End - n.Start
		if d < a.cfg.MinDuration || d > a.cfg.MaxDuration {
			continue
		}
		if n.Velocity < a.cfg.MinVelocity {
			continue
		}
		out = append(out, n)
	}
	return out
}

// rateLimit bounds note density per string: a note is admitted only if
// fewer than MaxPerWindow admitted notes already sit in its trailing
// window. The occupancy check happens before the candidate is inserted.
func (a *Assembler) rateLimit(notes []RawNote) []RawNote {
	byString := make(map[model.GuitarString][]RawNote)
	for _, n := range notes {
		s := model.StringForPitch(n.Pitch)
		byString[s] = append(byString[s], n)
	}

	var out []RawNote
	for _, s := range util.SortedKeys(byString) {
		list := byString[s]
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Start < list[j].Start
		})

		var window []RawNote
		for _, n := range list {
			windowStart := n.Start - a.cfg.WindowSize
			kept := window[:0]
			for _, w := range window {
				if w.Start > windowStart {
					kept = append(kept, w)
				}
			}
			window = kept

			if len(window) < a.cfg.MaxPerWindow {
				window = append(window, n)
				out = append(out, n)
			}
		}
	}
	return out
}

// assembleChords groups near-simultaneous notes into chords and
// normalizes each chord's timing on flush.
func (a *Assembler) assembleChords(notes []RawNote) []RawNote {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].Start != notes[j].Start {
			return notes[i].Start < notes[j].Start
		}
		return notes[i].Pitch < notes[j].Pitch
	})

	var out []RawNote
	var chord []RawNote
	var anchor float64

	flush := func() {
		out = append(out, a.normalizeChord(chord)...)
		chord = nil
	}

	for _, n := range notes {
		if len(chord) == 0 {
			chord = append(chord, n)
			anchor = n.Start
			continue
		}
		if n.Start-anchor <= a.cfg.ChordWindow &&
			len(chord) < a.cfg.MaxChordNotes &&
			!chordHasString(chord, n) {
			chord = append(chord, n)
			continue
		}
		flush()
		chord = append(chord, n)
		anchor = n.Start
	}
	if len(chord) > 0 {
		flush()
	}
	return out
}

func chordHasString(chord []RawNote, n RawNote) bool {
	s := model.StringForPitch(n.Pitch)
	for _, c := range chord {
		if model.StringForPitch(c.Pitch) == s {
			return true
		}
	}
	return false
}

// normalizeChord gives every member the chord's average duration and
// staggers starts off the minimum start so near-simultaneous attacks
// stay ordered and distinguishable.
func (a *Assembler) normalizeChord(chord []RawNote) []RawNote {
	if len(chord) == 0 {
		return nil
	}

	sort.SliceStable(chord, func(i, j int) bool {
		return chord[i].Pitch < chord[j].Pitch
	})

	var totalDuration float64
	start := chord[0].Start
	for _, n := range chord {
		totalDuration += n.End - n.Start
		if n.Start < start {
			start = n.Start
		}
	}
	avgDuration := totalDuration / float64(len(chord))

	out := make([]RawNote, len(chord))
	for i, n := range chord {
		n.Start = start + float64(i)*a.cfg.ChordTimeSpread
		n.End = n.Start + avgDuration
		out[i] = n
	}
	return out
}
