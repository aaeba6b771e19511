package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/strumline/strumline/model"
)

func rawNote(pitch int, start, end float64) RawNote {
	return RawNote{Pitch: pitch, Velocity: 100, Start: start, End: end}
}

func TestDropsNoteInNextChunksRegion(t *testing.T) {
	a := New(DefaultConfig())

	// hop is 10s; chunk 0 owns [0, 10)
	notes := a.Assemble([]Chunk{
		{Index: 0, Notes: []RawNote{
			rawNote(45, 10.01, 10.5),
			rawNote(45, 9.99, 10.5),
		}},
		{Index: 1, Notes: nil},
	})

	assert := assert.New(t)
	assert.Len(notes, 1)
	assert.InDelta(9.99, notes[0].Start, 1e-9)
}

func TestLastChunkKeepsAllNotes(t *testing.T) {
	a := New(DefaultConfig())

	notes := a.Assemble([]Chunk{
		{Index: 0, Notes: []RawNote{rawNote(45, 10.01, 10.5)}},
	})

	assert.Len(t, notes, 1)
}

func TestFiltersUnplayableNotes(t *testing.T) {
	a := New(DefaultConfig())

	tooShort := rawNote(45, 0, 0.05)
	tooLong := rawNote(45, 0, 2.5)
	tooQuiet := RawNote{Pitch: 45, Velocity: 49, Start: 0, End: 0.5}
	inverted := rawNote(45, 1.0, 0.5)
	badPitch := RawNote{Pitch: 200, Velocity: 100, Start: 0, End: 0.5}
	keeper := rawNote(45, 3, 3.5)

	notes := a.Assemble([]Chunk{
		{Index: 0, Notes: []RawNote{tooShort, tooLong, tooQuiet, inverted, badPitch, keeper}},
	})

	assert := assert.New(t)
	assert.Len(notes, 1)
	assert.Equal(45, notes[0].Pitch)
	assert.InDelta(3.0, notes[0].Start, 1e-9)
}

func TestRateLimitsNotesPerStringWindow(t *testing.T) {
	a := New(DefaultConfig())

	// five A-string notes inside one second; only three admitted
	var raw []RawNote
	for i := 0; i < 5; i++ {
		start := float64(i) * 0.2
		raw = append(raw, rawNote(42, start, start+0.15))
	}

	notes := a.Assemble([]Chunk{{Index: 0, Notes: raw}})

	assert.Len(t, notes, 3)
}

func TestRateLimitWindowSlides(t *testing.T) {
	a := New(DefaultConfig())

	// three in the first second, then one well clear of the window
	raw := []RawNote{
		rawNote(42, 0.0, 0.15),
		rawNote(42, 0.3, 0.45),
		rawNote(42, 0.6, 0.75),
		rawNote(42, 2.0, 2.15),
	}

	notes := a.Assemble([]Chunk{{Index: 0, Notes: raw}})

	assert.Len(t, notes, 4)
}

func TestTimelineHonorsDensityProperty(t *testing.T) {
	a := New(DefaultConfig())

	var raw []RawNote
	for i := 0; i < 40; i++ {
		start := float64(i) * 0.11
		raw = append(raw, rawNote(41+i%3, start, start+0.12))
	}

	notes := a.Assemble([]Chunk{{Index: 0, Notes: raw}})

	assert := assert.New(t)
	for i := 1; i < len(notes); i++ {
		assert.LessOrEqual(notes[i-1].Start, notes[i].Start)
	}
	for i, n := range notes {
		count := 0
		for _, m := range notes {
			if m.String == n.String && m.Start > n.Start-1.0 && m.Start <= n.Start {
				count++
			}
		}
		assert.LessOrEqualf(count, 3, "note %v exceeds window density", i)
	}
}

func TestChordTimingNormalized(t *testing.T) {
	a := New(DefaultConfig())

	// three near-simultaneous notes on distinct strings
	raw := []RawNote{
		rawNote(40, 1.000, 1.400), // low E
		rawNote(47, 1.010, 1.600), // D
		rawNote(52, 1.020, 1.700), // G
	}

	notes := a.Assemble([]Chunk{{Index: 0, Notes: raw}})

	assert := assert.New(t)
	assert.Len(notes, 3)

	avg := (0.4 + 0.59 + 0.68) / 3
	for i, n := range notes {
		assert.InDelta(1.0+float64(i)*0.001, n.Start, 1e-9)
		assert.InDelta(avg, n.Duration(), 1e-9)
	}
}

func TestChordSplitsOnDuplicateString(t *testing.T) {
	a := New(DefaultConfig())

	// two A-string notes cannot share a chord
	raw := []RawNote{
		rawNote(41, 1.000, 1.300),
		rawNote(43, 1.010, 1.300),
	}

	notes := a.Assemble([]Chunk{{Index: 0, Notes: raw}})

	assert := assert.New(t)
	assert.Len(notes, 2)
	assert.Equal(model.StringA, notes[0].String)
	assert.Equal(model.StringA, notes[1].String)
	// second note flushed as its own chord, timing untouched
	assert.InDelta(1.010, notes[1].Start, 1e-9)
}

func TestChordCapsAtFourNotes(t *testing.T) {
	a := New(DefaultConfig())

	raw := []RawNote{
		rawNote(38, 1.000, 1.300),
		rawNote(42, 1.005, 1.300),
		rawNote(47, 1.010, 1.300),
		rawNote(52, 1.015, 1.300),
		rawNote(57, 1.020, 1.300),
	}

	notes := a.Assemble([]Chunk{{Index: 0, Notes: raw}})

	assert := assert.New(t)
	assert.Len(notes, 5)
	// fifth note starts its own chord at its own time
	assert.InDelta(1.020, notes[4].Start, 1e-9)
}

func TestAssignsSequentialIDs(t *testing.T) {
	a := New(DefaultConfig())

	raw := []RawNote{
		rawNote(40, 2.0, 2.3),
		rawNote(45, 0.0, 0.3),
	}

	notes := a.Assemble([]Chunk{{Index: 0, Notes: raw}})

	assert := assert.New(t)
	assert.Len(notes, 2)
	for i, n := range notes {
		assert.Equal(i, n.ID)
	}
	assert.InDelta(0.0, notes[0].Start, 1e-9)
}
