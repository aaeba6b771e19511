package riff

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/strumline/strumline/model"
	"gitlab.com/gomidi/midi/v2/smf"
)

const defaultVelocity = 64

// ReadSMF parses a standard MIDI file from disk.
func ReadSMF(filepath string) (s *smf.SMF, e error) {
	var blank smf.SMF

	// the smf reader panics on some malformed files
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r, ok := recover().(string); ok {
			e = errors.New(r)
		}
	}()

	dat, err := os.ReadFile(filepath)
	if err != nil {
		return &blank, fmt.Errorf("error reading midi file: %w", err)
	}

	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return &blank, fmt.Errorf("error parsing midi file: %w", err)
	}
	return res, nil
}

// Notes flattens every track of an SMF into a note timeline. Note-ons
// without a matching note-off are closed at the last event time seen.
func Notes(s *smf.SMF) []model.NoteEvent {
	type openNote struct {
		start    float64
		velocity int
	}

	var notes []model.NoteEvent
	for _, track := range s.Tracks {
		pressed := make(map[uint8]openNote)
		var absTicks int64
		var lastTime float64
		for _, event := range track {
			absTicks += int64(event.Delta)
			// TimeAt reports microseconds
			absTime := float64(s.TimeAt(absTicks)) / 1e6
			lastTime = absTime

			var channel, key, velocity uint8
			switch {
			case event.Message.GetNoteStart(&channel, &key, &velocity):
				pressed[key] = openNote{start: absTime, velocity: int(velocity)}
			case event.Message.GetNoteEnd(&channel, &key):
				open, ok := pressed[key]
				if !ok {
					continue
				}
				delete(pressed, key)
				notes = append(notes, model.NewNoteEvent(
					0, int(key), open.velocity, open.start, absTime,
				))
			}
		}
		for key, open := range pressed {
			notes = append(notes, model.NewNoteEvent(
				0, int(key), open.velocity, open.start, lastTime,
			))
		}
	}

	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].Start != notes[j].Start {
			return notes[i].Start < notes[j].Start
		}
		return notes[i].Pitch < notes[j].Pitch
	})
	for i := range notes {
		notes[i].ID = i
	}
	return notes
}

// LoadFile reads a MIDI file into a note timeline.
func LoadFile(filepath string) ([]model.NoteEvent, error) {
	s, err := ReadSMF(filepath)
	if err != nil {
		return nil, err
	}
	return Notes(s), nil
}
