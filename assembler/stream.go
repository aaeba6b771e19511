package assembler

import (
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/strumline/strumline/model"
)

// Stream feeds chunks to an assembler as they arrive and notifies a
// listener with the rebuilt timeline, debounced so a burst of chunks
// produces one notification.
type Stream struct {
	mu        sync.Mutex
	assembler *Assembler
	chunks    []Chunk
	debounced func(func())
	onUpdate  func([]model.NoteEvent)
}

func NewStream(cfg Config, wait time.Duration, onUpdate func([]model.NoteEvent)) *Stream {
	return &Stream{
		assembler: New(cfg),
		debounced: debounce.New(wait),
		onUpdate:  onUpdate,
	}
}

// Feed appends one decoded chunk. Chunks must arrive in stream order.
func (s *Stream) Feed(chunk Chunk) {
	s.mu.Lock()
	s.chunks = append(s.chunks, chunk)
	s.mu.Unlock()

	s.debounced(s.notify)
}

// Timeline rebuilds the timeline from every chunk seen so far.
func (s *Stream) Timeline() []model.NoteEvent {
	s.mu.Lock()
	chunks := make([]Chunk, len(s.chunks))
	copy(chunks, s.chunks)
	s.mu.Unlock()

	return s.assembler.Assemble(chunks)
}

func (s *Stream) notify() {
	if s.onUpdate != nil {
		s.onUpdate(s.Timeline())
	}
}
