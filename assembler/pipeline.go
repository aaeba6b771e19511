package assembler

import (
	"context"
	"runtime"

	"github.com/strumline/strumline/model"
	"golang.org/x/sync/errgroup"
)

// AudioChunk is one fixed-length slice of the audio stream, opaque to
// the assembler.
type AudioChunk struct {
	Index      int
	SampleRate int
	Data       []byte
}

// TimeOffset is the absolute stream time at which the chunk begins.
func (c AudioChunk) TimeOffset(hop float64) float64 {
	return float64(c.Index) * hop
}

// Detector is the note-detection backend. Implementations return note
// candidates local to the chunk; the pipeline shifts them to stream
// time before assembly.
type Detector interface {
	Detect(ctx context.Context, chunk AudioChunk) ([]RawNote, error)
}

// Pipeline is the two-phase chunk pipeline: parallel per-chunk decode
// followed by the order-dependent merge passes.
type Pipeline struct {
	detector  Detector
	assembler *Assembler
	workers   int
}

func NewPipeline(detector Detector, cfg Config) *Pipeline {
	return &Pipeline{
		detector:  detector,
		assembler: New(cfg),
		workers:   runtime.NumCPU(),
	}
}

// Run decodes every chunk on the worker pool, shifts candidates to
// stream time, then applies the sequential merge in chunk order.
// Cancelling the context releases pending workers promptly.
func (p *Pipeline) Run(ctx context.Context, chunks []AudioChunk) ([]model.NoteEvent, error) {
	decoded := make([]Chunk, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			notes, err := p.detector.Detect(gctx, chunk)
			if err != nil {
				return err
			}
			offset := chunk.TimeOffset(p.assembler.cfg.Hop)
			for j := range notes {
				notes[j].Start += offset
				notes[j].End += offset
			}
			decoded[i] = Chunk{Index: chunk.Index, Notes: notes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return p.assembler.Assemble(decoded), nil
}
