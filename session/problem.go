package session

import (
	"context"
	"time"

	"github.com/strumline/strumline/model"
	"github.com/strumline/strumline/util"
)

// shouldTriggerProblem is the problem trigger predicate: enough session
// age, enough distance from the last section, and a hot enough combo.
func (s *Session) shouldTriggerProblem() bool {
	now := s.nowUnix()
	if now-s.sessionStart < s.minSessionAge {
		return false
	}
	if now-s.lastProblemTrigger < s.problemInterval {
		return false
	}
	return s.engine.Combo() >= s.comboThreshold
}

// runProblemSequence drives the timed problem-section lifecycle:
// generate, warn, wait, play, evaluate, merge. It reports true if the
// session ended while the section was in flight.
func (s *Session) runProblemSequence(ctx context.Context) bool {
	s.log.Info("starting problem section sequence")
	s.problemCooldown = true

	section, err := s.generator.GenerateProblemSection(
		ctx,
		s.currentNotes,
		s.engine.Metrics(),
		s.problemDuration,
	)
	if err != nil {
		// collaborator failure: back to normal play, no crash
		s.log.Error("problem section generation failed", "error", err)
		s.sendMessage(model.MsgError, model.ErrorPayload{Error: "failed to generate problem section"})
		s.problemCooldown = false
		return false
	}
	s.problemSection = section

	s.sendMessage(model.MsgProblemWarning, model.ProblemWarningPayload{
		Warning:  "Problem section incoming",
		Duration: s.warningLead.Seconds(),
	})

	// warm-up: inbound frames stay queued until the section starts
	if !s.wait(ctx, s.warningLead) {
		return true
	}

	s.mode = model.ModeProblem
	s.freestyleNotes = nil
	s.sendMessage(model.MsgProblemStart, section)

	duration := section.ProblemDuration
	if duration <= 0 {
		duration = s.problemDuration
	}
	ended := s.waitDispatching(ctx, time.Duration(duration*float64(time.Second)))
	if ended {
		return true
	}

	s.endProblemSection()
	return false
}

// endProblemSection folds the good freestyle notes back into the
// timeline and returns to normal play.
func (s *Session) endProblemSection() {
	s.log.Info("ending problem section", "freestyle_notes", len(s.freestyleNotes))

	good := s.goodFreestyleNotes()
	if len(good) > 0 {
		s.log.Info("incorporating good freestyle notes", "count", len(good))
		s.currentNotes = append(s.currentNotes, good...)
		model.SortNotes(s.currentNotes)
	}

	s.problemSection = nil
	s.freestyleNotes = nil
	s.mode = model.ModeNormal
	s.sendMessage(model.MsgProblemEnd, model.ProblemEndPayload{
		Mode:         model.ModeNormal,
		CurrentNotes: s.currentNotes,
	})
	s.problemCooldown = false
}

// goodFreestyleNotes keeps freestyle notes within a semitone of some
// original problem note.
func (s *Session) goodFreestyleNotes() []model.NoteEvent {
	if s.problemSection == nil {
		return nil
	}
	var good []model.NoteEvent
	for _, freestyle := range s.freestyleNotes {
		for _, original := range s.problemSection.OriginalNotes {
			if util.Abs(freestyle.Pitch-original.Pitch) <= 1 {
				good = append(good, freestyle)
				break
			}
		}
	}
	return good
}

// wait blocks for d without touching the inbound queue. It reports
// false if the context was cancelled first.
func (s *Session) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// waitDispatching blocks for d while still dispatching inbound frames,
// so hits during the section land in the freestyle buffer. It reports
// true if the session ended before the timer fired.
func (s *Session) waitDispatching(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return true
		case <-timer.C:
			return false
		case msg, ok := <-s.inbound:
			if !ok {
				s.isActive = false
				return true
			}
			if s.dispatch(ctx, msg) {
				return true
			}
		}
	}
}
