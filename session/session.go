// Package session owns the live game session: one state machine per
// websocket connection, driving scoring and the problem-section
// lifecycle over the message protocol.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/strumline/strumline/model"
	"github.com/strumline/strumline/mutation"
	"github.com/strumline/strumline/scoring"
	"github.com/strumline/strumline/store"
)

// Conn is the slice of a websocket connection the session needs.
// *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	Close() error
}

// Options wires a session's collaborators. Generator is required;
// Store is optional.
type Options struct {
	Conn      Conn
	Logger    *slog.Logger
	Generator mutation.Generator
	Store     *store.Store
	Engine    *scoring.Engine
	Now       func() time.Time
}

// Session is one live game session. All state is owned exclusively by
// the session's run loop; inbound messages are handled one at a time.
type Session struct {
	id        string
	conn      Conn
	log       *slog.Logger
	engine    *scoring.Engine
	generator mutation.Generator
	store     *store.Store
	now       func() time.Time

	warningLead     time.Duration
	problemDuration float64
	minSessionAge   float64
	problemInterval float64
	comboThreshold  int

	mode             model.Mode
	isPaused         bool
	isActive         bool
	currentNotes     []model.NoteEvent
	problemSection   *model.ProblemSection
	freestyleNotes   []model.NoteEvent
	score            float64
	lastHitTime      float64
	mutationStrength float64

	sessionStart       float64
	lastProblemTrigger float64
	problemCooldown    bool

	inbound      chan model.Message
	transportErr error
}

func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Engine == nil {
		opts.Engine = scoring.New(scoring.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	id := uuid.New().String()
	s := &Session{
		id:        id,
		conn:      opts.Conn,
		log:       opts.Logger.With("session_id", id),
		engine:    opts.Engine,
		generator: opts.Generator,
		store:     opts.Store,
		now:       opts.Now,

		warningLead:     5 * time.Second,
		problemDuration: 7.0,
		minSessionAge:   15,
		problemInterval: 15,
		comboThreshold:  5,

		mode:             model.ModeWaiting,
		isActive:         true,
		mutationStrength: 0.5,

		inbound: make(chan model.Message, 32),
	}
	s.sessionStart = s.nowUnix()
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) nowUnix() float64 {
	return float64(s.now().UnixNano()) / 1e9
}

// Run processes inbound messages until the session ends, the client
// disconnects, or the context is cancelled.
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.log.Info("new game session initialized")
	go s.readPump()

	s.sendMessage(model.MsgSessionState, s.snapshot())

	defer s.finalize()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.inbound:
			if !ok {
				// transport-level disconnect
				s.isActive = false
				return
			}
			if s.dispatch(ctx, msg) {
				return
			}
			if s.transportErr != nil {
				s.isActive = false
				return
			}
		}
	}
}

// readPump moves frames from the connection onto the inbound channel so
// the run loop stays the only goroutine touching session state.
func (s *Session) readPump() {
	defer close(s.inbound)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.log.Info("connection closed", "error", err)
			return
		}
		msg, err := model.DecodeMessage(data)
		if err != nil {
			// malformed input mutates nothing
			s.log.Warn("ignoring malformed message", "error", err)
			continue
		}
		s.inbound <- msg
	}
}

// dispatch handles one inbound message. It reports true once the
// session has ended.
func (s *Session) dispatch(ctx context.Context, msg model.Message) bool {
	switch msg.Type {
	case model.MsgSessionState:
		s.handleStateSync(msg.Payload)
	case model.MsgNoteHit:
		scored := s.handleNoteHit(msg.Payload)
		if scored && s.mode != model.ModeProblem && !s.problemCooldown && s.shouldTriggerProblem() {
			s.lastProblemTrigger = s.nowUnix()
			return s.runProblemSequence(ctx)
		}
	case model.MsgNoteMiss:
		s.engine.ResetCombo()
		s.sendMessage(model.MsgSessionState, s.snapshot())
	case model.MsgPauseGame:
		s.log.Info("game paused")
		s.isPaused = true
		s.sendMessage(model.MsgSessionState, s.snapshot())
	case model.MsgResumeGame:
		s.log.Info("game resumed")
		s.isPaused = false
		s.sendMessage(model.MsgSessionState, s.snapshot())
	case model.MsgEndGame:
		s.endSession()
		return true
	}
	return false
}

func (s *Session) handleStateSync(payload json.RawMessage) {
	var state model.StatePayload
	if err := json.Unmarshal(payload, &state); err != nil {
		s.log.Warn("ignoring malformed session_state payload", "error", err)
		return
	}

	raw := state.Notes
	if raw == nil {
		raw = state.CurrentNotes
	}
	if raw != nil {
		notes := make([]model.NoteEvent, 0, len(raw))
		for i, rn := range raw {
			id := i
			if rn.ID != nil {
				id = *rn.ID
			}
			n := model.NewNoteEvent(id, rn.Pitch, rn.Velocity, rn.Start, rn.End)
			if rn.String != "" {
				n.String = rn.String
			}
			n.Confidence = rn.Confidence
			notes = append(notes, n)
		}
		model.SortNotes(notes)
		s.currentNotes = notes
		if s.mode == model.ModeWaiting {
			s.mode = model.ModeNormal
		}
	}

	if state.Mode != nil {
		s.mode = *state.Mode
	}
	if state.IsPaused != nil {
		s.isPaused = *state.IsPaused
	}
	if state.IsActive != nil {
		s.isActive = *state.IsActive
	}
	if state.MutationStrength != nil {
		s.mutationStrength = *state.MutationStrength
	}
	if state.DifficultyLevel != nil {
		if err := s.engine.UpdateDifficulty(*state.DifficultyLevel); err != nil {
			s.sendMessage(model.MsgError, model.ErrorPayload{Error: err.Error()})
		}
	}

	s.sendMessage(model.MsgSessionState, s.snapshot())
}

// handleNoteHit reports whether the hit was actually scored. Ignored
// hits (malformed, unmatched, paused, freestyle) never count toward the
// problem trigger.
func (s *Session) handleNoteHit(payload json.RawMessage) bool {
	var hit model.NoteHitEvent
	if err := json.Unmarshal(payload, &hit); err != nil {
		s.log.Warn("ignoring malformed note_hit payload", "error", err)
		return false
	}
	s.lastHitTime = hit.HitTime

	var note *model.NoteEvent
	for i := range s.currentNotes {
		if s.currentNotes[i].ID == hit.NoteID {
			note = &s.currentNotes[i]
			break
		}
	}
	if note == nil {
		s.log.Debug("no matching note for hit", "note_id", hit.NoteID)
		return false
	}

	if s.mode == model.ModeProblem {
		s.freestyleNotes = append(s.freestyleNotes, *note)
		s.sendMessage(model.MsgNoteHit, *note)
		return false
	}

	if s.isPaused {
		return false
	}

	update := s.engine.Evaluate(s.currentNotes, []model.NoteEvent{*note}, s.nowUnix())
	s.score = update.TotalScore

	// score before state, so the client always pairs them consistently
	s.sendMessage(model.MsgScoreUpdate, model.ScoreUpdatePayload{
		Score:           s.score,
		TotalScore:      update.TotalScore,
		Combo:           s.engine.Combo(),
		ComboMultiplier: s.engine.ComboMultiplier(),
	})
	s.sendMessage(model.MsgSessionState, s.snapshot())
	return true
}

func (s *Session) endSession() {
	s.log.Info("ending game session")
	summary := model.SessionSummary{
		ID:         s.id,
		FinalScore: s.score,
		FinalCombo: s.engine.Combo(),
		TotalNotes: len(s.currentNotes),
		TimePlayed: s.nowUnix() - s.sessionStart,
		Difficulty: s.engine.Difficulty(),
	}
	s.isActive = false
	s.mode = model.ModeEnded

	if s.store != nil {
		if err := s.store.SaveSummary(summary); err != nil {
			s.log.Error("unable to save session summary", "error", err)
		}
	}

	s.sendMessage(model.MsgSessionEnd, model.SessionEndPayload{
		FinalScore: summary.FinalScore,
		FinalCombo: summary.FinalCombo,
		TotalNotes: summary.TotalNotes,
		TimePlayed: summary.TimePlayed,
	})
}

// finalize always attempts one last state broadcast, then closes the
// connection.
func (s *Session) finalize() {
	s.isActive = false
	s.sendMessage(model.MsgSessionState, s.snapshot())
	if err := s.conn.Close(); err != nil {
		s.log.Debug("error closing connection", "error", err)
	}
}

func (s *Session) snapshot() model.SessionSnapshot {
	return model.SessionSnapshot{
		Mode:             s.mode,
		CurrentNotes:     s.currentNotes,
		ProblemSection:   s.problemSection,
		Score:            s.score,
		Combo:            s.engine.Combo(),
		ComboMultiplier:  s.engine.ComboMultiplier(),
		DifficultyLevel:  s.engine.Difficulty(),
		LastHitTime:      s.lastHitTime,
		IsActive:         s.isActive,
		IsPaused:         s.isPaused,
		MutationStrength: s.mutationStrength,
	}
}

// sendMessage never propagates transport errors to its caller; the run
// loop checks transportErr between messages instead, so an in-flight
// problem sequence is never cut short by a failed send.
func (s *Session) sendMessage(typ model.MessageType, payload any) {
	msg := model.OutboundMessage{
		Type:      typ,
		Payload:   payload,
		Timestamp: s.nowUnix(),
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		s.log.Error("error sending message", "type", typ, "error", err)
		s.transportErr = err
	}
}
