// Package server exposes the HTTP surface: health, song metadata, the
// assembler endpoint, and the websocket session route.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/strumline/strumline/assembler"
	"github.com/strumline/strumline/db"
	"github.com/strumline/strumline/model"
	"github.com/strumline/strumline/mutation"
	"github.com/strumline/strumline/session"
	"github.com/strumline/strumline/store"
)

type Server struct {
	log       *slog.Logger
	assembler *assembler.Assembler
	generator mutation.Generator
	store     *store.Store

	upgrader websocket.Upgrader
}

func New(log *slog.Logger, generator mutation.Generator, st *store.Store) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		log:       log,
		assembler: assembler.New(assembler.DefaultConfig()),
		generator: generator,
		store:     st,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/health", s.HandleHealth).Methods("GET")
	router.HandleFunc("/songs", s.HandleSongs).Methods("POST")
	router.HandleFunc("/assemble", s.HandleAssemble).Methods("POST")
	router.HandleFunc("/ws", s.HandleWS)
	return router
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// SongsRequestBody asks for metadata on up to ten songs at a time.
type SongsRequestBody struct {
	IDs []string `json:"ids"`
}

func (s *Server) HandleSongs(w http.ResponseWriter, r *http.Request) {
	var input SongsRequestBody
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "could not parse request body", http.StatusBadRequest)
		return
	}

	metadatas, err := db.GetSongMetadatas(input.IDs)
	if err != nil {
		s.log.Error("song metadata lookup failed", "error", err)
		http.Error(w, "metadata lookup failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, metadatas)
}

// AssembleRequestBody carries ordered, already-decoded detection chunks.
type AssembleRequestBody struct {
	Chunks []assembler.Chunk `json:"chunks"`
}

// AssembleResponse is the resulting clean timeline.
type AssembleResponse struct {
	Notes []model.NoteEvent `json:"notes"`
}

func (s *Server) HandleAssemble(w http.ResponseWriter, r *http.Request) {
	var input AssembleRequestBody
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "could not parse request body", http.StatusBadRequest)
		return
	}

	notes := s.assembler.Assemble(input.Chunks)
	if notes == nil {
		notes = []model.NoteEvent{}
	}
	writeJSON(w, AssembleResponse{Notes: notes})
}

// HandleWS upgrades the connection and runs one session to completion.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "error", err)
		return
	}

	sess := session.New(session.Options{
		Conn:      conn,
		Logger:    s.log,
		Generator: s.generator,
		Store:     s.store,
	})
	sess.Run(r.Context())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("could not encode response", "error", err)
	}
}
