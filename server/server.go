// Package server exposes a running player over HTTP: its status and tape can
// be read, and the tape edited, e.g. from a browser.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/vsariola/looper"
	"github.com/vsariola/looper/player"
	"github.com/vsariola/looper/storage"
)

type (
	Server struct {
		broker  *player.Broker
		timeout time.Duration
		handler http.Handler
		logger  *log.Logger
	}

	StatusResponse struct {
		Pos       looper.Pos               `json:"pos"`
		Recording bool                     `json:"recording"`
		Faults    int                      `json:"faults"`
		Settings  looper.SequencerSettings `json:"settings"`
		Notes     []storage.NoteRecord     `json:"notes"`
	}

	RecordingRequest struct {
		Recording bool `json:"recording"`
	}
)

// New returns a server talking to the player through broker. Queries to the
// player time out after timeout.
func New(broker *player.Broker, timeout time.Duration, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{broker: broker, timeout: timeout, logger: logger}
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/status", s.handleStatus).Methods("GET")
	router.HandleFunc("/tape", s.handleGetTape).Methods("GET")
	router.HandleFunc("/tape", s.handlePutTape).Methods("PUT")
	router.HandleFunc("/tape", s.command(player.RemoveAllMsg{})).Methods("DELETE")
	router.HandleFunc("/notes/oldest", s.command(player.RemoveOldestMsg{})).Methods("DELETE")
	router.HandleFunc("/notes/newest", s.command(player.RemoveNewestMsg{})).Methods("DELETE")
	router.HandleFunc("/rewind", s.command(player.RewindMsg{})).Methods("POST")
	router.HandleFunc("/recording", s.handleRecording).Methods("PUT")
	router.HandleFunc("/settings", s.handleSettings).Methods("PUT")
	s.handler = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.handler}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) query(w http.ResponseWriter) (player.Status, bool) {
	status, ok := s.broker.Query(s.timeout)
	if !ok {
		http.Error(w, "player did not respond", http.StatusGatewayTimeout)
	}
	return status, ok
}

func (s *Server) send(w http.ResponseWriter, msg any) bool {
	if !player.TrySend(s.broker.ToPlayer, msg) {
		http.Error(w, "player is busy", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) command(msg any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.send(w, msg) {
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := s.query(w)
	if !ok {
		return
	}
	snapshot := storage.NewSnapshot(status.Tape, nil)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(StatusResponse{
		Pos:       status.Pos,
		Recording: status.Recording,
		Faults:    status.Faults,
		Settings:  status.Settings,
		Notes:     snapshot.Notes,
	}); err != nil {
		s.logger.Printf("server: writing status: %v", err)
	}
}

func (s *Server) handleGetTape(w http.ResponseWriter, r *http.Request) {
	status, ok := s.query(w)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := storage.WriteSnapshot(&buf, storage.NewSnapshot(status.Tape, &status.Settings)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(buf.Bytes())
}

func (s *Server) handlePutTape(w http.ResponseWriter, r *http.Request) {
	snapshot, err := storage.ReadSnapshot(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid tape: %v", err), http.StatusBadRequest)
		return
	}
	tape, err := snapshot.Tape()
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid tape: %v", err), http.StatusBadRequest)
		return
	}
	if snapshot.Settings != nil {
		if err := checkSettings(*snapshot.Settings); err != nil {
			http.Error(w, fmt.Sprintf("invalid tape: %v", err), http.StatusBadRequest)
			return
		}
		if !s.send(w, player.SettingsMsg{Settings: *snapshot.Settings}) {
			return
		}
	}
	if s.send(w, player.LoadMsg{Tape: tape}) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request) {
	var req RecordingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON input", http.StatusBadRequest)
		return
	}
	if s.send(w, player.Recording(req.Recording)) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var settings looper.SequencerSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, fmt.Sprintf("invalid settings: %v", err), http.StatusBadRequest)
		return
	}
	if err := checkSettings(settings); err != nil {
		http.Error(w, fmt.Sprintf("invalid settings: %v", err), http.StatusBadRequest)
		return
	}
	if s.send(w, player.SettingsMsg{Settings: settings}) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// checkSettings rejects settings the player cannot run with: a zero loop
// length would stop the clock from syncing.
func checkSettings(settings looper.SequencerSettings) error {
	switch {
	case settings.LoopLength == 0:
		return errors.New("loop length must be positive")
	case int(settings.ClockDivision) >= len(looper.ClockDivisions):
		return fmt.Errorf("clock division %d out of range", settings.ClockDivision)
	case settings.PlayMode >= looper.PlayModeLast:
		return fmt.Errorf("%w: %d", looper.ErrUnknownPlayMode, settings.PlayMode)
	}
	return nil
}
