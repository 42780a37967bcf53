// Package api exposes the monitor state and the operator controls over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/squadracorsepolito/bmsmon/catalog"
	"github.com/squadracorsepolito/bmsmon/consumer"
	"github.com/squadracorsepolito/bmsmon/frame"
	"github.com/squadracorsepolito/bmsmon/history"
	"github.com/squadracorsepolito/bmsmon/internal"
	"github.com/squadracorsepolito/bmsmon/pipeline"
)

type Config struct {
	Enabled bool
	Addr    string
}

func NewDefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Addr:    "127.0.0.1:8080",
	}
}

// Controller is the part of the pipeline driven by the server.
type Controller interface {
	TogglePause(ctx context.Context) (bool, error)
	SetPaused(ctx context.Context, paused bool) error
	ToggleDemo(ctx context.Context) (bool, error)
	SetDemo(ctx context.Context, on bool) error
	SelectSignal(ctx context.Context, name string) error
	ClearSelected(ctx context.Context) error
	ClearSignal(ctx context.Context, name string) error

	Snapshot(ctx context.Context, key string) (consumer.Snapshot, bool, error)
	PlotView(ctx context.Context) (pipeline.PlotView, error)
	History(ctx context.Context, name string, n int) ([]history.Sample, error)
	Unmatched(ctx context.Context) (pipeline.UnmatchedView, error)
	Status(ctx context.Context) (pipeline.Status, error)
}

var _ Controller = (*pipeline.Pipeline)(nil)

// Server serves the monitor API.
type Server struct {
	tel *internal.Telemetry

	ctrl  Controller
	board *consumer.Board
	plots *pipeline.PlotCache
	cat   catalog.Catalog

	router *mux.Router
}

// NewServer returns a server reading consumer states from board
// and the plot view from plots.
func NewServer(ctrl Controller, board *consumer.Board, plots *pipeline.PlotCache, cat catalog.Catalog) *Server {
	s := &Server{
		tel: internal.NewTelemetry("api", "http"),

		ctrl:  ctrl,
		board: board,
		plots: plots,
		cat:   cat,

		router: mux.NewRouter(),
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/api/v1/status", s.handleStatus).Methods("GET")

	s.router.HandleFunc("/api/v1/consumers", s.handleListConsumers).Methods("GET")
	s.router.HandleFunc("/api/v1/consumers/{key}", s.handleGetConsumer).Methods("GET")

	s.router.HandleFunc("/api/v1/signals", s.handleListSignals).Methods("GET")
	s.router.HandleFunc("/api/v1/signals/{name}", s.handleGetSignal).Methods("GET")
	s.router.HandleFunc("/api/v1/signals/{name}/history", s.handleSignalHistory).Methods("GET")
	s.router.HandleFunc("/api/v1/signals/{name}/history", s.handleClearSignal).Methods("DELETE")

	s.router.HandleFunc("/api/v1/plot", s.handlePlot).Methods("GET")
	s.router.HandleFunc("/api/v1/plot", s.handleSelect).Methods("PUT")
	s.router.HandleFunc("/api/v1/plot/samples", s.handleClearPlot).Methods("DELETE")

	s.router.HandleFunc("/api/v1/unmatched", s.handleUnmatched).Methods("GET")

	s.router.HandleFunc("/api/v1/pause", s.handlePause).Methods("POST")
	s.router.HandleFunc("/api/v1/demo", s.handleDemo).Methods("POST")

	s.router.Use(s.loggingMiddleware)
	s.router.Use(jsonMiddleware)
}

// Router returns the configured router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ListenAndServe serves the API on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.tel.LogInfo("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.tel.LogDebug("request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: false, Error: message})
}

func (s *Server) respondCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrUnknownSignal):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, pipeline.ErrConnected):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.tel.LogError("command failed", err)
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.ctrl.Status(r.Context())
	if err != nil {
		s.respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleListConsumers(w http.ResponseWriter, r *http.Request) {
	states := s.board.All()

	kind := r.URL.Query().Get("kind")

	snaps := make([]consumer.Snapshot, 0, len(states))
	for _, snap := range states {
		if kind != "" && snap.Kind.String() != kind {
			continue
		}
		snaps = append(snaps, snap)
	}

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Key < snaps[j].Key })

	respondJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleGetConsumer(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	snap, ok, err := s.ctrl.Snapshot(r.Context(), key)
	if err != nil {
		s.respondCommandError(w, err)
		return
	}

	if !ok {
		respondError(w, http.StatusNotFound, "consumer not found")
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

type signalInfo struct {
	Name        string `json:"name"`
	Unit        string `json:"unit"`
	MessageID   string `json:"message_id"`
	Description string `json:"description"`
}

func newSignalInfo(sig catalog.SignalDef) signalInfo {
	return signalInfo{
		Name:        sig.Name,
		Unit:        sig.Unit,
		MessageID:   frame.FormatID(sig.MessageID),
		Description: catalog.Describe(sig.Name),
	}
}

func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request) {
	signals := s.cat.Signals()

	infos := make([]signalInfo, 0, len(signals))
	for _, sig := range signals {
		infos = append(infos, newSignalInfo(sig))
	}

	respondJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetSignal(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	for _, sig := range s.cat.Signals() {
		if sig.Name == name {
			respondJSON(w, http.StatusOK, newSignalInfo(sig))
			return
		}
	}

	respondError(w, http.StatusNotFound, "signal not found")
}

func (s *Server) handleSignalHistory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	limit := history.PlotWindow
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	samples, err := s.ctrl.History(r.Context(), name, limit)
	if err != nil {
		s.respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, samples)
}

func (s *Server) handleClearSignal(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := s.ctrl.ClearSignal(r.Context(), name); err != nil {
		s.respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"cleared": name})
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	if s.plots != nil {
		if view, ok := s.plots.Get(); ok {
			respondJSON(w, http.StatusOK, view)
			return
		}
	}

	// Nothing refreshed yet
	view, err := s.ctrl.PlotView(r.Context())
	if err != nil {
		s.respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type selectRequest struct {
	Signal string `json:"signal"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := s.ctrl.SelectSignal(r.Context(), req.Signal); err != nil {
		s.respondCommandError(w, err)
		return
	}

	s.handlePlot(w, r)
}

func (s *Server) handleClearPlot(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.ClearSelected(r.Context()); err != nil {
		s.respondCommandError(w, err)
		return
	}

	s.handlePlot(w, r)
}

func (s *Server) handleUnmatched(w http.ResponseWriter, r *http.Request) {
	view, err := s.ctrl.Unmatched(r.Context())
	if err != nil {
		s.respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// toggleRequest sets the flag to Enabled, or flips it when Enabled is missing.
type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

func decodeToggle(r *http.Request) (toggleRequest, error) {
	var req toggleRequest
	if r.ContentLength == 0 {
		return req, nil
	}

	err := json.NewDecoder(r.Body).Decode(&req)
	if errors.Is(err, io.EOF) {
		return req, nil
	}
	return req, err
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	req, err := decodeToggle(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	paused := false
	if req.Enabled == nil {
		paused, err = s.ctrl.TogglePause(r.Context())
	} else {
		paused = *req.Enabled
		err = s.ctrl.SetPaused(r.Context(), paused)
	}
	if err != nil {
		s.respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"paused": paused})
}

func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	req, err := decodeToggle(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	demo := false
	if req.Enabled == nil {
		demo, err = s.ctrl.ToggleDemo(r.Context())
	} else {
		demo = *req.Enabled
		err = s.ctrl.SetDemo(r.Context(), demo)
	}
	if err != nil {
		s.respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"demo": demo})
}
