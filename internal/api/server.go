// Package api serves the city builder over JSON HTTP. The caller's user id
// comes from the X-User-ID header; authentication happens in front of this
// server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GitRon/norimberga-sub001/internal/catalog"
	"github.com/GitRon/norimberga-sub001/internal/engine"
	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

// Server serves savegames over HTTP.
type Server struct {
	Store   engine.Store
	Catalog *catalog.Catalog
	Locks   *engine.Locks
	Port    int

	// New game setup.
	NewGame engine.NewGameOptions

	// Requests per minute per client on mutating endpoints. Zero disables
	// the limit.
	RateLimit int
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	if s.Locks == nil {
		s.Locks = engine.NewLocks()
	}

	limit := func(next http.HandlerFunc) http.HandlerFunc { return next }
	if s.RateLimit > 0 {
		rl := NewRateLimiter(s.RateLimit, time.Minute)
		limit = func(next http.HandlerFunc) http.HandlerFunc {
			return RateLimitMiddleware(rl, next)
		}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/status", s.handleStatus)

	mux.HandleFunc("POST /api/v1/savegames", limit(s.withUser(s.handleCreateSavegame)))
	mux.HandleFunc("GET /api/v1/savegame", s.withUser(s.handleSavegame))
	mux.HandleFunc("GET /api/v1/savegame/tiles", s.withUser(s.handleTiles))
	mux.HandleFunc("POST /api/v1/savegame/build", limit(s.withUser(s.handleBuild)))
	mux.HandleFunc("POST /api/v1/savegame/demolish", limit(s.withUser(s.handleDemolish)))
	mux.HandleFunc("POST /api/v1/savegame/round", limit(s.withUser(s.handleRound)))

	mux.HandleFunc("GET /api/v1/milestones", s.withUser(s.handleMilestones))
	mux.HandleFunc("GET /api/v1/edicts", s.withUser(s.handleEdicts))
	mux.HandleFunc("POST /api/v1/edicts/{key}/activate", limit(s.withUser(s.handleActivateEdict)))
	mux.HandleFunc("GET /api/v1/threads", s.withUser(s.handleThreads))
	mux.HandleFunc("GET /api/v1/events", s.withUser(s.handleEvents))

	return requestLogger(mux)
}

// Start begins serving in a goroutine and returns the server for shutdown.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "rate_limit_per_minute", s.RateLimit)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

type userHandler func(w http.ResponseWriter, r *http.Request, userID int64)

// withUser resolves the caller from the X-User-ID header.
func (s *Server) withUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get("X-User-ID"))
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			http.Error(w, "missing or invalid X-User-ID", http.StatusUnauthorized)
			return
		}
		next(w, r, userID)
	}
}

// activeSavegame loads the caller's savegame, writing the error response
// when there is none.
func (s *Server) activeSavegame(w http.ResponseWriter, r *http.Request, userID int64) (*savegame.Savegame, bool) {
	sg, err := s.Store.ActiveSavegame(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return sg, true
}

// locked runs fn with the caller's savegame lock held. The savegame is
// reloaded after the lock is taken so fn sees every earlier mutation.
func (s *Server) locked(w http.ResponseWriter, r *http.Request, userID int64, fn func(sg *savegame.Savegame)) {
	sg, ok := s.activeSavegame(w, r, userID)
	if !ok {
		return
	}
	unlock := s.Locks.Lock(sg.ID)
	defer unlock()

	sg, err := s.Store.Savegame(r.Context(), sg.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	fn(sg)
}

// fail maps an error onto a response. Missing rows are 404, anything else
// is logged and reported as 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		http.Error(w, "no active savegame", http.StatusNotFound)
	case errors.Is(err, context.Canceled):
		// Client went away.
	default:
		slog.Error("request failed", "path", r.URL.Path, "request_id", requestID(r.Context()), "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Debug("write response", "error", err)
	}
}
