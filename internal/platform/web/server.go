// Package web serves games over HTTP. Each game is a session controller
// driven one request at a time; websocket clients watching a game receive
// every event as it happens.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vovakirdan/tilt2048/internal/config"
	"github.com/vovakirdan/tilt2048/internal/storage"
)

const (
	requestTimeout    = 10 * time.Second
	maxBodyBytes      = 64 << 10
	defaultScoreLimit = 10
)

// Server bundles the router, the game manager and the websocket hub.
type Server struct {
	r      *chi.Mux
	games  *Manager
	hub    *Hub
	store  *storage.Store
	logger *log.Logger
	addr   string

	srv *http.Server
	ln  net.Listener
}

// NewServer wires routes and starts the hub and idle-game cleanup. store may
// be nil. Close or Shutdown releases the background goroutines.
func NewServer(cfg config.Config, store *storage.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.WithPrefix("http")

	s := &Server{
		r:      chi.NewRouter(),
		store:  store,
		logger: logger,
		addr:   cfg.Server.HTTPAddr,
	}
	s.hub = NewHub(s.handleSocketCommand, logger)
	s.games = NewManager(ManagerConfig{
		Defaults:    cfg,
		MaxGames:    cfg.Server.MaxGames,
		IdleTimeout: cfg.Server.IdleTimeout,
	}, store, s.hub, logger)

	go s.hub.Run()
	s.games.Start()

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(requestLogger(logger))
	s.r.Use(chimw.Recoverer)
	s.r.Use(jsonContentType)

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "games": s.games.Len()})
	})

	s.r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(requestTimeout))
			r.Post("/games", s.handleCreateGame)
			r.Get("/games", s.handleListGames)
			r.Get("/games/{id}", s.handleGetGame)
			r.Post("/games/{id}/commands", s.handleCommands)
			r.Delete("/games/{id}", s.handleDeleteGame)
			r.Get("/scores", s.handleVariants)
			r.Get("/scores/{variant}", s.handleScores)
		})
		// Long-lived; no handler timeout.
		r.Get("/games/{id}/ws", s.handleSocket)
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
	s.r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	})

	return s
}

// Router exposes the handler (useful for tests).
func (s *Server) Router() http.Handler { return s.r }

// Games returns the game manager.
func (s *Server) Games() *Manager { return s.games }

// ListenAndServe serves HTTP until Shutdown. A clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.r,
		ReadHeaderTimeout: requestTimeout,
	}

	s.logger.Info("listening", "addr", ln.Addr().String())
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address once serving, else the configured one.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Shutdown stops accepting requests and closes every websocket.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.Close()
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// Close stops the hub and the cleanup loop.
func (s *Server) Close() {
	s.games.Stop()
	s.hub.Stop()
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}

// ------------------------------- games -------------------------------------

type commandsReq struct {
	Command  string   `json:"command,omitempty"`
	Commands []string `json:"commands,omitempty"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !decodeBody(w, r, &req, true) {
		return
	}

	state, err := s.games.Create(req)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	w.Header().Set("Location", "/api/games/"+state.ID)
	writeJSON(w, http.StatusCreated, state)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.games.List())
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, err := s.games.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g.State())
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	var req commandsReq
	if !decodeBody(w, r, &req, false) {
		return
	}
	tokens := req.Commands
	if req.Command != "" {
		tokens = append([]string{req.Command}, tokens...)
	}
	if len(tokens) == 0 {
		writeError(w, http.StatusBadRequest, "no_commands")
		return
	}

	state, err := s.games.Apply(chi.URLParam(r, "id"), tokens)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := s.games.Delete(chi.URLParam(r, "id")); err != nil {
		s.writeGameError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.games.Get(id); err != nil {
		s.writeGameError(w, err)
		return
	}
	s.hub.ServeWS(w, r, id, func(register func(*Message)) error {
		return s.games.Watch(id, func(state GameState, seq uint64) {
			register(&Message{GameID: id, Seq: seq, Event: "state", State: &state})
		})
	})
}

// handleSocketCommand applies a token sent by a websocket client. The result
// reaches the client through the hub.
func (s *Server) handleSocketCommand(gameID, token string) {
	if _, err := s.games.Apply(gameID, []string{token}); err != nil {
		s.logger.Debug("websocket command rejected", "game", gameID, "command", token, "error", err)
	}
}

// ------------------------------- scores ------------------------------------

type scoreRow struct {
	Rank      int       `json:"rank"`
	Player    string    `json:"player,omitempty"`
	Score     int       `json:"score"`
	MaxTile   int       `json:"max_tile"`
	Moves     int       `json:"moves"`
	Won       bool      `json:"won"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []string{})
		return
	}
	variants, err := s.store.Variants()
	if err != nil {
		s.logger.Error("list variants", "error", err)
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if variants == nil {
		variants = []string{}
	}
	writeJSON(w, http.StatusOK, variants)
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	limit := defaultScoreLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_limit")
			return
		}
		limit = n
	}

	rows := []scoreRow{}
	if s.store != nil {
		entries, err := s.store.TopScores(chi.URLParam(r, "variant"), limit)
		if err != nil {
			s.logger.Error("top scores", "error", err)
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		for i, e := range entries {
			rows = append(rows, scoreRow{
				Rank:      i + 1,
				Player:    e.Player,
				Score:     e.Score,
				MaxTile:   e.MaxTile,
				Moves:     e.Moves,
				Won:       e.Won,
				CreatedAt: e.CreatedAt,
			})
		}
	}
	writeJSON(w, http.StatusOK, rows)
}

// ------------------------------ helpers ------------------------------------

// decodeBody reads a JSON body into v. An empty body is accepted when
// optional is set.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	writeError(w, http.StatusBadRequest, "bad_json")
	return false
}

func (s *Server) writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrGameNotFound):
		writeError(w, http.StatusNotFound, "game_not_found")
	case errors.Is(err, ErrTooManyGames):
		writeError(w, http.StatusServiceUnavailable, "too_many_games")
	case errors.Is(err, ErrBadRequest):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request", "detail": err.Error()})
	default:
		s.logger.Error("game failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
