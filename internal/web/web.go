// Package web serves the lobby over HTTP: a landing page with connection
// instructions, a JSON API for the leaderboard and live sessions, and a
// WebSocket feed that pushes lobby snapshots as they change.
package web

import (
	_ "embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/tomz197/moles/internal/leaderboard"
	"github.com/tomz197/moles/internal/logging"
	"github.com/tomz197/moles/internal/loop/server"
)

//go:embed index.html
var indexHTML string

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(indexHTML))

// Lobby is the read side of the game server.
type Lobby interface {
	GetSnapshot() *server.LobbySnapshot
}

// Options configures the web server.
type Options struct {
	SSHHost      string        // Shown in the connection instructions
	SSHPort      string        // Omitted from the instructions when 22
	PollInterval time.Duration // How often the feed checks for a new snapshot
	Logger       *log.Logger
}

// Server handles HTTP requests.
type Server struct {
	lobby    Lobby
	opts     Options
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a web server reading from lobby.
func NewServer(lobby Lobby, opts Options) *Server {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 250 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Server{
		lobby:  lobby,
		opts:   opts,
		logger: opts.Logger,
		upgrader: websocket.Upgrader{
			// The feed is read-only public data.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Routes sets up the HTTP routes.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))

	r.Get("/", s.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/sessions", s.handleSessions)
	})
	r.Get("/ws", s.handleFeed)

	return r
}

type indexData struct {
	SSHCommand string
	TopScores  []leaderboard.Entry
	Players    int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.lobby.GetSnapshot()
	cmd := "ssh -t " + s.opts.SSHHost
	if s.opts.SSHPort != "" && s.opts.SSHPort != "22" {
		cmd = "ssh -t -p " + s.opts.SSHPort + " " + s.opts.SSHHost
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, indexData{SSHCommand: cmd, TopScores: snap.TopScores, Players: snap.Players}); err != nil {
		s.logger.Error("render index", "err", err)
	}
}

type leaderboardResponse struct {
	Entries []leaderboard.Entry `json:"entries"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, leaderboardResponse{Entries: s.lobby.GetSnapshot().TopScores})
}

type sessionsResponse struct {
	Players  int                  `json:"players"`
	Sessions []server.SessionInfo `json:"sessions"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	snap := s.lobby.GetSnapshot()
	s.writeJSON(w, http.StatusOK, sessionsResponse{Players: snap.Players, Sessions: snap.Sessions})
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
