// Package server is the lobby shared by every connected player: the session
// registry, the leaderboard and the snapshot read by clients and the web API.
// Each player's round runs on its own client goroutine; only what is shared
// lives here.
package server

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tomz197/moles/internal/leaderboard"
	"github.com/tomz197/moles/internal/logging"
	"github.com/tomz197/moles/internal/loop/config"
	"github.com/tomz197/moles/internal/round"
)

// ErrNoLeaderboard is returned by leaderboard operations when the server runs
// without persistence.
var ErrNoLeaderboard = errors.New("server: no leaderboard")

// GameServer is the interface clients use to communicate with the lobby.
// Decouples the Client from the concrete Server implementation.
type GameServer interface {
	RegisterClient(username string) *ClientHandle
	UnregisterClient(clientID string)
	UpdateStatus(clientID string, status SessionStatus)
	GetSnapshot() *LobbySnapshot
	Scores() round.Scores
	Leaderboard() []leaderboard.Entry
	ClearLeaderboard() error
}

// Server manages the shared lobby state.
type Server struct {
	board    *leaderboard.Board // Nil when running without persistence
	logger   *log.Logger
	snapshot atomic.Pointer[LobbySnapshot]
	clients  map[string]*ClientHandle
	mu       sync.RWMutex

	statusCh     chan ClientStatus
	registerCh   chan *ClientHandle
	unregisterCh chan string

	dirty   atomic.Bool // Set when the next tick must publish a new snapshot
	version uint64
}

// Compile-time check that Server implements GameServer.
var _ GameServer = (*Server)(nil)

// ClientHandle represents a client's connection to the server.
type ClientHandle struct {
	ID          string
	Username    string // SSH user name, used as the default player name
	ConnectedAt time.Time
	Status      SessionStatus
	EventsCh    chan ClientEvent // Events sent to client (shutdown, etc.)
}

// ClientStatus is a status report from a specific client.
type ClientStatus struct {
	ClientID string
	Status   SessionStatus
}

// ClientEvent represents an event sent from server to client.
type ClientEvent struct {
	Type ClientEventType
}

// ClientEventType identifies the type of client event.
type ClientEventType int

const (
	EventServerShutdown ClientEventType = iota
	EventLeaderboardCleared
)

// Options configures the server.
type Options struct {
	Board  *leaderboard.Board
	Logger *log.Logger
}

// NewServer creates a new lobby server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	s := &Server{
		board:        opts.Board,
		logger:       opts.Logger,
		clients:      make(map[string]*ClientHandle),
		statusCh:     make(chan ClientStatus, 256),
		registerCh:   make(chan *ClientHandle, 16),
		unregisterCh: make(chan string, 16),
	}

	// Publish an initial snapshot so readers never see nil.
	s.createSnapshot()
	return s
}

// Run starts the server loop. Blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frameStart := time.Now()

		s.processRegistrations()
		s.collectStatuses()
		if s.dirty.Swap(false) {
			s.createSnapshot()
		}

		// Frame timing
		elapsed := time.Since(frameStart)
		if elapsed < config.ServerTickTime {
			time.Sleep(config.ServerTickTime - elapsed)
		}
	}
}

// Shutdown gracefully shuts down the server by notifying all connected clients
// and waiting for them to disconnect (up to the given timeout).
// The caller should cancel the server context after Shutdown returns.
func (s *Server) Shutdown(timeout time.Duration) {
	s.broadcast(ClientEvent{Type: EventServerShutdown})

	deadline := time.After(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			s.logger.Warn("shutdown timeout, clients still connected", "clients", s.clientCount())
			return
		case <-ticker.C:
			if s.clientCount() == 0 {
				return
			}
		}
	}
}

// RegisterClient registers a new client with the given username and returns its handle.
func (s *Server) RegisterClient(username string) *ClientHandle {
	handle := &ClientHandle{
		ID:          uuid.NewString(),
		Username:    username,
		ConnectedAt: time.Now(),
		Status:      SessionStatus{Player: username, Activity: ActivityMenu},
		EventsCh:    make(chan ClientEvent, 16),
	}
	s.registerCh <- handle
	return handle
}

// UnregisterClient removes a client from the server.
func (s *Server) UnregisterClient(clientID string) {
	s.unregisterCh <- clientID
}

// UpdateStatus reports what a client is doing. Drops the report when the
// server is backed up; the next one supersedes it anyway.
func (s *Server) UpdateStatus(clientID string, status SessionStatus) {
	select {
	case s.statusCh <- ClientStatus{ClientID: clientID, Status: status}:
	default:
	}
}

// GetSnapshot returns the current lobby snapshot.
func (s *Server) GetSnapshot() *LobbySnapshot {
	return s.snapshot.Load()
}

// Scores returns the round.Scores collaborator for controllers, or nil when
// there is no leaderboard.
func (s *Server) Scores() round.Scores {
	if s.board == nil {
		return nil
	}
	return s
}

// Upsert records a finished round on the leaderboard.
func (s *Server) Upsert(playerName string, score int) error {
	if s.board == nil {
		return ErrNoLeaderboard
	}
	err := s.board.Upsert(playerName, score)
	s.dirty.Store(true)
	return err
}

// Leaderboard returns the current ranking, best first.
func (s *Server) Leaderboard() []leaderboard.Entry {
	if s.board == nil {
		return nil
	}
	return s.board.List()
}

// ReloadLeaderboard re-reads the ranking from the store. A process that only
// reads the store uses it to pick up rounds recorded by another process.
func (s *Server) ReloadLeaderboard() error {
	if s.board == nil {
		return ErrNoLeaderboard
	}
	before := s.board.List()
	if err := s.board.Load(); err != nil {
		return err
	}
	if !slices.Equal(before, s.board.List()) {
		s.dirty.Store(true)
	}
	return nil
}

// ClearLeaderboard empties the ranking and tells every client.
func (s *Server) ClearLeaderboard() error {
	if s.board == nil {
		return ErrNoLeaderboard
	}
	if err := s.board.Clear(); err != nil {
		return err
	}
	s.logger.Info("leaderboard cleared")
	s.dirty.Store(true)
	s.broadcast(ClientEvent{Type: EventLeaderboardCleared})
	return nil
}

func (s *Server) broadcast(ev ClientEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, handle := range s.clients {
		select {
		case handle.EventsCh <- ev:
		default:
		}
	}
}

func (s *Server) clientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// processRegistrations handles pending client registrations/unregistrations.
func (s *Server) processRegistrations() {
	for {
		select {
		case handle := <-s.registerCh:
			s.mu.Lock()
			s.clients[handle.ID] = handle
			s.mu.Unlock()
			s.dirty.Store(true)
			s.logger.Info("player joined", "session", handle.ID, "user", handle.Username)
		case clientID := <-s.unregisterCh:
			s.mu.Lock()
			if handle, ok := s.clients[clientID]; ok {
				close(handle.EventsCh)
				delete(s.clients, clientID)
				s.logger.Info("player left", "session", clientID, "user", handle.Username)
			}
			s.mu.Unlock()
			s.dirty.Store(true)
		default:
			return
		}
	}
}

// collectStatuses applies all pending status reports.
func (s *Server) collectStatuses() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		select {
		case cs := <-s.statusCh:
			if handle, ok := s.clients[cs.ClientID]; ok && handle.Status != cs.Status {
				handle.Status = cs.Status
				s.dirty.Store(true)
			}
		default:
			return
		}
	}
}

// createSnapshot publishes an immutable snapshot of the lobby.
func (s *Server) createSnapshot() {
	s.mu.RLock()
	sessions := make([]SessionInfo, 0, len(s.clients))
	for _, h := range s.clients {
		sessions = append(sessions, SessionInfo{
			ID:            h.ID,
			Player:        h.Status.Player,
			Activity:      h.Status.Activity,
			Score:         h.Status.Score,
			TimeRemaining: h.Status.TimeRemaining,
			ConnectedAt:   h.ConnectedAt,
		})
	}
	s.mu.RUnlock()

	// Live scores first, then by arrival.
	slices.SortFunc(sessions, func(a, b SessionInfo) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		if c := a.ConnectedAt.Compare(b.ConnectedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	top := s.Leaderboard()
	if top == nil {
		top = []leaderboard.Entry{}
	}

	s.version++
	s.snapshot.Store(&LobbySnapshot{
		Version:   s.version,
		Players:   len(sessions),
		Sessions:  sessions,
		TopScores: top,
	})
}
