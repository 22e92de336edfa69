package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomz197/moles/internal/leaderboard"
	"github.com/tomz197/moles/internal/loop/server"
)

// fakeLobby serves whatever snapshot was last stored.
type fakeLobby struct {
	snap atomic.Pointer[server.LobbySnapshot]
}

func newFakeLobby(s *server.LobbySnapshot) *fakeLobby {
	l := &fakeLobby{}
	l.snap.Store(s)
	return l
}

func (l *fakeLobby) GetSnapshot() *server.LobbySnapshot { return l.snap.Load() }

func sampleSnapshot() *server.LobbySnapshot {
	return &server.LobbySnapshot{
		Version: 3,
		Players: 1,
		Sessions: []server.SessionInfo{
			{ID: "s1", Player: "alice", Activity: server.ActivityPlaying, Score: 5, TimeRemaining: 21},
		},
		TopScores: []leaderboard.Entry{{PlayerName: "bob", Score: 30}, {PlayerName: "<eve>", Score: 2}},
	}
}

func TestIndexPage(t *testing.T) {
	s := NewServer(newFakeLobby(sampleSnapshot()), Options{SSHHost: "moles.example", SSHPort: "2222"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "ssh -t -p 2222 moles.example") {
		t.Error("connection command missing")
	}
	if !strings.Contains(body, "bob") {
		t.Error("ranking missing")
	}
	if strings.Contains(body, "<eve>") {
		t.Error("player name not escaped")
	}
}

func TestIndexOmitsDefaultPort(t *testing.T) {
	s := NewServer(newFakeLobby(sampleSnapshot()), Options{SSHHost: "moles.example", SSHPort: "22"})
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(w.Body.String(), "ssh -t moles.example") {
		t.Error("expected the port-less command")
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	s := NewServer(newFakeLobby(sampleSnapshot()), Options{})

	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var resp leaderboardResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Entries) != 2 || resp.Entries[0].PlayerName != "bob" || resp.Entries[0].Score != 30 {
		t.Fatalf("entries = %+v", resp.Entries)
	}
}

func TestSessionsEndpoint(t *testing.T) {
	s := NewServer(newFakeLobby(sampleSnapshot()), Options{})

	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

	var resp sessionsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Players != 1 || len(resp.Sessions) != 1 || resp.Sessions[0].Activity != server.ActivityPlaying {
		t.Fatalf("sessions = %+v", resp)
	}
}

func TestHealth(t *testing.T) {
	s := NewServer(newFakeLobby(sampleSnapshot()), Options{})
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := NewServer(newFakeLobby(sampleSnapshot()), Options{})
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestFeedPushesOnVersionChange(t *testing.T) {
	lobby := newFakeLobby(sampleSnapshot())
	s := NewServer(lobby, Options{PollInterval: 10 * time.Millisecond})
	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var first server.LobbySnapshot
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read: %v", err)
	}
	if first.Version != 3 || first.Players != 1 {
		t.Fatalf("first = %+v", first)
	}

	next := sampleSnapshot()
	next.Version = 4
	next.Players = 2
	lobby.snap.Store(next)

	var second server.LobbySnapshot
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read: %v", err)
	}
	if second.Version != 4 || second.Players != 2 {
		t.Fatalf("second = %+v", second)
	}
}
