package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomz197/moles/internal/kvstore"
	"github.com/tomz197/moles/internal/leaderboard"
)

func startServer(t *testing.T, board *leaderboard.Board) *Server {
	t.Helper()
	s := NewServer(Options{Board: board})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Run(ctx)
	return s
}

// waitFor polls the lobby snapshot until cond holds.
func waitFor(t *testing.T, s *Server, what string, cond func(*LobbySnapshot) bool) *LobbySnapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if snap := s.GetSnapshot(); cond(snap) {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s; last snapshot %+v", what, s.GetSnapshot())
	return nil
}

func TestInitialSnapshot(t *testing.T) {
	s := NewServer(Options{})
	snap := s.GetSnapshot()
	if snap == nil || snap.Players != 0 || snap.TopScores == nil {
		t.Fatalf("initial snapshot = %+v", snap)
	}
}

func TestRegisterAndStatus(t *testing.T) {
	s := startServer(t, nil)

	h := s.RegisterClient("alice")
	if h.ID == "" {
		t.Fatal("empty session id")
	}
	waitFor(t, s, "registration", func(l *LobbySnapshot) bool { return l.Players == 1 })

	s.UpdateStatus(h.ID, SessionStatus{Player: "Alice", Activity: ActivityPlaying, Score: 7, TimeRemaining: 12})
	snap := waitFor(t, s, "status", func(l *LobbySnapshot) bool {
		return len(l.Sessions) == 1 && l.Sessions[0].Score == 7
	})
	if got := snap.Sessions[0]; got.Player != "Alice" || got.Activity != ActivityPlaying || got.ID != h.ID {
		t.Fatalf("session = %+v", got)
	}

	s.UnregisterClient(h.ID)
	waitFor(t, s, "unregistration", func(l *LobbySnapshot) bool { return l.Players == 0 })
	if _, ok := <-h.EventsCh; ok {
		t.Fatal("events channel still open after unregister")
	}
}

func TestVersionOnlyMovesOnChange(t *testing.T) {
	s := startServer(t, nil)
	h := s.RegisterClient("bob")
	snap := waitFor(t, s, "registration", func(l *LobbySnapshot) bool { return l.Players == 1 })

	s.UpdateStatus(h.ID, h.Status)
	time.Sleep(300 * time.Millisecond)
	if got := s.GetSnapshot().Version; got != snap.Version {
		t.Fatalf("version moved from %d to %d without a change", snap.Version, got)
	}
}

func TestScoresWithoutBoard(t *testing.T) {
	s := NewServer(Options{})
	if s.Scores() != nil {
		t.Fatal("Scores() should be nil without a board")
	}
	if err := s.ClearLeaderboard(); !errors.Is(err, ErrNoLeaderboard) {
		t.Fatalf("ClearLeaderboard = %v, want ErrNoLeaderboard", err)
	}
	if s.Leaderboard() != nil {
		t.Fatal("Leaderboard() should be nil without a board")
	}
}

func TestScoresReachSnapshot(t *testing.T) {
	s := startServer(t, leaderboard.New(kvstore.NewMemory()))

	scores := s.Scores()
	if scores == nil {
		t.Fatal("Scores() is nil with a board")
	}
	if err := scores.Upsert("Ann", 12); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	snap := waitFor(t, s, "top scores", func(l *LobbySnapshot) bool { return len(l.TopScores) == 1 })
	if snap.TopScores[0] != (leaderboard.Entry{PlayerName: "Ann", Score: 12}) {
		t.Fatalf("top = %+v", snap.TopScores)
	}
}

func TestClearLeaderboardNotifiesClients(t *testing.T) {
	s := startServer(t, leaderboard.New(kvstore.NewMemory()))
	h := s.RegisterClient("carol")
	waitFor(t, s, "registration", func(l *LobbySnapshot) bool { return l.Players == 1 })
	_ = s.Upsert("carol", 3)

	if err := s.ClearLeaderboard(); err != nil {
		t.Fatalf("ClearLeaderboard: %v", err)
	}
	select {
	case ev := <-h.EventsCh:
		if ev.Type != EventLeaderboardCleared {
			t.Fatalf("event = %v", ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("no event after clear")
	}
	if len(s.Leaderboard()) != 0 {
		t.Fatal("leaderboard not empty")
	}
}

func TestShutdownNotifiesAndWaits(t *testing.T) {
	s := startServer(t, nil)
	h := s.RegisterClient("dave")
	waitFor(t, s, "registration", func(l *LobbySnapshot) bool { return l.Players == 1 })

	go func() {
		ev := <-h.EventsCh
		if ev.Type == EventServerShutdown {
			s.UnregisterClient(h.ID)
		}
	}()

	start := time.Now()
	s.Shutdown(5 * time.Second)
	if time.Since(start) > 4*time.Second {
		t.Fatal("Shutdown waited for the full timeout after the client left")
	}
}

func TestReloadPicksUpOtherWriters(t *testing.T) {
	store := kvstore.NewMemory()
	s := startServer(t, leaderboard.New(store))

	other := leaderboard.New(store)
	if err := other.Upsert("mallory", 12); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if got := s.GetSnapshot().TopScores; len(got) != 0 {
		t.Fatalf("scores before reload = %+v", got)
	}
	if err := s.ReloadLeaderboard(); err != nil {
		t.Fatalf("ReloadLeaderboard: %v", err)
	}
	waitFor(t, s, "reloaded scores", func(l *LobbySnapshot) bool {
		return len(l.TopScores) == 1 && l.TopScores[0].PlayerName == "mallory"
	})

	if err := NewServer(Options{}).ReloadLeaderboard(); !errors.Is(err, ErrNoLeaderboard) {
		t.Fatalf("reload without board = %v, want ErrNoLeaderboard", err)
	}
}
