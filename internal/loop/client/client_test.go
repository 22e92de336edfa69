package client

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/tomz197/moles/internal/input"
	"github.com/tomz197/moles/internal/kvstore"
	"github.com/tomz197/moles/internal/leaderboard"
	"github.com/tomz197/moles/internal/loop/config"
	"github.com/tomz197/moles/internal/loop/server"
	"github.com/tomz197/moles/internal/object"
	"github.com/tomz197/moles/internal/round"
)

// fixedRand always rolls standard moles with a 1.5s linger and picks the
// first free hole.
type fixedRand struct{}

func (fixedRand) Float64() float64 { return 0.5 }
func (fixedRand) Intn(int) int     { return 0 }

type testClient struct {
	*Client
	out    *bytes.Buffer
	server *server.Server
	stdin  *io.PipeWriter
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	gs := server.NewServer(server.Options{Board: leaderboard.New(kvstore.NewMemory())})
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })
	out := &bytes.Buffer{}
	c := NewClient(gs, bufio.NewReader(pr), out, ClientOptions{
		TermSizeFunc: func() (int, int, error) { return 80, 30, nil },
		Username:     "alice",
		Rand:         fixedRand{},
	})
	return &testClient{Client: c, out: out, server: gs, stdin: pw}
}

// step runs one client frame with the given raw input.
func (tc *testClient) step(t *testing.T, raw string, delta time.Duration) {
	t.Helper()
	tc.state.delta = delta
	tc.processInput(input.Parse([]byte(raw)))
	tc.processServerEvents()
	tc.updateScreen()
	tc.update()
	if err := tc.drawFrame(); err != nil {
		t.Fatalf("drawFrame: %v", err)
	}
}

func (tc *testClient) play(t *testing.T, name string) {
	t.Helper()
	tc.step(t, " ", 0)
	if tc.state.Screen != ScreenNameEntry {
		t.Fatalf("screen = %v, want name entry", tc.state.Screen)
	}
	tc.step(t, strings.Repeat("\x7f", 20)+name, 0)
	tc.step(t, "\r", 0)
	if tc.state.Screen != ScreenPlaying {
		t.Fatalf("screen = %v, want playing", tc.state.Screen)
	}
}

func activeHole(t *testing.T, tc *testClient) int {
	t.Helper()
	for _, tv := range tc.state.Round.Targets {
		if tv.Hittable {
			return tv.ID
		}
	}
	t.Fatalf("no mole up: %+v", tc.state.Round)
	return -1
}

func keyFor(hole int) string {
	for digit, h := range config.HoleKeys {
		if h == hole {
			return strconv.Itoa(digit)
		}
	}
	return ""
}

func TestNameEntryPrefillsUsername(t *testing.T) {
	tc := newTestClient(t)
	tc.step(t, "\r", 0)
	if string(tc.state.NameInput) != "alice" {
		t.Fatalf("name = %q, want alice", string(tc.state.NameInput))
	}
	tc.step(t, "\x7f\x7f\x7f\x7f\x7fquinn", 0)
	if !tc.state.Running {
		t.Fatal("typing q in a name quit the client")
	}
	tc.step(t, "\r", 0)
	if tc.round.Player() != "quinn" {
		t.Fatalf("player = %q, want quinn", tc.round.Player())
	}
}

func TestBlankNamePlaysAsDefault(t *testing.T) {
	tc := newTestClient(t)
	tc.play(t, "")
	if tc.round.Player() != "Player" {
		t.Fatalf("player = %q, want Player", tc.round.Player())
	}
}

func TestKeyHitScores(t *testing.T) {
	tc := newTestClient(t)
	tc.play(t, "bob")

	tc.step(t, "", 10*time.Millisecond)
	hole := activeHole(t, tc)
	tc.step(t, keyFor(hole), 10*time.Millisecond)

	if tc.state.Round.Score != 1 {
		t.Fatalf("score = %d, want 1", tc.state.Round.Score)
	}
	if tc.state.cue != round.CueHit || tc.state.cueTimer <= 0 {
		t.Errorf("cue = %v timer=%v, want hit shown", tc.state.cue, tc.state.cueTimer)
	}
}

func TestClickHitsVisibleMole(t *testing.T) {
	tc := newTestClient(t)
	tc.play(t, "bob")

	tc.step(t, "", 10*time.Millisecond)
	tc.step(t, "", 500*time.Millisecond) // fully up
	hole := activeHole(t, tc)
	r := tc.layout.Sprites[hole]

	click := "\x1b[<0;" + strconv.Itoa(r.X+tc.frame.OffsetCol+2) + ";" + strconv.Itoa(r.Y+tc.frame.OffsetRow+1) + "M"
	tc.step(t, click, 0)
	if tc.state.Round.Score != 1 {
		t.Fatalf("score = %d after click, want 1", tc.state.Round.Score)
	}
}

func TestClickOnEmptyHoleDoesNothing(t *testing.T) {
	tc := newTestClient(t)
	tc.play(t, "bob")
	tc.step(t, "", 10*time.Millisecond)
	hole := activeHole(t, tc)
	other := (hole + 4) % len(tc.layout.Sprites)
	r := tc.layout.Sprites[other]

	tc.step(t, "\x1b[<0;"+strconv.Itoa(r.X+2)+";"+strconv.Itoa(r.Bottom()-1)+"M", 0)
	if tc.state.Round.Score != 0 {
		t.Fatalf("score = %d, want 0", tc.state.Round.Score)
	}
}

func TestTimeoutShowsEndScreenAndRanks(t *testing.T) {
	tc := newTestClient(t)
	tc.play(t, "bob")
	tc.step(t, "", 10*time.Millisecond)
	tc.step(t, keyFor(activeHole(t, tc)), 0)

	tc.step(t, "", 40*time.Second)
	if tc.state.Screen != ScreenEnded {
		t.Fatalf("screen = %v, want ended", tc.state.Screen)
	}
	if tc.state.LastEnd == nil || tc.state.LastEnd.Reason != round.ReasonTimeout || tc.state.LastEnd.FinalScore != 1 {
		t.Fatalf("end = %+v", tc.state.LastEnd)
	}
	if tc.state.Rank != 1 {
		t.Errorf("rank = %d, want 1", tc.state.Rank)
	}
	if !strings.Contains(tc.out.String(), "\a") {
		t.Error("no bell on game over")
	}
	if got := tc.server.Leaderboard(); len(got) != 1 || got[0].PlayerName != "bob" {
		t.Errorf("leaderboard = %+v", got)
	}

	tc.step(t, " ", 0)
	if tc.state.Screen != ScreenPlaying || tc.round.Player() != "bob" {
		t.Fatalf("restart: screen=%v player=%q", tc.state.Screen, tc.round.Player())
	}
}

func TestMenuKeyAbandonsRound(t *testing.T) {
	tc := newTestClient(t)
	tc.play(t, "bob")
	tc.step(t, "", 10*time.Millisecond)

	tc.step(t, "m", 0)
	if tc.state.Screen != ScreenMenu || tc.round.State() != round.StateIdle {
		t.Fatalf("screen=%v round=%v", tc.state.Screen, tc.round.State())
	}
	if len(tc.server.Leaderboard()) != 0 {
		t.Fatal("abandoned round was ranked")
	}
}

func TestRankingClear(t *testing.T) {
	tc := newTestClient(t)
	_ = tc.server.Upsert("zed", 4)

	tc.step(t, "r", 0)
	if tc.state.Screen != ScreenRanking {
		t.Fatalf("screen = %v, want ranking", tc.state.Screen)
	}
	if !strings.Contains(tc.out.String(), "zed") {
		t.Error("ranking does not list zed")
	}
	tc.step(t, "c", 0)
	if len(tc.server.Leaderboard()) != 0 {
		t.Fatal("ranking not cleared")
	}
	tc.step(t, "\x1b", 0)
	if tc.state.Screen != ScreenMenu {
		t.Fatalf("screen = %v, want menu", tc.state.Screen)
	}
}

func TestQuitFromMenu(t *testing.T) {
	tc := newTestClient(t)
	tc.step(t, "q", 0)
	if tc.state.Running {
		t.Fatal("q did not quit")
	}
}

func TestShutdownEventEndsRound(t *testing.T) {
	tc := newTestClient(t)
	tc.play(t, "bob")
	tc.step(t, "", 10*time.Millisecond)

	tc.handle.EventsCh <- server.ClientEvent{Type: server.EventServerShutdown}
	tc.step(t, "", 0)
	if tc.state.Screen != ScreenShutdown {
		t.Fatalf("screen = %v, want shutdown", tc.state.Screen)
	}
	if tc.round.State() != round.StateEnded || tc.round.Reason() != round.ReasonShutdown {
		t.Fatalf("round = %v/%v, want ended by shutdown", tc.round.State(), tc.round.Reason())
	}
	if tc.state.LastEnd == nil || tc.state.LastEnd.Reason != round.ReasonShutdown {
		t.Fatalf("end = %+v, want shutdown", tc.state.LastEnd)
	}
	if got := tc.server.Leaderboard(); len(got) != 1 || got[0].PlayerName != "bob" {
		t.Fatalf("leaderboard = %+v, want the interrupted round ranked", got)
	}
	tc.step(t, "", 11*time.Second)
	if tc.state.Running {
		t.Fatal("client still running after the shutdown countdown")
	}
}

func TestBombCueRingsBell(t *testing.T) {
	tc := newTestClient(t)
	tc.out.Reset()
	tc.Cue(round.CueBomb)
	tc.step(t, "", 0)
	if !strings.Contains(tc.out.String(), "\a") {
		t.Fatal("no bell for a bomb")
	}
}

func TestRunExitsOnEOF(t *testing.T) {
	tc := newTestClient(t)
	done := make(chan error, 1)
	go func() { done <- tc.Run() }()

	tc.stdin.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after EOF")
	}
}

var _ object.Rand = fixedRand{}
