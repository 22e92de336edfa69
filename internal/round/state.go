package round

import (
	"fmt"

	"github.com/tomz197/moles/internal/object"
)

// State is the phase of the round controller.
type State int

const (
	StateIdle    State = iota // Menu, no round in progress
	StateRunning              // Countdown running, moles popping
	StateEnded                // Round over, final score on display
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Reason explains why a round ended.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonTimeout
	ReasonBombExploded
	ReasonShutdown // Server stopping; the score still counts
)

func (r Reason) String() string {
	switch r {
	case ReasonTimeout:
		return "timeout"
	case ReasonBombExploded:
		return "bomb"
	case ReasonShutdown:
		return "shutdown"
	default:
		return "none"
	}
}

// Cue is a fire-and-forget notification for sound and UI collaborators.
type Cue string

const (
	CueRoundStart  Cue = "round-start"
	CueHit         Cue = "hit"
	CueHatCracked  Cue = "hat-cracked"
	CueMiss        Cue = "miss"
	CueBomb        Cue = "bomb"
	CueBombDefused Cue = "bomb-defused"
	CueGameOver    Cue = "game-over"
	CueMenu        Cue = "menu"
)

// TargetView is what a renderer needs to draw one hole.
type TargetView struct {
	ID       int
	Kind     object.Kind
	Phase    object.Phase
	Progress float64 // 0 hidden .. 1 fully up
	Lives    int
	Hittable bool
	Whacked  bool
}

// Snapshot is the HUD and board state published after every change.
type Snapshot struct {
	State         State
	Player        string
	Score         int
	TimeRemaining float64 // Never negative
	Level         int
	Active        int
	Reason        Reason
	Targets       []TargetView
}

// EndEvent is published once when a round ends.
type EndEvent struct {
	Player     string
	Reason     Reason
	FinalScore int
}

// Sink receives presentation updates. All methods are called on the
// goroutine that drives the controller.
type Sink interface {
	RoundUpdated(s Snapshot)
	RoundEnded(e EndEvent)
	Cue(c Cue)
}

// Scores is the leaderboard collaborator consulted at round end.
type Scores interface {
	Upsert(playerName string, score int) error
}

// FormatTime renders remaining seconds as m:ss, clamping negatives to zero.
func FormatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

type nopSink struct{}

func (nopSink) RoundUpdated(Snapshot) {}
func (nopSink) RoundEnded(EndEvent)   {}
func (nopSink) Cue(Cue)               {}
