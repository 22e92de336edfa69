package client

import (
	"time"

	"github.com/tomz197/moles/internal/input"
	"github.com/tomz197/moles/internal/round"
)

// Screen is what the client is currently showing.
type Screen int

const (
	ScreenMenu      Screen = iota // Title and main menu
	ScreenNameEntry               // Typing the player name
	ScreenPlaying                 // Active round
	ScreenEnded                   // Round over, final score
	ScreenRanking                 // Leaderboard panel
	ScreenAbout                   // About panel
	ScreenShutdown                // Server is shutting down
)

// ClientState holds per-player presentation state. The round itself lives in
// the round.Controller; this only mirrors what the sink was told.
type ClientState struct {
	Input     input.Input
	Screen    Screen
	Running   bool // Client loop running
	NameInput []rune

	Round   round.Snapshot  // Last snapshot published by the controller
	LastEnd *round.EndEvent // Set when a round ends
	Rank    int             // 1-based leaderboard position of the last round, 0 if unranked
	Notice  string          // One-line message on the ranking panel

	cue      round.Cue // Last gameplay cue, shown briefly in the HUD
	cueTimer float64

	delta         time.Duration // Frame delta time
	shutdownTimer float64       // Countdown before auto-disconnect on shutdown
	isInactive    bool          // Whether the client is in inactive warning state
	bell          bool          // Ring on the next frame
	prevScreen    Screen
	wasInactive   bool
	lastStatus    statusKey
}

// statusKey is the part of a snapshot worth reporting to the lobby.
type statusKey struct {
	screen  Screen
	player  string
	score   int
	seconds int
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{
		Screen:     ScreenMenu,
		Running:    true,
		prevScreen: -1,
	}
}
