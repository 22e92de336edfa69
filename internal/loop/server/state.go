package server

import (
	"time"

	"github.com/tomz197/moles/internal/leaderboard"
)

// Activity is what a connected player is doing.
type Activity string

const (
	ActivityMenu    Activity = "menu"
	ActivityPlaying Activity = "playing"
	ActivityEnded   Activity = "ended"
)

// SessionStatus is reported by a client whenever its round changes.
type SessionStatus struct {
	Player        string
	Activity      Activity
	Score         int
	TimeRemaining float64
}

// SessionInfo describes one connected player in a lobby snapshot.
type SessionInfo struct {
	ID            string    `json:"id"`
	Player        string    `json:"player"`
	Activity      Activity  `json:"activity"`
	Score         int       `json:"score"`
	TimeRemaining float64   `json:"timeRemaining"`
	ConnectedAt   time.Time `json:"connectedAt"`
}

// LobbySnapshot is an immutable view of the lobby for clients and the web API.
// Version increases whenever sessions or the leaderboard change.
type LobbySnapshot struct {
	Version   uint64              `json:"version"`
	Players   int                 `json:"players"`
	Sessions  []SessionInfo       `json:"sessions"`
	TopScores []leaderboard.Entry `json:"topScores"`
}
