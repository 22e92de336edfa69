// Package config centralizes all tunable game parameters.
package config

import "time"

// Round timing (seconds).
const (
	StartingTime    = 30.0 // Countdown at round start
	HitTimeBonus    = 1.0  // Added to the countdown when a mole is cleared
	MissTimePenalty = 2.0  // Removed from the countdown when a real mole escapes
)

// Scoring
const (
	PointsPerHit   = 1
	PointsPerLevel = 10 // Score needed per difficulty level
)

// Mole timeline (seconds).
const (
	ShowDuration   = 0.5  // Rise and fall time, independent of the linger duration
	QuickHideDelay = 0.25 // Time a whacked mole stays visible before hiding
)

// Hole grid. Keys follow the numeric keypad layout, top row first.
const (
	GridCols  = 3
	GridRows  = 3
	HoleCount = GridCols * GridRows
)

// HoleKeys maps a pressed digit to a hole index (row-major from the top left).
var HoleKeys = map[int]int{
	7: 0, 8: 1, 9: 2,
	4: 3, 5: 4, 6: 5,
	1: 6, 2: 7, 3: 8,
}

// Player
const (
	DefaultPlayerName = "Player"
	MaxUsernameLength = 16 // Maximum length for player names
)

// Leaderboard
const (
	LeaderboardSize = 10
	LeaderboardKey  = "GameRanking"
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)

// Terminal layout
const (
	MaxTermWidth  = 120
	MaxTermHeight = 40
)

// Client rendering
const (
	ClientTargetFPS       = 60
	ClientTargetFrameTime = time.Second / ClientTargetFPS
)

// Server tick rate. The lobby server only aggregates session status, so it
// runs much slower than the clients.
const (
	ServerTickRate = 10
	ServerTickTime = time.Second / ServerTickRate
)
