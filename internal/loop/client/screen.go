package client

import (
	"fmt"
	"time"

	"github.com/tomz197/moles/internal/draw"
	"github.com/tomz197/moles/internal/leaderboard"
	"github.com/tomz197/moles/internal/loop/config"
	"github.com/tomz197/moles/internal/round"
)

// figlet "small" font
var titleArt = []string{
	`  __  __  ___  _    ___ ___  `,
	` |  \/  |/ _ \| |  | __/ __| `,
	` | |\/| | (_) | |__| _|\__ \ `,
	` |_|  |_|\___/|____|___|___/ `,
}

var cueText = map[round.Cue]string{
	round.CueHit:         "WHACK! +1",
	round.CueHatCracked:  "CLANK! hat cracked",
	round.CueMiss:        "Missed one, -2s",
	round.CueBomb:        "BOOM!",
	round.CueBombDefused: "Bomb fizzled out",
	round.CueGameOver:    "",
}

func leaderboardEntry(e round.EndEvent) leaderboard.Entry {
	return leaderboard.Entry{PlayerName: e.Player, Score: e.FinalScore}
}

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	cw := c.chunkWriter

	// On screen or inactivity transitions, do a full terminal clear
	// so UI elements from the previous screen don't persist.
	if c.state.Screen != c.state.prevScreen || c.state.isInactive != c.state.wasInactive {
		cw.WriteString("\033[H\033[2J")
		c.state.prevScreen = c.state.Screen
		c.state.wasInactive = c.state.isInactive
	}
	if c.state.bell {
		cw.WriteString("\a")
		c.state.bell = false
	}

	c.frame.Border(cw)
	c.drawUI()

	return cw.Flush()
}

// drawUI draws the screen overlay.
func (c *Client) drawUI() {
	centerX, centerY := c.frame.CenterX(), c.frame.CenterY()

	if c.state.Screen == ScreenShutdown {
		c.drawShutdownScreen(centerX, centerY)
		return
	}
	if c.state.isInactive {
		c.drawInactivityScreen(centerX, centerY)
		return
	}

	switch c.state.Screen {
	case ScreenMenu:
		c.drawMenuScreen(centerX, centerY)
	case ScreenNameEntry:
		c.drawNameEntryScreen(centerX, centerY)
	case ScreenPlaying:
		c.drawPlayingHUD()
		draw.DrawBoard(c.chunkWriter, c.layout, c.state.Round.Targets)
	case ScreenEnded:
		c.drawEndScreen(centerX, centerY)
	case ScreenRanking:
		c.drawRankingScreen(centerX, centerY)
	case ScreenAbout:
		c.drawAboutScreen(centerX, centerY)
	}
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(centerX, centerY int) {
	cw := c.chunkWriter
	cw.WriteCentered(centerX, centerY-2, "INACTIVITY WARNING")

	msg := fmt.Sprintf(
		"You have been inactive for too long. You will be disconnected in %3d seconds.",
		int(config.InactivityDisconnectUser-time.Since(c.lastInput).Seconds()),
	)
	cw.WriteCentered(centerX, centerY, msg)
	cw.WriteCentered(centerX, centerY+2, "Press any key to continue")
}

// drawShutdownScreen draws the server shutdown notice.
func (c *Client) drawShutdownScreen(centerX, centerY int) {
	cw := c.chunkWriter
	cw.WriteStyledAt(centerX-len("SERVER SHUTTING DOWN")/2, centerY-2, draw.StyleAlert, "SERVER SHUTTING DOWN")
	if end := c.state.LastEnd; end != nil {
		cw.WriteCentered(centerX, centerY, fmt.Sprintf("Your score of %d was saved.", end.FinalScore))
	}
	msg := fmt.Sprintf("Disconnecting in %2d seconds", max(0, int(c.state.shutdownTimer+0.999)))
	cw.WriteCentered(centerX, centerY+2, msg)
}

// drawMenuScreen draws the title and main menu.
func (c *Client) drawMenuScreen(centerX, centerY int) {
	cw := c.chunkWriter
	titleWidth := 0
	for _, line := range titleArt {
		titleWidth = max(titleWidth, len(line))
	}
	titleY := centerY - 8
	for i, line := range titleArt {
		cw.WriteStyledAt(centerX-titleWidth/2, titleY+i, draw.StyleTitle, line)
	}
	cw.WriteCentered(centerX, titleY+len(titleArt)+1, "~ Whack-a-Mole over SSH ~")

	menuY := titleY + len(titleArt) + 3
	lines := []string{
		"SPACE  . . . . . .  Play",
		"R  . . . . . .  Ranking",
		"A  . . . . . . . . About",
		"Q  . . . . . . . .  Quit",
	}
	for i, line := range lines {
		cw.WriteCentered(centerX, menuY+i, line)
	}

	if players := c.server.GetSnapshot().Players; players > 1 {
		cw.WriteCentered(centerX, menuY+len(lines)+1, fmt.Sprintf("%d players online", players))
	}

	// Blinking start prompt
	prompt := ">>  Press SPACE to Start  <<"
	if time.Now().UnixMilli()/600%2 == 0 {
		cw.WriteCentered(centerX, menuY+len(lines)+3, prompt)
	} else {
		cw.WriteCentered(centerX, menuY+len(lines)+3, fmt.Sprintf("%*s", len(prompt), ""))
	}
}

// drawNameEntryScreen draws the name prompt.
func (c *Client) drawNameEntryScreen(centerX, centerY int) {
	cw := c.chunkWriter
	cw.WriteCentered(centerX, centerY-3, "Who is whacking?")
	field := fmt.Sprintf("Name: [%-*s]", config.MaxUsernameLength, string(c.state.NameInput)+"_")
	cw.WriteCentered(centerX, centerY-1, field)
	cw.WriteCentered(centerX, centerY+1, fmt.Sprintf("Leave blank to play as %q", config.DefaultPlayerName))
	cw.WriteCentered(centerX, centerY+3, "ENTER start   ESC back")
}

// drawPlayingHUD draws the in-game HUD.
// Text fields use fixed-width formatting so shrinking values don't leave
// residual characters on screen.
func (c *Client) drawPlayingHUD() {
	cw := c.chunkWriter
	s := c.state.Round

	cw.WriteAt(2, 1, fmt.Sprintf("Player: %-*s", config.MaxUsernameLength, s.Player))

	timeStyle := draw.StyleGreen
	if s.TimeRemaining < 10 {
		timeStyle = draw.StyleAlert
	}
	timeText := fmt.Sprintf("Time: %5s", round.FormatTime(s.TimeRemaining))
	cw.WriteStyledAt(c.frame.CenterX()-len(timeText)/2, 1, timeStyle, timeText)

	scoreText := fmt.Sprintf("Score: %-5d Level: %-3d", s.Score, s.Level)
	cw.WriteAt(c.frame.Width-len(scoreText)-1, 1, scoreText)

	msg := ""
	if c.state.cueTimer > 0 {
		msg = cueText[c.state.cue]
	}
	cw.WriteCentered(c.frame.CenterX(), 2, fmt.Sprintf("%-20s", msg))

	help := "keys 1-9 or click to whack   M menu   Q quit"
	cw.WriteStyledAt(c.frame.CenterX()-len(help)/2, c.frame.Height, draw.StyleDim, help)
}

// drawEndScreen draws the final score panel.
func (c *Client) drawEndScreen(centerX, centerY int) {
	cw := c.chunkWriter
	end := c.state.LastEnd
	if end == nil {
		return
	}

	switch end.Reason {
	case round.ReasonShutdown:
		cw.WriteStyledAt(centerX-len("SERVER STOPPED")/2, centerY-4, draw.StyleAlert, "SERVER STOPPED")
	case round.ReasonBombExploded:
		cw.WriteStyledAt(centerX-len("KABOOM! You whacked a bomb.")/2, centerY-4, draw.StyleAlert, "KABOOM! You whacked a bomb.")
	default:
		cw.WriteStyledAt(centerX-len("TIME'S UP!")/2, centerY-4, draw.StyleTitle, "TIME'S UP!")
	}

	cw.WriteCentered(centerX, centerY-2, fmt.Sprintf("%s scored %d", end.Player, end.FinalScore))
	if c.state.Rank > 0 {
		cw.WriteCentered(centerX, centerY-1, fmt.Sprintf("#%d on the ranking", c.state.Rank))
	}
	cw.WriteCentered(centerX, centerY+1, "SPACE play again   M menu   Q quit")
}

// drawRankingScreen draws the leaderboard panel.
func (c *Client) drawRankingScreen(centerX, centerY int) {
	cw := c.chunkWriter
	top := centerY - config.LeaderboardSize/2 - 3
	cw.WriteStyledAt(centerX-len("RANKING")/2, top, draw.StyleTitle, "RANKING")

	entries := c.server.Leaderboard()
	for i := 0; i < config.LeaderboardSize; i++ {
		line := fmt.Sprintf("%2d. %-*s %5s", i+1, config.MaxUsernameLength, "", "-")
		if i < len(entries) {
			line = fmt.Sprintf("%2d. %-*s %5d", i+1, config.MaxUsernameLength, entries[i].PlayerName, entries[i].Score)
		}
		cw.WriteCentered(centerX, top+2+i, line)
	}

	cw.WriteCentered(centerX, top+config.LeaderboardSize+3, fmt.Sprintf("%-30s", c.state.Notice))
	cw.WriteCentered(centerX, top+config.LeaderboardSize+5, "C clear ranking   ESC back")
}

// drawAboutScreen draws the about panel.
func (c *Client) drawAboutScreen(centerX, centerY int) {
	cw := c.chunkWriter
	lines := []string{
		"ABOUT",
		"",
		"Moles pop out of nine holes. Whack them before they hide.",
		"Each whack is a point and one more second on the clock.",
		"Every escaped mole costs two seconds.",
		"",
		"Every 10 points the moles get faster.",
		"Hard hats take two whacks. Never whack a bomb.",
		"",
		"Press any key to go back",
	}
	for i, line := range lines {
		cw.WriteCentered(centerX, centerY-len(lines)/2+i, line)
	}
}
