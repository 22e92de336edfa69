package client

import (
	"bufio"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/moles/internal/draw"
	"github.com/tomz197/moles/internal/input"
	"github.com/tomz197/moles/internal/logging"
	"github.com/tomz197/moles/internal/loop/config"
	"github.com/tomz197/moles/internal/loop/server"
	"github.com/tomz197/moles/internal/object"
	"github.com/tomz197/moles/internal/round"
)

// cueDisplaySeconds is how long a gameplay cue stays in the HUD.
const cueDisplaySeconds = 0.6

// Client handles rendering and input for a single connection and owns that
// player's round.
type Client struct {
	server       server.GameServer
	handle       *server.ClientHandle
	state        *ClientState
	round        *round.Controller
	frame        draw.Frame
	layout       draw.Layout
	chunkWriter  *draw.ChunkWriter // Accumulates UI text for chunked output
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	termSizeFunc draw.TermSizeFunc
	logger       *log.Logger
}

// Compile-time check that Client receives round updates.
var _ round.Sink = (*Client)(nil)

// ClientOptions configures the client.
type ClientOptions struct {
	TermSizeFunc draw.TermSizeFunc
	Username     string      // Prefills the name prompt
	Logger       *log.Logger // Defaults to a discarding logger
	Rand         object.Rand // Defaults to a time-seeded source
}

// NewClient creates a new client connected to the given server.
func NewClient(gs server.GameServer, r *bufio.Reader, w io.Writer, opts ClientOptions) *Client {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	handle := gs.RegisterClient(opts.Username)
	logger = logger.With("session", handle.ID)

	termWidth, termHeight, _ := termSizeFunc()
	frame := draw.FitFrame(termWidth, termHeight)

	c := &Client{
		server:       gs,
		handle:       handle,
		state:        NewClientState(),
		frame:        frame,
		layout:       draw.BoardLayout(frame.Width, frame.Height),
		chunkWriter:  draw.NewChunkWriter(w, frame.OffsetCol, frame.OffsetRow),
		writer:       w,
		lastInput:    time.Now(),
		inputStream:  input.StartStream(r),
		termSizeFunc: termSizeFunc,
		logger:       logger,
	}
	c.round = round.New(round.Options{
		Rand:   opts.Rand,
		Sink:   c,
		Scores: gs.Scores(),
		Logger: logger,
	})
	c.state.NameInput = []rune(opts.Username)
	return c
}

// Run starts the client loop. Blocks until the client disconnects or server stops.
func (c *Client) Run() error {
	draw.HideCursor(c.writer)
	draw.EnableMouse(c.writer)
	defer draw.ShowCursor(c.writer)
	defer draw.DisableMouse(c.writer)
	draw.ClearScreen(c.writer)

	lastTime := time.Now()

	for c.state.Running {
		frameStart := time.Now()
		c.state.delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		c.processInput(input.ReadInput(c.inputStream))
		if c.inputStream.Closed() {
			c.state.Running = false
		}
		c.processServerEvents()
		c.updateScreen()
		c.update()

		if err := c.drawFrame(); err != nil {
			c.leave()
			return err
		}

		// Frame timing
		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	c.leave()
	draw.ClearScreen(c.writer)
	return nil
}

// leave ends any round in progress and unregisters from the server.
func (c *Client) leave() {
	if c.round.State() == round.StateRunning {
		// A disconnect abandons the round without ranking it.
		_ = c.round.ReturnToMenu()
	}
	c.server.UnregisterClient(c.handle.ID)
}

// processInput records the frame's input and tracks inactivity.
func (c *Client) processInput(in input.Input) {
	c.state.Input = in

	if in.Any() {
		c.lastInput = time.Now()
		c.state.isInactive = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityDisconnectUser {
		c.logger.Info("disconnecting inactive player")
		c.state.Running = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityWarnUser {
		c.state.isInactive = true
	}

	quit := in.Quit
	if c.state.Screen == ScreenNameEntry {
		quit = in.Interrupt
	}
	if quit {
		c.state.Running = false
	}
}

// processServerEvents handles events from the server.
func (c *Client) processServerEvents() {
	for {
		select {
		case event, ok := <-c.handle.EventsCh:
			if !ok {
				// Server closed the channel
				c.state.Running = false
				return
			}
			switch event.Type {
			case server.EventServerShutdown:
				if c.round.State() == round.StateRunning {
					_ = c.round.EndRound(round.ReasonShutdown)
				}
				c.state.Screen = ScreenShutdown
				c.state.shutdownTimer = config.ShutdownDisplaySeconds
			case server.EventLeaderboardCleared:
				c.state.Notice = "The ranking was cleared."
			}
		default:
			return
		}
	}
}

// updateScreen handles terminal resize, clamping to max render resolution.
// On actual size changes, clears the terminal to remove residual text
// outside the new play area.
func (c *Client) updateScreen() {
	termWidth, termHeight, err := c.termSizeFunc()
	if err != nil {
		return
	}
	frame := draw.FitFrame(termWidth, termHeight)
	if frame == c.frame {
		return
	}
	c.frame = frame
	c.layout = draw.BoardLayout(frame.Width, frame.Height)
	c.chunkWriter.SetOffset(frame.OffsetCol, frame.OffsetRow)
	c.state.prevScreen = -1 // Force a full redraw
}

// update runs the current screen's logic for one frame.
func (c *Client) update() {
	if c.state.cueTimer > 0 {
		c.state.cueTimer -= c.state.delta.Seconds()
	}

	switch c.state.Screen {
	case ScreenMenu:
		c.updateMenu()
	case ScreenNameEntry:
		c.updateNameEntry()
	case ScreenPlaying:
		c.updatePlaying()
	case ScreenEnded:
		c.updateEnded()
	case ScreenRanking:
		c.updateRanking()
	case ScreenAbout:
		c.updateAbout()
	case ScreenShutdown:
		c.updateShutdown()
	}
}

func (c *Client) updateMenu() {
	in := c.state.Input
	switch {
	case in.Space || in.Enter:
		c.state.Screen = ScreenNameEntry
	case in.Has('r'):
		c.state.Notice = ""
		c.state.Screen = ScreenRanking
	case in.Has('a'):
		c.state.Screen = ScreenAbout
	}
}

func (c *Client) updateNameEntry() {
	in := c.state.Input
	switch {
	case in.Escape:
		c.state.Screen = ScreenMenu
		return
	case in.Enter:
		c.startGame()
		return
	}
	for _, r := range in.Text {
		switch {
		case r == '\b':
			if n := len(c.state.NameInput); n > 0 {
				c.state.NameInput = c.state.NameInput[:n-1]
			}
		case len(c.state.NameInput) < config.MaxUsernameLength:
			c.state.NameInput = append(c.state.NameInput, r)
		}
	}
}

// startGame starts a round with the typed name; a blank name plays as the default.
func (c *Client) startGame() {
	if err := c.round.StartGame(string(c.state.NameInput)); err != nil {
		c.logger.Error("start game", "err", err)
		return
	}
	c.state.NameInput = []rune(c.round.Player())
	c.state.LastEnd = nil
	c.state.Screen = ScreenPlaying
}

func (c *Client) updatePlaying() {
	in := c.state.Input
	if in.Escape || in.Has('m') {
		if err := c.round.ReturnToMenu(); err != nil {
			c.logger.Error("return to menu", "err", err)
		}
		c.state.Screen = ScreenMenu
		return
	}

	for _, n := range in.Numbers {
		if hole, ok := config.HoleKeys[n]; ok {
			c.selectHole(hole)
		}
	}
	for _, click := range in.Clicks {
		col := click.Col - c.frame.OffsetCol
		row := click.Row - c.frame.OffsetRow
		if hole, ok := c.layout.HoleAt(col, row, c.state.Round.Targets); ok {
			c.selectHole(hole)
		}
	}

	c.round.Tick(c.state.delta)
}

func (c *Client) selectHole(hole int) {
	if err := c.round.Select(hole); err != nil {
		c.logger.Error("select", "hole", hole, "err", err)
	}
}

func (c *Client) updateEnded() {
	in := c.state.Input
	switch {
	case in.Space || in.Enter || in.Has('r'):
		if err := c.round.RestartGame(); err != nil {
			c.logger.Error("restart game", "err", err)
			return
		}
		c.state.LastEnd = nil
		c.state.Screen = ScreenPlaying
	case in.Escape || in.Has('m'):
		if err := c.round.ReturnToMenu(); err != nil {
			c.logger.Error("return to menu", "err", err)
		}
		c.state.Screen = ScreenMenu
	}
}

func (c *Client) updateRanking() {
	in := c.state.Input
	switch {
	case in.Has('c'):
		if err := c.server.ClearLeaderboard(); err != nil {
			c.logger.Error("clear leaderboard", "err", err)
			c.state.Notice = "Could not clear the ranking."
		}
	case in.Escape || in.Space || in.Enter || in.Has('m'):
		c.state.Screen = ScreenMenu
	}
}

func (c *Client) updateAbout() {
	if c.state.Input.Any() {
		c.state.Screen = ScreenMenu
	}
}

// updateShutdown handles the shutdown screen countdown.
func (c *Client) updateShutdown() {
	c.state.shutdownTimer -= c.state.delta.Seconds()
	if c.state.shutdownTimer <= 0 {
		c.state.Running = false
	}
}

// RoundUpdated implements round.Sink.
func (c *Client) RoundUpdated(s round.Snapshot) {
	c.state.Round = s
	c.reportStatus()
}

// RoundEnded implements round.Sink.
func (c *Client) RoundEnded(e round.EndEvent) {
	c.state.LastEnd = &e
	c.state.Rank = 0
	board := c.server.Leaderboard()
	if i := slices.Index(board, leaderboardEntry(e)); i >= 0 {
		c.state.Rank = i + 1
	}
	c.state.Screen = ScreenEnded
}

// Cue implements round.Sink.
func (c *Client) Cue(cue round.Cue) {
	switch cue {
	case round.CueBomb, round.CueGameOver:
		c.state.bell = true
	case round.CueRoundStart, round.CueMenu:
		c.state.cueTimer = 0
		return
	}
	c.state.cue = cue
	c.state.cueTimer = cueDisplaySeconds
}

// reportStatus tells the lobby what this player is doing, when it changed.
func (c *Client) reportStatus() {
	s := c.state.Round
	key := statusKey{player: s.Player, score: s.Score, seconds: int(s.TimeRemaining)}
	activity := server.ActivityMenu
	switch s.State {
	case round.StateRunning:
		activity = server.ActivityPlaying
		key.screen = ScreenPlaying
	case round.StateEnded:
		activity = server.ActivityEnded
		key.screen = ScreenEnded
	}
	if key == c.state.lastStatus {
		return
	}
	c.state.lastStatus = key
	c.server.UpdateStatus(c.handle.ID, server.SessionStatus{
		Player:        s.Player,
		Activity:      activity,
		Score:         s.Score,
		TimeRemaining: float64(key.seconds),
	})
}
