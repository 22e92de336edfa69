// Package round drives a whack-a-mole round: the countdown, spawn admission,
// hit and miss resolution and the win/lose transition.
//
// A Controller is not safe for concurrent use. The goroutine that calls Tick
// owns it, and mole callbacks run synchronously on that goroutine.
package round

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tomz197/moles/internal/logging"
	"github.com/tomz197/moles/internal/loop/config"
	"github.com/tomz197/moles/internal/object"
)

var (
	// ErrInvalidTransition is returned when an operation is not allowed in the current state.
	ErrInvalidTransition = errors.New("round: invalid transition")
	// ErrUnknownTarget is returned when selecting a hole that does not exist.
	ErrUnknownTarget = errors.New("round: unknown target")
)

// Options configures a Controller. Zero values pick the game defaults.
type Options struct {
	Targets      int
	StartingTime float64
	Rand         object.Rand
	Sink         Sink
	Scores       Scores // Optional; rounds still end without it
	Logger       *log.Logger
}

// Controller owns the round state and the moles.
type Controller struct {
	moles  []*object.Mole
	active map[int]struct{}
	free   []*object.Mole // Scratch buffer for spawn candidates

	state         State
	reason        Reason
	player        string
	score         int
	timeRemaining float64
	roundID       string

	startingTime float64
	rng          object.Rand
	sink         Sink
	scores       Scores
	logger       *log.Logger
	reporter     *reporter
}

// New creates an idle controller.
func New(opts Options) *Controller {
	if opts.Targets <= 0 {
		opts.Targets = config.HoleCount
	}
	if opts.StartingTime <= 0 {
		opts.StartingTime = config.StartingTime
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Sink == nil {
		opts.Sink = nopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	c := &Controller{
		moles:         make([]*object.Mole, opts.Targets),
		active:        make(map[int]struct{}, opts.Targets),
		free:          make([]*object.Mole, 0, opts.Targets),
		state:         StateIdle,
		player:        config.DefaultPlayerName,
		timeRemaining: opts.StartingTime,
		startingTime:  opts.StartingTime,
		rng:           opts.Rand,
		sink:          opts.Sink,
		scores:        opts.Scores,
		logger:        opts.Logger,
	}
	for i := range c.moles {
		c.moles[i] = object.NewMole(i)
	}
	c.reporter = &reporter{c: c}
	return c
}

// StartGame captures the player name and starts a round from the menu.
// A blank name falls back to the default player name.
func (c *Controller) StartGame(playerName string) error {
	if c.state != StateIdle {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, c.state)
	}
	c.player = normalizeName(playerName)
	c.begin()
	return nil
}

// RestartGame starts a new round after the previous one ended, keeping the player name.
func (c *Controller) RestartGame() error {
	if c.state != StateEnded {
		return fmt.Errorf("%w: restart from %s", ErrInvalidTransition, c.state)
	}
	c.begin()
	return nil
}

// ReturnToMenu abandons the current round (if any) without saving and goes idle.
func (c *Controller) ReturnToMenu() error {
	if c.state == StateIdle {
		return fmt.Errorf("%w: menu from %s", ErrInvalidTransition, c.state)
	}
	c.reset()
	c.state = StateIdle
	c.sink.Cue(CueMenu)
	c.publish()
	return nil
}

// EndRound stops the round, records the score and publishes the end event.
func (c *Controller) EndRound(reason Reason) error {
	if c.state != StateRunning {
		return fmt.Errorf("%w: end from %s", ErrInvalidTransition, c.state)
	}
	c.endRound(reason)
	return nil
}

// Tick advances the round by delta: countdown and timeout first, then spawn
// admission, then the mole timelines.
func (c *Controller) Tick(delta time.Duration) {
	if c.state != StateRunning {
		return
	}

	c.timeRemaining -= delta.Seconds()
	if c.timeRemaining <= 0 {
		c.timeRemaining = 0
		c.endRound(ReasonTimeout)
		return
	}

	spawned := c.spawn()

	ctx := object.UpdateContext{Delta: delta, Reporter: c.reporter}
	for _, m := range c.moles {
		if m == spawned {
			continue
		}
		m.Update(ctx)
	}

	c.publish()
}

// Select delivers a player hit on hole id. Selecting a hole that is not up
// is a no-op; an id outside the grid is an error.
func (c *Controller) Select(id int) error {
	if id < 0 || id >= len(c.moles) {
		return fmt.Errorf("%w: %d", ErrUnknownTarget, id)
	}
	if c.state != StateRunning {
		return nil
	}
	if c.moles[id].OnSelected(c.reporter) && c.state == StateRunning {
		c.publish()
	}
	return nil
}

func (c *Controller) begin() {
	c.reset()
	c.state = StateRunning
	c.roundID = uuid.NewString()
	c.logger.Info("round started", "round", c.roundID, "player", c.player)
	c.sink.Cue(CueRoundStart)
	c.publish()
}

// reset hides and re-indexes every mole and restores a fresh RoundState.
func (c *Controller) reset() {
	for i, m := range c.moles {
		m.Stop()
		m.SetIndex(i)
	}
	clear(c.active)
	c.score = 0
	c.timeRemaining = c.startingTime
	c.reason = ReasonNone
}

// spawn activates at most one hidden mole while the active count is within
// the score-based allowance.
func (c *Controller) spawn() *object.Mole {
	if len(c.active) > c.Level() {
		return nil
	}
	c.free = c.free[:0]
	for _, m := range c.moles {
		if _, up := c.active[m.ID]; up || m.Busy() {
			continue
		}
		c.free = append(c.free, m)
	}
	if len(c.free) == 0 {
		return nil
	}
	m := c.free[c.rng.Intn(len(c.free))]
	if err := m.Activate(c.Level(), c.rng); err != nil {
		c.logger.Error("activate mole", "round", c.roundID, "mole", m.ID, "err", err)
		return nil
	}
	c.active[m.ID] = struct{}{}
	c.logger.Debug("mole up", "round", c.roundID, "mole", m.ID, "kind", m.Kind(), "duration", m.Duration())
	return m
}

func (c *Controller) endRound(reason Reason) {
	for _, m := range c.moles {
		m.Stop()
	}
	clear(c.active)
	c.state = StateEnded
	c.reason = reason

	c.saveScore()
	c.logger.Info("round ended", "round", c.roundID, "player", c.player, "score", c.score, "reason", reason)

	c.sink.Cue(CueGameOver)
	c.sink.RoundEnded(EndEvent{Player: c.player, Reason: reason, FinalScore: c.score})
	c.publish()
}

func (c *Controller) saveScore() {
	if c.scores == nil {
		c.logger.Warn("leaderboard unavailable, score not saved", "player", c.player, "score", c.score)
		return
	}
	if err := c.scores.Upsert(c.player, c.score); err != nil {
		c.logger.Error("save score", "player", c.player, "score", c.score, "err", err)
	}
}

// ensureActive checks that a callback refers to a mole this controller activated.
func (c *Controller) ensureActive(id int, event string) bool {
	if c.state != StateRunning {
		c.logger.Debug("mole callback outside a round", "event", event, "mole", id)
		return false
	}
	if _, ok := c.active[id]; !ok {
		c.logger.Error("mole callback for inactive mole", "round", c.roundID, "event", event, "mole", id)
		return false
	}
	return true
}

func (c *Controller) publish() {
	c.sink.RoundUpdated(c.Snapshot())
}

// Snapshot returns the current round state for presentation.
func (c *Controller) Snapshot() Snapshot {
	targets := make([]TargetView, len(c.moles))
	for i, m := range c.moles {
		targets[i] = TargetView{
			ID:       m.ID,
			Kind:     m.Kind(),
			Phase:    m.Phase(),
			Progress: m.Progress(),
			Lives:    m.Lives(),
			Hittable: m.Hittable(),
			Whacked:  m.Whacked(),
		}
	}
	return Snapshot{
		State:         c.state,
		Player:        c.player,
		Score:         c.score,
		TimeRemaining: max(c.timeRemaining, 0),
		Level:         c.Level(),
		Active:        len(c.active),
		Reason:        c.reason,
		Targets:       targets,
	}
}

// State returns the controller state.
func (c *Controller) State() State { return c.state }

// Reason returns why the last round ended.
func (c *Controller) Reason() Reason { return c.reason }

// Score returns the current score.
func (c *Controller) Score() int { return c.score }

// TimeRemaining returns the countdown in seconds. It may briefly be negative
// after a miss penalty, until the next Tick ends the round.
func (c *Controller) TimeRemaining() float64 { return c.timeRemaining }

// Player returns the captured player name.
func (c *Controller) Player() string { return c.player }

// Level returns the difficulty level derived from the score.
func (c *Controller) Level() int { return c.score / config.PointsPerLevel }

// ActiveCount returns the number of moles currently up.
func (c *Controller) ActiveCount() int { return len(c.active) }

// IsActive reports whether hole id is in the active set.
func (c *Controller) IsActive(id int) bool {
	_, ok := c.active[id]
	return ok
}

// Targets returns the number of holes.
func (c *Controller) Targets() int { return len(c.moles) }

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return config.DefaultPlayerName
	}
	if r := []rune(name); len(r) > config.MaxUsernameLength {
		name = string(r[:config.MaxUsernameLength])
	}
	return name
}

// reporter receives mole callbacks. The active set and the round state are
// only ever mutated here and in the Controller methods above.
type reporter struct {
	c *Controller
}

func (r *reporter) OnHit(id int) {
	c := r.c
	if !c.ensureActive(id, "hit") {
		return
	}
	delete(c.active, id)
	c.score += config.PointsPerHit
	c.timeRemaining += config.HitTimeBonus
	c.sink.Cue(CueHit)
}

func (r *reporter) OnHatCracked(id int) {
	if !r.c.ensureActive(id, "cracked") {
		return
	}
	r.c.sink.Cue(CueHatCracked)
}

func (r *reporter) OnBomb(id int) {
	c := r.c
	if !c.ensureActive(id, "bomb") {
		return
	}
	c.sink.Cue(CueBomb)
	c.endRound(ReasonBombExploded)
}

func (r *reporter) OnMissed(id int, wasMole bool) {
	c := r.c
	if !c.ensureActive(id, "missed") {
		return
	}
	delete(c.active, id)
	if wasMole {
		c.timeRemaining -= config.MissTimePenalty
		c.sink.Cue(CueMiss)
		return
	}
	c.sink.Cue(CueBombDefused)
}
