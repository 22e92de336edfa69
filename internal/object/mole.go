package object

import (
	"time"

	"github.com/tomz197/moles/internal/loop/config"
)

// UpdateContext provides what a mole needs to advance its timeline.
type UpdateContext struct {
	Delta    time.Duration
	Reporter Reporter
}

// Mole is one hole of the grid. Once activated it runs its own
// Rising → Up → Falling timeline, advanced explicitly by Update, and reports
// hits and misses to the Reporter. A stopped mole never calls back.
type Mole struct {
	ID int

	kind     Kind
	lives    int
	phase    Phase
	hittable bool

	elapsed  float64 // Seconds spent in the current phase (or in quick-hide)
	duration float64 // Linger time at the top for this activation

	whacked bool    // Cleared by a hit, waiting for quick-hide
	hold    float64 // Progress frozen at the moment of the clearing hit

	ShowDuration   float64 // Rise/fall time in seconds
	QuickHideDelay float64 // Time a whacked mole stays visible
}

// NewMole creates a hidden mole for the given hole index.
func NewMole(id int) *Mole {
	return &Mole{
		ID:             id,
		ShowDuration:   config.ShowDuration,
		QuickHideDelay: config.QuickHideDelay,
	}
}

// SetIndex assigns the hole index reported in callbacks.
func (m *Mole) SetIndex(id int) {
	m.ID = id
}

// Activate starts a new timeline with a kind and duration drawn from the
// difficulty at level. It fails with ErrBusy if the mole is not hidden.
func (m *Mole) Activate(level int, rng Rand) error {
	if m.Busy() {
		return ErrBusy
	}
	d := DifficultyFor(level)
	m.kind = d.Roll(rng)
	m.lives = 1
	if m.kind == KindHardHat {
		m.lives = 2
	}
	m.duration = d.SampleDuration(rng)
	m.phase = PhaseRising
	m.elapsed = 0
	m.hittable = true
	return nil
}

// OnSelected applies a player hit. It reports whether the hit landed.
func (m *Mole) OnSelected(rep Reporter) bool {
	if !m.hittable {
		return false
	}
	switch m.kind {
	case KindStandard:
		m.lives = 0
		m.whack()
		rep.OnHit(m.ID)
	case KindHardHat:
		m.lives--
		if m.lives > 0 {
			rep.OnHatCracked(m.ID)
			return true
		}
		m.whack()
		rep.OnHit(m.ID)
	case KindBomb:
		rep.OnBomb(m.ID)
	}
	return true
}

// whack freezes the mole where it is and starts the quick-hide countdown.
func (m *Mole) whack() {
	m.hold = m.Progress()
	m.whacked = true
	m.hittable = false
	m.elapsed = 0
}

// Update advances the timeline by ctx.Delta. Several phases may complete
// in one call when the delta is large.
func (m *Mole) Update(ctx UpdateContext) {
	dt := ctx.Delta.Seconds()
	if m.whacked {
		m.elapsed += dt
		if m.elapsed >= m.QuickHideDelay {
			m.Stop()
		}
		return
	}
	for dt > 0 && m.phase != PhaseHidden {
		remaining := m.phaseLength() - m.elapsed
		if dt < remaining {
			m.elapsed += dt
			return
		}
		dt -= remaining
		m.advance(ctx.Reporter)
	}
}

func (m *Mole) phaseLength() float64 {
	switch m.phase {
	case PhaseRising, PhaseFalling:
		return m.ShowDuration
	case PhaseUp:
		return m.duration
	default:
		return 0
	}
}

func (m *Mole) advance(rep Reporter) {
	m.elapsed = 0
	switch m.phase {
	case PhaseRising:
		m.phase = PhaseUp
	case PhaseUp:
		m.phase = PhaseFalling
	case PhaseFalling:
		escaped := m.hittable
		m.Stop()
		if escaped && rep != nil {
			rep.OnMissed(m.ID, m.kind != KindBomb)
		}
	}
}

// Stop cancels the timeline and hides the mole immediately.
func (m *Mole) Stop() {
	m.phase = PhaseHidden
	m.hittable = false
	m.whacked = false
	m.elapsed = 0
	m.hold = 0
}

// Busy reports whether the mole is showing or still in quick-hide.
func (m *Mole) Busy() bool {
	return m.phase != PhaseHidden || m.whacked
}

// Progress returns how far out of the hole the mole is, from 0 (hidden) to 1 (up).
func (m *Mole) Progress() float64 {
	if m.whacked {
		return m.hold
	}
	switch m.phase {
	case PhaseRising:
		return clamp(m.elapsed/m.ShowDuration, 0, 1)
	case PhaseUp:
		return 1
	case PhaseFalling:
		return clamp(1-m.elapsed/m.ShowDuration, 0, 1)
	default:
		return 0
	}
}

// Kind returns the kind rolled on the last activation.
func (m *Mole) Kind() Kind { return m.kind }

// Lives returns the remaining hits needed to clear the mole.
func (m *Mole) Lives() int { return m.lives }

// Phase returns the current timeline phase.
func (m *Mole) Phase() Phase { return m.phase }

// Hittable reports whether a hit would register.
func (m *Mole) Hittable() bool { return m.hittable }

// Whacked reports whether the mole was cleared and is about to hide.
func (m *Mole) Whacked() bool { return m.whacked }

// Duration returns the linger time sampled on the last activation.
func (m *Mole) Duration() float64 { return m.duration }
