// Package object holds the game entities: the moles that pop out of the
// holes, their timelines and the difficulty curve that shapes them.
package object

import "errors"

// ErrBusy is returned when activating a mole that is not hidden.
var ErrBusy = errors.New("object: mole is not hidden")

// Kind is what a mole turns out to be on a given activation.
type Kind int

const (
	KindStandard Kind = iota // One hit clears it
	KindHardHat              // Needs two hits
	KindBomb                 // Ends the round when hit
)

func (k Kind) String() string {
	switch k {
	case KindStandard:
		return "standard"
	case KindHardHat:
		return "hardhat"
	case KindBomb:
		return "bomb"
	default:
		return "unknown"
	}
}

// Phase is the position of a mole in its appear/hide cycle.
type Phase int

const (
	PhaseHidden Phase = iota
	PhaseRising
	PhaseUp
	PhaseFalling
)

func (p Phase) String() string {
	switch p {
	case PhaseHidden:
		return "hidden"
	case PhaseRising:
		return "rising"
	case PhaseUp:
		return "up"
	case PhaseFalling:
		return "falling"
	default:
		return "unknown"
	}
}

// Rand is the randomness a mole needs. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Reporter receives mole outcomes. Implemented by the round controller.
// Callbacks are made synchronously from OnSelected and Update.
type Reporter interface {
	// OnHit is called when a mole is cleared (standard, or hard hat on its last life).
	OnHit(id int)
	// OnHatCracked is called when a hard hat absorbs a hit.
	OnHatCracked(id int)
	// OnBomb is called when a bomb is hit.
	OnBomb(id int)
	// OnMissed is called when a mole hides again without being cleared.
	OnMissed(id int, wasMole bool)
}
