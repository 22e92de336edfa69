package object

import "math"

// Difficulty is the risk profile of a mole activation at a given level.
type Difficulty struct {
	Level       int
	BombRate    float64 // Chance the mole is a bomb
	HardHatRate float64 // Chance a non-bomb mole wears a hard hat
	MinDuration float64 // Shortest linger time at the top (seconds)
	MaxDuration float64 // Longest linger time at the top (seconds)
}

// DifficultyFor returns the difficulty curve evaluated at level.
// Each level raises bomb and hard hat odds by 2.5% and shortens the
// linger window by 0.1s.
func DifficultyFor(level int) Difficulty {
	if level < 0 {
		level = 0
	}
	l := float64(level)
	return Difficulty{
		Level:       level,
		BombRate:    math.Min(l*0.025, 0.25),
		HardHatRate: math.Min(l*0.025, 1.0),
		MinDuration: clamp(1-l*0.1, 0.01, 1),
		MaxDuration: clamp(2-l*0.1, 0.01, 2),
	}
}

// Roll picks a kind with two independent draws: bomb first, then hard hat.
func (d Difficulty) Roll(rng Rand) Kind {
	if rng.Float64() < d.BombRate {
		return KindBomb
	}
	if rng.Float64() < d.HardHatRate {
		return KindHardHat
	}
	return KindStandard
}

// SampleDuration draws a linger time uniformly from [MinDuration, MaxDuration].
func (d Difficulty) SampleDuration(rng Rand) float64 {
	return d.MinDuration + rng.Float64()*(d.MaxDuration-d.MinDuration)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
