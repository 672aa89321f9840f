package roulette

import "telegram-roulette-bot/internal/game"

// ChamberSize is the number of slots in the revolver cylinder.
const ChamberSize = 6

// Sampler decides whether a shot fires given the loaded bullets and chamber size.
// Implementations must fire with probability exactly bullets/chamber.
type Sampler interface {
	Fire(bullets, chamber int) bool
}

// ShuffleSampler loads the bullets into the first slots, shuffles the cylinder
// and inspects slot 0.
type ShuffleSampler struct {
	rng *game.Rand
}

// NewShuffleSampler returns a sampler drawing from rng, which may be shared
// with other games.
func NewShuffleSampler(rng *game.Rand) *ShuffleSampler {
	return &ShuffleSampler{rng: rng}
}

// Fire implements Sampler.
func (s *ShuffleSampler) Fire(bullets, chamber int) bool {
	if chamber <= 0 || bullets <= 0 {
		return false
	}
	if bullets >= chamber {
		return true
	}

	slots := make([]bool, chamber)
	for i := 0; i < bullets; i++ {
		slots[i] = true
	}
	s.rng.Shuffle(len(slots), func(i, j int) {
		slots[i], slots[j] = slots[j], slots[i]
	})
	return slots[0]
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func(bullets, chamber int) bool

// Fire implements Sampler.
func (f SamplerFunc) Fire(bullets, chamber int) bool {
	return f(bullets, chamber)
}
