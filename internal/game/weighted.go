package game

import (
	"math/rand/v2"
	"sync"
)

// Choice is one entry of a weighted table.
type Choice[T any] struct {
	Value  T
	Weight int
}

// Table picks values with probability proportional to their weight.
type Table[T any] struct {
	choices []Choice[T]
	total   int
}

// NewTable builds a table. Entries with a non-positive weight are dropped.
func NewTable[T any](choices ...Choice[T]) *Table[T] {
	t := &Table[T]{}
	for _, c := range choices {
		if c.Weight <= 0 {
			continue
		}
		t.choices = append(t.choices, c)
		t.total += c.Weight
	}
	return t
}

// Total returns the sum of all weights.
func (t *Table[T]) Total() int { return t.total }

// Pick draws one value. It panics on an empty table.
func (t *Table[T]) Pick(rng *Rand) T {
	roll := rng.IntN(t.total)
	for _, c := range t.choices {
		if roll < c.Weight {
			return c.Value
		}
		roll -= c.Weight
	}
	return t.choices[len(t.choices)-1].Value
}

// Rand is a goroutine-safe random source shared by actions.
type Rand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRand returns a source seeded from the runtime's entropy.
func NewRand() *Rand {
	return NewSeededRand(rand.Uint64(), rand.Uint64())
}

// NewSeededRand returns a deterministic source.
func NewSeededRand(seed1, seed2 uint64) *Rand {
	return &Rand{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// IntN returns a value in [0, n).
func (r *Rand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// IntRange returns a value in [lo, hi].
func (r *Rand) IntRange(lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}

// Shuffle permutes n elements through swap.
func (r *Rand) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rng.Shuffle(n, swap)
}
