// internal/game/target.go
//
// Target generators. RandomGenerator is the production source; FixedGenerator
// replays predetermined targets (tests, development answers).

package game

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"sync"
)

// Generator produces the secret target for a round.
// Implementations must always return a value in [MinTarget, MaxTarget].
type Generator interface {
	Generate() int
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func() int

func (f GeneratorFunc) Generate() int { return f() }

// Repeating is implemented by generators that keep returning the same target
// for a period, such as the number of the day.
type Repeating interface {
	Repeats() bool
}

// NextGenerator picks the source for the round after one played with gen:
// fallback when gen would hand back the target just revealed, gen otherwise.
func NextGenerator(gen, fallback Generator) Generator {
	if rg, ok := gen.(Repeating); ok && rg.Repeats() {
		return fallback
	}
	return gen
}

// RandomGenerator draws targets uniformly from [MinTarget, MaxTarget].
type RandomGenerator struct{}

// Generate uses crypto/rand and falls back to math/rand if the system
// entropy source fails, so it never errors.
func (RandomGenerator) Generate() int {
	span := int64(MaxTarget - MinTarget + 1)
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return MinTarget + mrand.Intn(int(span))
	}
	return MinTarget + int(n.Int64())
}

// FixedGenerator returns its targets in order, repeating the last one once
// exhausted. Out-of-range values are clamped into [MinTarget, MaxTarget].
type FixedGenerator struct {
	mu      sync.Mutex
	targets []int
	next    int
}

// NewFixedGenerator panics if no targets are given.
func NewFixedGenerator(targets ...int) *FixedGenerator {
	if len(targets) == 0 {
		panic("game: NewFixedGenerator needs at least one target")
	}
	return &FixedGenerator{targets: append([]int(nil), targets...)}
}

func (f *FixedGenerator) Generate() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.targets[f.next]
	if f.next < len(f.targets)-1 {
		f.next++
	}
	return clampTarget(t)
}

func clampTarget(t int) int {
	switch {
	case t < MinTarget:
		return MinTarget
	case t > MaxTarget:
		return MaxTarget
	}
	return t
}
