package game

import (
	"math/rand/v2"
	"sync"
)

// Rand is the subset of *rand.Rand the engine needs. Tests pass a seeded
// source so deals and draws are reproducible.
type Rand interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// lockedRand serializes access to a shared *rand.Rand across match handlers.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewLockedRand(seed1, seed2 uint64) Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed1, seed2))}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func (l *lockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}
