package server

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Default number of sessions allowed to run at once.
const DefaultMaxSessions = 4

// Caps the number of sessions running at once.
//
// The acceptor takes a slot before spawning a session, so a full gate delays
// the next accept rather than refusing connections; they queue in the
// kernel's backlog instead.
type gate struct {
	sem      *semaphore.Weighted
	capacity int
	inUse    atomic.Int64
}

// Creates a gate with n slots.
func newGate(n int) *gate {
	return &gate{sem: semaphore.NewWeighted(int64(n)), capacity: n}
}

// Blocks until a slot is free or ctx is done.
func (g *gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	g.inUse.Add(1)
	return nil
}

// Returns a slot taken by [gate.Acquire].
//
// Panics if no slot is held.
func (g *gate) Release() {
	g.inUse.Add(-1)
	g.sem.Release(1)
}

// Number of slots currently held.
func (g *gate) InUse() int {
	return int(g.inUse.Load())
}
