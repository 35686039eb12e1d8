package worker

import "sync/atomic"

// Guard is a single-flight gate for a recurring task: at most one execution
// may hold it at a time. A tick that finds the previous tick still running
// must skip instead of overlapping it.
type Guard struct {
	running atomic.Bool
}

// TryStart attempts to claim the guard. It returns false while a previous
// holder has not called Done yet.
func (g *Guard) TryStart() bool {
	return g.running.CompareAndSwap(false, true)
}

// Done releases the guard.
func (g *Guard) Done() {
	g.running.Store(false)
}

// Running reports whether the guard is currently held.
func (g *Guard) Running() bool {
	return g.running.Load()
}
