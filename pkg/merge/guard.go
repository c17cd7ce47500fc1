package merge

import "sync/atomic"

// Guard marks a window in which callbacks fired by an operation are that
// operation's own side effects, not new input. The edit surface invokes its
// edit callback synchronously when content is set programmatically; without
// the guard, a machine write would be re-ingested as a user edit and echoed
// back into the document model forever.
//
// The counter (rather than a bool) keeps nested machine writes correct.
type Guard struct {
	depth atomic.Int32
}

// During runs fn with the guard held.
func (g *Guard) During(fn func()) {
	g.depth.Add(1)
	defer g.depth.Add(-1)
	fn()
}

// Active reports whether a guarded operation is in progress on any
// goroutine. Callback paths are synchronous here, so in practice this means
// "the current callback is a side effect".
func (g *Guard) Active() bool {
	return g.depth.Load() > 0
}
