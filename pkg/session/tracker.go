package session

import "sync"

// Tracker enforces the one-live-session-per-target invariant. Begin for a
// target cancels whatever non-terminal session previously held it, so at
// most one transport streams into any section at a time. A whole-document
// session conflicts with every section session and vice versa.
type Tracker struct {
	mu     sync.Mutex
	active map[int]*Controller
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{active: make(map[int]*Controller)}
}

// Begin registers ctl as the live session for its target, cancelling any
// prior conflicting session first.
func (t *Tracker) Begin(ctl *Controller) {
	index := ctl.cfg.SectionIndex
	t.mu.Lock()
	var cancel []*Controller
	if index == WholeDocument {
		// A document-wide writer conflicts with everything.
		for k, prior := range t.active {
			if !prior.State().Terminal() {
				cancel = append(cancel, prior)
			}
			delete(t.active, k)
		}
	} else {
		if prior, ok := t.active[index]; ok && !prior.State().Terminal() {
			cancel = append(cancel, prior)
		}
		if prior, ok := t.active[WholeDocument]; ok && !prior.State().Terminal() {
			cancel = append(cancel, prior)
			delete(t.active, WholeDocument)
		}
	}
	t.active[index] = ctl
	t.mu.Unlock()

	for _, prior := range cancel {
		prior.Cancel()
	}
}

// Active returns the live (non-terminal) session for the target, or nil.
func (t *Tracker) Active(index int) *Controller {
	t.mu.Lock()
	defer t.mu.Unlock()
	ctl, ok := t.active[index]
	if !ok || ctl.State().Terminal() {
		return nil
	}
	return ctl
}
