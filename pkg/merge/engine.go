// Package merge reconciles streamed machine content with a human-editable
// surface: the same section may be appended to by generation while the user
// reads or edits it. The engine projects document-model changes onto the
// surface without feeding its own writes back as edits, preserves the
// user's cursor for non-streaming updates, and debounces persistence of
// genuine edits.
package merge

import (
	"log/slog"
	"sync"
	"time"

	"github.com/inkstream/inkstream/go/pkg/outline"
)

// DefaultDebounce is the auto-save delay after the last user edit.
const DefaultDebounce = 2 * time.Second

// Config configures an Engine.
type Config struct {
	// Surface is the editable projection target. Required.
	Surface Surface

	// Store is the document model genuine user edits write through to.
	// Required.
	Store *outline.Store

	// Streaming reports whether a session is actively writing machine
	// content to the focused section. Required.
	Streaming func() bool

	// Save persists the current document. Called on the debounce timer's
	// goroutine after user edits settle; a failure is logged and
	// otherwise ignored, the in-memory model stays authoritative and the
	// next edit cycle retries.
	Save func() error

	// Debounce overrides DefaultDebounce.
	Debounce time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Engine is the streaming surface merge. Wire it up with
// store.Subscribe(engine.HandleChange) and it keeps the surface current;
// the surface's edit callback is captured at construction.
type Engine struct {
	cfg    Config
	logger *slog.Logger
	guard  Guard

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// NewEngine creates the engine and registers itself as the surface's edit
// callback.
func NewEngine(cfg Config) *Engine {
	if cfg.Surface == nil || cfg.Store == nil || cfg.Streaming == nil {
		panic("merge: Config.Surface, Store and Streaming are required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	e := &Engine{cfg: cfg, logger: cfg.Logger}
	cfg.Surface.OnEdit(e.onUserEdit)
	return e
}

// HandleChange receives document-model change notifications. Changes to
// sections other than the focused one are not projected; the surface shows
// the focused section only.
func (e *Engine) HandleChange(ch outline.Change) {
	if ch.Index != e.cfg.Store.Focus() {
		return
	}
	e.PushContent(ch.Content)
}

// PushContent applies a machine-originated content update to the surface.
//
// Cursor policy: while the session is actively streaming, the view follows
// the generated tail; otherwise (a late update, or the user has taken over)
// the user's cursor survives, clipped to the new content length.
func (e *Engine) PushContent(text string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	surface := e.cfg.Surface
	if surface.Content() == text {
		e.RefreshControls()
		return
	}
	e.guard.During(func() {
		cursor := surface.CursorOffset()
		surface.SetContent(text)
		if e.cfg.Streaming() {
			surface.ScrollToEnd()
			surface.SetEditingEnabled(false)
		} else {
			if cursor > len(text) {
				cursor = len(text)
			}
			surface.SetCursorOffset(cursor)
			surface.SetEditingEnabled(true)
		}
	})
}

// RefreshControls re-evaluates the structural-controls lock. Callers invoke
// it on session state changes so controls re-enable immediately on a
// terminal event instead of waiting for the next content push.
func (e *Engine) RefreshControls() {
	e.guard.During(func() {
		e.cfg.Surface.SetEditingEnabled(!e.cfg.Streaming())
	})
}

// onUserEdit is the surface's edit callback. Edits fired as side effects of
// the engine's own writes are swallowed here; that break in the feedback
// loop is the engine's core correctness property.
func (e *Engine) onUserEdit(text string) {
	if e.guard.Active() {
		return
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	store := e.cfg.Store
	store.PatchSection(store.Focus(), outline.Patch{Content: &text})
	e.scheduleSave()
}

// scheduleSave arms the debounced persistence call. Each new edit replaces
// the pending timer: last write wins, saves are not queued.
func (e *Engine) scheduleSave() {
	if e.cfg.Save == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.cfg.Debounce, func() {
		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			return
		}
		e.mu.Unlock()
		if err := e.cfg.Save(); err != nil {
			// The in-memory model remains the source of truth; the
			// next debounce cycle retries.
			e.logger.Warn("merge: auto-save failed", "err", err)
		}
	})
}

// DiscardPendingSave drops any scheduled auto-save without firing it. Used
// on cancellation so a mid-cancel buffer state is never persisted.
func (e *Engine) DiscardPendingSave() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// Close detaches the engine: pending saves are discarded, later pushes and
// edits are ignored. Safe to call more than once.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}
