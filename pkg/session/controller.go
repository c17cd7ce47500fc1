package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkstream/inkstream/go/pkg/docstream"
	"github.com/inkstream/inkstream/go/pkg/outline"
)

// WholeDocument as Config.SectionIndex means the session writes the entire
// document, following the server's section_begin events; a non-negative
// index pins the session to one section (regeneration).
const WholeDocument = -1

// Config configures a Controller.
type Config struct {
	// Store is the document model the session writes to. Required.
	Store *outline.Store

	// SectionIndex is the target section, or WholeDocument.
	SectionIndex int

	// Title seeds the outline title for whole-document sessions whose
	// store starts empty.
	Title string

	// Mode seeds the outline mode for whole-document sessions.
	Mode string

	// TotalSections sizes the progress estimate. Zero falls back to the
	// store's current section count as sections appear.
	TotalSections int

	// StatusEvery throttles per-token status updates: elapsed time is
	// recomputed and OnStatus invoked every Nth token. Display only;
	// correctness never depends on it. Default 25.
	StatusEvery int

	// OnStatus, when set, receives progress/state snapshots.
	OnStatus func(Status)

	// SlowAfter arms a purely informational notice when generation has
	// run this long without finishing. Zero disables it.
	SlowAfter time.Duration

	// OnSlow receives the slow-generation notice.
	OnSlow func(elapsed time.Duration)

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Status is a point-in-time snapshot of a session for display.
type Status struct {
	SessionID      string
	State          State
	Progress       int // 0..100
	TokensReceived int
	Elapsed        time.Duration
	LastEvent      docstream.Kind
	DocID          int64
	ErrMessage     string
}

// Controller runs the generation state machine for one request. Events
// arrive through Handle, in order, from the transport's single reader
// goroutine; Cancel, Disconnect and UnlockForEditing may be called from any
// goroutine.
//
// The controller is the only writer of machine-originated content: token
// events append (never overwrite), and only a saved event carrying explicit
// content replaces what was streamed.
type Controller struct {
	id     string
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	transport Transport
	state     State
	target    int
	total     int
	completed int
	tokens    int
	startedAt time.Time
	lastEvent docstream.Kind
	progress  int
	errMsg    string
	docID     int64
	paused    bool
	unlocked  bool
	slowTimer *time.Timer
}

// New creates a controller in StateIdle. Bind attaches the transport once
// the stream client exists (the client needs the controller's Handle as its
// handler first).
func New(cfg Config) *Controller {
	if cfg.Store == nil {
		panic("session: Config.Store is required")
	}
	if cfg.StatusEvery <= 0 {
		cfg.StatusEvery = 25
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	c := &Controller{
		id:        uuid.NewString(),
		cfg:       cfg,
		logger:    cfg.Logger,
		state:     StateIdle,
		target:    cfg.SectionIndex,
		total:     cfg.TotalSections,
		startedAt: time.Now(),
	}
	if cfg.SlowAfter > 0 && cfg.OnSlow != nil {
		c.slowTimer = time.AfterFunc(cfg.SlowAfter, func() {
			c.mu.Lock()
			fire := !c.state.Terminal()
			elapsed := time.Since(c.startedAt)
			c.mu.Unlock()
			if fire {
				cfg.OnSlow(elapsed)
			}
		})
	}
	return c
}

// ID returns the session id.
func (c *Controller) ID() string { return c.id }

// Bind attaches the transport the controller tears down on terminal events.
func (c *Controller) Bind(t Transport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transport = t
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Streaming reports whether the session is actively writing machine content
// into the document. The merge engine keys its scroll/cursor policy and
// edit locking off this.
func (c *Controller) Streaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return (c.state == StateStarting || c.state == StateWriting) && !c.paused && !c.unlocked
}

// TargetIndex returns the section the session is currently writing to.
func (c *Controller) TargetIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Status returns a display snapshot.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) statusLocked() Status {
	return Status{
		SessionID:      c.id,
		State:          c.state,
		Progress:       c.progress,
		TokensReceived: c.tokens,
		Elapsed:        time.Since(c.startedAt),
		LastEvent:      c.lastEvent,
		DocID:          c.docID,
		ErrMessage:     c.errMsg,
	}
}

// Handle consumes one stream event. Events after a terminal state are
// ignored entirely: a late transport cannot mutate the document.
//
// State bookkeeping happens under the controller lock; document mutation
// happens after it is released, because store notifications call back into
// components that read this controller. Order is still strict: Handle only
// ever runs on the transport's single reader goroutine.
func (c *Controller) Handle(ev docstream.Event) {
	c.mu.Lock()
	if c.state.Terminal() {
		c.mu.Unlock()
		c.logger.Debug("session: event after terminal state dropped", "session", c.id, "event", ev.Kind().String())
		return
	}
	c.lastEvent = ev.Kind()

	var (
		apply    func()
		emit     bool
		teardown bool
	)
	switch e := ev.(type) {
	case docstream.Start:
		if c.state == StateIdle {
			c.state = StateStarting
		}
		c.progress = 5
		emit = true

	case docstream.SectionBegin:
		c.state = StateWriting
		if c.cfg.SectionIndex == WholeDocument {
			c.target = e.Index
			apply = func() {
				c.materialize(e.Index, e.Heading, e.Hint)
				c.cfg.Store.SetFocus(e.Index)
			}
		} else {
			// Regeneration replaces the section: the server streams the
			// full fresh body and persists exactly the joined tokens, and
			// a non-empty hint becomes the section's summary.
			target := c.target
			hint := e.Hint
			apply = func() {
				empty := ""
				p := outline.Patch{Content: &empty}
				if hint != "" {
					p.Summary = &hint
				}
				c.cfg.Store.PatchSection(target, p)
			}
		}
		c.completed = e.Index
		c.recomputeProgress()
		emit = true

	case docstream.Token:
		if c.target < 0 {
			c.logger.Debug("session: token before any section, dropped", "session", c.id)
			break
		}
		target := c.target
		apply = func() { c.cfg.Store.AppendContent(target, e.Text) }
		c.tokens++
		if c.tokens%c.cfg.StatusEvery == 0 {
			emit = true
		}

	case docstream.Cite:
		idx := c.target
		if e.Index >= 0 && c.cfg.SectionIndex == WholeDocument {
			idx = e.Index
		}
		if idx < 0 {
			c.logger.Debug("session: cite before any section, dropped", "session", c.id, "snippet", e.SnippetID)
			break
		}
		apply = func() { c.cfg.Store.AttachCitation(idx, e.SnippetID) }

	case docstream.SectionEnd:
		c.completed++
		c.recomputeProgress()
		emit = true

	case docstream.Saved:
		c.state = StateCompleted
		c.progress = 100
		c.docID = e.DocID
		if e.HasContent {
			target := c.target
			apply = func() { c.applyFinalContent(target, e.Content) }
		}
		emit, teardown = true, true

	case docstream.PaymentRequired:
		c.state = StatePaymentRequired
		emit, teardown = true, true

	case docstream.ErrorEvent:
		c.state = StateFailed
		c.errMsg = e.Message
		emit, teardown = true, true

	case docstream.Done, docstream.Ping:
		// Heartbeats and the clean-end marker carry no session change.
	}

	var st Status
	if emit {
		st = c.statusLocked()
	}
	transport := c.transport
	if teardown {
		c.stopSlowTimerLocked()
	}
	c.mu.Unlock()

	if apply != nil {
		apply()
	}
	if teardown && transport != nil {
		// Handle runs on the transport's reader goroutine; Stop joins
		// that goroutine, so the teardown must happen off it.
		go transport.Stop()
	}
	if emit && c.cfg.OnStatus != nil {
		c.cfg.OnStatus(st)
	}
}

// Cancel stops the transport and freezes the session. Partial content stays
// in the document on purpose: a half-written section is still a useful
// draft. Calling Cancel in a terminal state is a no-op.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.state.Terminal() {
		c.mu.Unlock()
		return
	}
	c.state = StateCancelled
	c.stopSlowTimerLocked()
	st := c.statusLocked()
	transport := c.transport
	c.mu.Unlock()

	if transport != nil {
		transport.Stop()
	}
	if c.cfg.OnStatus != nil {
		c.cfg.OnStatus(st)
	}
}

// Disconnect stops receiving events without ending the session state
// machine. The protocol has no server-side resume: this is the honest half
// of what a UI calls "pause".
func (c *Controller) Disconnect() {
	c.mu.Lock()
	c.paused = true
	transport := c.transport
	c.mu.Unlock()
	if transport != nil {
		transport.Stop()
	}
}

// UnlockForEditing releases the editing surface for manual work. This is
// the other half of "pause": generation does not continue server-side, the
// user simply takes over the draft.
func (c *Controller) UnlockForEditing() {
	c.mu.Lock()
	c.unlocked = true
	st := c.statusLocked()
	c.mu.Unlock()
	if c.cfg.OnStatus != nil {
		c.cfg.OnStatus(st)
	}
}

// recomputeProgress maps section completion onto the 10..80 band; start and
// saved pin 5 and 100.
func (c *Controller) recomputeProgress() {
	total := c.total
	if total == 0 {
		total = c.cfg.Store.Len()
	}
	if total <= 0 {
		return
	}
	p := 10 + 70*c.completed/total
	if p > 100 {
		p = 100
	}
	c.progress = p
}

// materialize grows the outline so the section at index exists, then
// records its heading and summary. Sections the server has not reached yet
// stay empty.
func (c *Controller) materialize(index int, heading, hint string) {
	store := c.cfg.Store
	if index >= store.Len() {
		snap := store.Snapshot()
		if snap == nil {
			snap = &outline.Outline{Title: c.cfg.Title, Mode: c.cfg.Mode}
		}
		for len(snap.Sections) <= index {
			snap.Sections = append(snap.Sections, &outline.Section{})
		}
		store.Replace(snap)
	}
	h := heading
	p := outline.Patch{Heading: &h}
	if hint != "" {
		p.Summary = &hint
	}
	store.PatchSection(index, p)
}

// applyFinalContent applies a saved event's authoritative content. For a
// section session it replaces that section; for a whole-document session it
// replaces the outline parsed from the persisted markdown body. Streamed
// partial content is superseded either way.
func (c *Controller) applyFinalContent(target int, content string) {
	if c.cfg.SectionIndex != WholeDocument {
		c.cfg.Store.PatchSection(target, outline.Patch{Content: &content})
		return
	}
	o, err := outline.ParseMarkdown(content)
	if err != nil {
		c.logger.Warn("session: saved content not parseable, keeping streamed sections", "session", c.id, "err", err)
		return
	}
	// Citations arrived on the stream, not in the persisted body.
	snap := c.cfg.Store.Snapshot()
	if snap != nil {
		for i, sec := range snap.Sections {
			if i < len(o.Sections) {
				o.Sections[i].Citations = sec.Citations
			}
		}
	}
	c.cfg.Store.Replace(o)
}

func (c *Controller) stopSlowTimerLocked() {
	if c.slowTimer != nil {
		c.slowTimer.Stop()
		c.slowTimer = nil
	}
}
