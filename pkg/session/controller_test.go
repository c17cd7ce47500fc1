package session

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/inkstream/inkstream/go/pkg/docstream"
	"github.com/inkstream/inkstream/go/pkg/outline"
)

type fakeTransport struct {
	mu    sync.Mutex
	stops int
}

func (f *fakeTransport) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeTransport) stopped(t *testing.T) int {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		n := f.stops
		f.mu.Unlock()
		if n > 0 {
			return n
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("transport was never stopped")
	return 0
}

func seededStore(n int) *outline.Store {
	s := outline.NewStore()
	o := &outline.Outline{Title: "doc"}
	for i := 0; i < n; i++ {
		o.Sections = append(o.Sections, &outline.Section{Heading: "S"})
	}
	s.Replace(o)
	return s
}

func sectionController(store *outline.Store, index int) (*Controller, *fakeTransport) {
	ctl := New(Config{Store: store, SectionIndex: index})
	tr := &fakeTransport{}
	ctl.Bind(tr)
	return ctl, tr
}

func TestAppendOnly(t *testing.T) {
	store := seededStore(2)
	ctl, _ := sectionController(store, 1)

	ctl.Handle(docstream.Start{})
	ctl.Handle(docstream.SectionBegin{Index: 1, Heading: "Method"})
	frags := []string{"The ", "quick ", "brown ", "fox."}
	for _, f := range frags {
		ctl.Handle(docstream.Token{Index: 1, Text: f})
	}
	if got, want := store.Section(1).Content, strings.Join(frags, ""); got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
	if ctl.State() != StateWriting {
		t.Errorf("state = %v", ctl.State())
	}
}

func TestSavedContentSupersedesStreamed(t *testing.T) {
	store := seededStore(1)
	ctl, tr := sectionController(store, 0)

	ctl.Handle(docstream.SectionBegin{Index: 0, Heading: "Intro"})
	ctl.Handle(docstream.Token{Text: "partial garbage"})
	ctl.Handle(docstream.Saved{DocID: 7, Content: "final text", HasContent: true})

	if got := store.Section(0).Content; got != "final text" {
		t.Errorf("content = %q, want authoritative final value", got)
	}
	if ctl.State() != StateCompleted {
		t.Errorf("state = %v", ctl.State())
	}
	tr.stopped(t)
}

func TestSavedWithoutContentKeepsStreamed(t *testing.T) {
	store := seededStore(1)
	ctl, _ := sectionController(store, 0)

	ctl.Handle(docstream.SectionBegin{Index: 0})
	ctl.Handle(docstream.Token{Text: "streamed"})
	ctl.Handle(docstream.Saved{DocID: 7})

	if got := store.Section(0).Content; got != "streamed" {
		t.Errorf("content = %q", got)
	}
}

func TestSectionBeginReplacesExistingContent(t *testing.T) {
	store := seededStore(3)
	old := "stale paragraph from the last run"
	store.PatchSection(1, outline.Patch{Content: &old})
	ctl, tr := sectionController(store, 1)

	ctl.Handle(docstream.Start{})
	ctl.Handle(docstream.SectionBegin{Index: 1, Heading: "Method", Hint: "shorter, cite more"})
	ctl.Handle(docstream.Token{Index: 1, Text: "fresh "})
	ctl.Handle(docstream.Token{Index: 1, Text: "body"})
	ctl.Handle(docstream.SectionEnd{Index: 1})
	ctl.Handle(docstream.Saved{DocID: 41})

	// The server persists exactly the joined tokens; the local model must
	// match, not old+new.
	if got := store.Section(1).Content; got != "fresh body" {
		t.Errorf("content = %q, want only the newly streamed body", got)
	}
	if got := store.Section(1).Summary; got != "shorter, cite more" {
		t.Errorf("summary = %q, want the hint", got)
	}
	tr.stopped(t)
}

func TestSectionBeginEmptyHintKeepsSummary(t *testing.T) {
	store := seededStore(1)
	summary := "original steer"
	store.PatchSection(0, outline.Patch{Summary: &summary})
	ctl, _ := sectionController(store, 0)

	ctl.Handle(docstream.SectionBegin{Index: 0, Heading: "Intro"})

	if got := store.Section(0).Summary; got != "original steer" {
		t.Errorf("summary = %q, want untouched", got)
	}
}

func TestTokenBeforeSectionDropped(t *testing.T) {
	store := outline.NewStore()
	ctl := New(Config{Store: store, SectionIndex: WholeDocument})

	ctl.Handle(docstream.Start{})
	ctl.Handle(docstream.Token{Text: "stray"})
	ctl.Handle(docstream.Cite{SnippetID: 9, Index: -1})

	if store.Len() != 0 {
		t.Errorf("store grew to %d sections from a stray token", store.Len())
	}

	ctl.Handle(docstream.SectionBegin{Index: 0, Heading: "Intro"})
	ctl.Handle(docstream.Token{Text: "real"})
	if got := store.Section(0).Content; got != "real" {
		t.Errorf("content = %q", got)
	}
}

func TestTerminalAbsorption(t *testing.T) {
	store := seededStore(1)
	ctl, _ := sectionController(store, 0)

	ctl.Handle(docstream.SectionBegin{Index: 0})
	ctl.Handle(docstream.Token{Text: "before"})
	ctl.Handle(docstream.Saved{DocID: 1})

	// A slow transport delivering leftovers must not mutate anything.
	ctl.Handle(docstream.Token{Text: " after"})
	ctl.Handle(docstream.ErrorEvent{Message: "late"})
	ctl.Handle(docstream.Cite{SnippetID: 3})

	if got := store.Section(0).Content; got != "before" {
		t.Errorf("content mutated after terminal: %q", got)
	}
	if ctl.State() != StateCompleted {
		t.Errorf("state = %v, want completed to absorb", ctl.State())
	}
	if len(store.Section(0).Citations) != 0 {
		t.Error("citation attached after terminal")
	}
}

func TestCancelKeepsPartialContent(t *testing.T) {
	store := seededStore(1)
	ctl, tr := sectionController(store, 0)

	ctl.Handle(docstream.SectionBegin{Index: 0})
	ctl.Handle(docstream.Token{Text: "draft so far"})
	ctl.Cancel()

	if ctl.State() != StateCancelled {
		t.Errorf("state = %v", ctl.State())
	}
	if got := store.Section(0).Content; got != "draft so far" {
		t.Errorf("cancel rolled back content: %q", got)
	}
	if tr.stops != 1 {
		t.Errorf("stops = %d", tr.stops)
	}
	ctl.Cancel() // no-op in terminal state
	if tr.stops != 1 {
		t.Errorf("stops after second cancel = %d", tr.stops)
	}
	ctl.Handle(docstream.Token{Text: "x"})
	if got := store.Section(0).Content; got != "draft so far" {
		t.Errorf("event after cancel mutated content: %q", got)
	}
}

func TestPaymentRequired(t *testing.T) {
	store := seededStore(1)
	ctl, tr := sectionController(store, 0)
	ctl.Handle(docstream.SectionBegin{Index: 0})
	ctl.Handle(docstream.PaymentRequired{})
	if ctl.State() != StatePaymentRequired {
		t.Errorf("state = %v", ctl.State())
	}
	tr.stopped(t)
}

func TestErrorSurfacedVerbatim(t *testing.T) {
	store := seededStore(1)
	ctl, tr := sectionController(store, 0)
	ctl.Handle(docstream.SectionBegin{Index: 0})
	ctl.Handle(docstream.ErrorEvent{Message: "model exploded: gpu on fire"})
	if ctl.State() != StateFailed {
		t.Errorf("state = %v", ctl.State())
	}
	if got := ctl.Status().ErrMessage; got != "model exploded: gpu on fire" {
		t.Errorf("error message = %q", got)
	}
	tr.stopped(t)
}

func TestProgressReporting(t *testing.T) {
	store := outline.NewStore()
	var progress []int
	ctl := New(Config{
		Store:         store,
		SectionIndex:  WholeDocument,
		Title:         "doc",
		TotalSections: 5,
		OnStatus:      func(st Status) { progress = append(progress, st.Progress) },
	})

	ctl.Handle(docstream.Start{})
	ctl.Handle(docstream.SectionBegin{Index: 0, Heading: "A"})
	ctl.Handle(docstream.SectionEnd{Index: 0})
	ctl.Handle(docstream.SectionBegin{Index: 1, Heading: "B"})
	ctl.Handle(docstream.Saved{DocID: 1})

	want := []int{5, 10, 24, 24, 100}
	if len(progress) != len(want) {
		t.Fatalf("progress = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Errorf("progress[%d] = %d, want %d", i, progress[i], want[i])
		}
	}
}

func TestWholeDocumentMaterializes(t *testing.T) {
	store := outline.NewStore()
	ctl := New(Config{Store: store, SectionIndex: WholeDocument, Title: "My Doc", Mode: "technical document"})

	ctl.Handle(docstream.Start{})
	ctl.Handle(docstream.SectionBegin{Index: 0, Heading: "Intro", Hint: "set the scene"})
	ctl.Handle(docstream.Token{Text: "first"})
	ctl.Handle(docstream.SectionEnd{Index: 0})
	ctl.Handle(docstream.SectionBegin{Index: 1, Heading: "Method"})
	ctl.Handle(docstream.Token{Text: "second"})
	ctl.Handle(docstream.Cite{SnippetID: 11, Index: 1})

	o := store.Snapshot()
	if o.Title != "My Doc" || len(o.Sections) != 2 {
		t.Fatalf("outline = %+v", o)
	}
	if o.Sections[0].Heading != "Intro" || o.Sections[0].Content != "first" {
		t.Errorf("section 0 = %+v", o.Sections[0])
	}
	if o.Sections[0].Summary != "set the scene" {
		t.Errorf("section 0 summary = %q", o.Sections[0].Summary)
	}
	if o.Sections[1].Content != "second" || !o.Sections[1].Citations.Has(11) {
		t.Errorf("section 1 = %+v", o.Sections[1])
	}
	if store.Focus() != 1 {
		t.Errorf("focus = %d", store.Focus())
	}
}

func TestWholeDocumentSavedReplacesOutline(t *testing.T) {
	store := outline.NewStore()
	ctl := New(Config{Store: store, SectionIndex: WholeDocument, Title: "My Doc"})

	ctl.Handle(docstream.SectionBegin{Index: 0, Heading: "Intro"})
	ctl.Handle(docstream.Token{Text: "partial intr"})
	ctl.Handle(docstream.Cite{SnippetID: 4, Index: 0})
	ctl.Handle(docstream.Saved{
		DocID:      9,
		Content:    "# My Doc\n\n## Intro\n\nfull intro text.\n\n## Method\n\nfull method text.\n\n",
		HasContent: true,
	})

	o := store.Snapshot()
	if len(o.Sections) != 2 {
		t.Fatalf("sections = %d", len(o.Sections))
	}
	if o.Sections[0].Content != "full intro text." {
		t.Errorf("content = %q, want authoritative body", o.Sections[0].Content)
	}
	if !o.Sections[0].Citations.Has(4) {
		t.Error("streamed citations lost on final replacement")
	}
}

func TestTokenStatusThrottle(t *testing.T) {
	store := seededStore(1)
	var emits int
	ctl := New(Config{
		Store:        store,
		SectionIndex: 0,
		StatusEvery:  3,
		OnStatus:     func(Status) { emits++ },
	})
	ctl.Handle(docstream.SectionBegin{Index: 0}) // emits once
	for i := 0; i < 9; i++ {
		ctl.Handle(docstream.Token{Text: "x"})
	}
	if emits != 1+3 {
		t.Errorf("status emits = %d, want 4", emits)
	}
	if got := ctl.Status().TokensReceived; got != 9 {
		t.Errorf("tokens = %d", got)
	}
}

func TestStreamingFlag(t *testing.T) {
	store := seededStore(1)
	ctl, tr := sectionController(store, 0)

	if ctl.Streaming() {
		t.Error("streaming before start")
	}
	ctl.Handle(docstream.SectionBegin{Index: 0})
	if !ctl.Streaming() {
		t.Error("not streaming while writing")
	}

	ctl.Disconnect()
	if ctl.Streaming() {
		t.Error("still streaming after disconnect")
	}
	if tr.stops != 1 {
		t.Errorf("stops = %d", tr.stops)
	}
	ctl.UnlockForEditing()
	if ctl.Streaming() {
		t.Error("still streaming after unlock")
	}
	// Disconnect pauses, it does not terminate.
	if ctl.State() != StateWriting {
		t.Errorf("state = %v", ctl.State())
	}
}

func TestSlowNotice(t *testing.T) {
	store := seededStore(1)
	fired := make(chan time.Duration, 1)
	ctl := New(Config{
		Store:        store,
		SectionIndex: 0,
		SlowAfter:    10 * time.Millisecond,
		OnSlow:       func(d time.Duration) { fired <- d },
	})
	ctl.Handle(docstream.SectionBegin{Index: 0})
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("slow notice never fired")
	}
	// Informational only: state is untouched.
	if ctl.State() != StateWriting {
		t.Errorf("state = %v", ctl.State())
	}
}

func TestSlowNoticeSuppressedAfterTerminal(t *testing.T) {
	store := seededStore(1)
	fired := make(chan struct{}, 1)
	ctl := New(Config{
		Store:        store,
		SectionIndex: 0,
		SlowAfter:    30 * time.Millisecond,
		OnSlow:       func(time.Duration) { fired <- struct{}{} },
	})
	ctl.Handle(docstream.Saved{DocID: 1})
	select {
	case <-fired:
		t.Error("slow notice fired after completion")
	case <-time.After(80 * time.Millisecond):
	}
}
