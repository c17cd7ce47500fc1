package outline

import (
	"fmt"
	"sync"
)

// Change describes a content-affecting mutation, delivered to subscribers
// after the mutation is applied. Content is the section's full content after
// the change.
type Change struct {
	Index   int
	Content string
}

// Store owns the canonical outline and serializes all mutation. Every
// operation is synchronous and total: structurally valid inputs cannot fail,
// and an out-of-range section index is a programming error that panics.
//
// The store is the single source of truth. Machine-originated writes come
// from one generation controller at a time, user-originated writes from the
// merge engine; subscribers receive a read-only view.
type Store struct {
	mu    sync.Mutex
	doc   *Outline
	focus int
	subs  []func(Change)
}

// NewStore creates an empty store. Mutating operations other than Replace
// panic until an outline is loaded.
func NewStore() *Store {
	return &Store{}
}

// Replace installs a new outline, discarding the previous one. The focus
// pointer is clipped to the new section range. Panics if o is nil or has no
// sections: an outline is a non-empty ordered sequence by definition.
func (s *Store) Replace(o *Outline) {
	if o == nil || len(o.Sections) == 0 {
		panic("outline: Replace with empty outline")
	}
	s.mu.Lock()
	s.doc = o.Clone()
	if s.focus >= len(s.doc.Sections) {
		s.focus = len(s.doc.Sections) - 1
	}
	ch := Change{Index: s.focus, Content: s.doc.Sections[s.focus].Content}
	subs := s.subscribers()
	s.mu.Unlock()
	notify(subs, ch)
}

// Len returns the number of sections, zero before the first Replace.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return 0
	}
	return len(s.doc.Sections)
}

// Focus returns the index of the currently focused section.
func (s *Store) Focus() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focus
}

// SetFocus moves the focus pointer and notifies subscribers with the newly
// focused section's content.
func (s *Store) SetFocus(index int) {
	s.mu.Lock()
	s.check(index)
	s.focus = index
	ch := Change{Index: index, Content: s.doc.Sections[index].Content}
	subs := s.subscribers()
	s.mu.Unlock()
	notify(subs, ch)
}

// Section returns a deep copy of the section at index.
func (s *Store) Section(index int) *Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.check(index)
	return s.doc.Sections[index].Clone()
}

// Snapshot returns a deep copy of the whole outline, or nil before the
// first Replace.
func (s *Store) Snapshot() *Outline {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil
	}
	return s.doc.Clone()
}

// Patch shallow-merges the non-nil fields of p into the section at index.
type Patch struct {
	Heading *string
	Summary *string
	Content *string
}

// PatchSection applies p to the section at index. Setting Content replaces
// it wholesale (the authoritative-final-value path); use AppendContent for
// streaming appends.
func (s *Store) PatchSection(index int, p Patch) {
	s.mu.Lock()
	s.check(index)
	sec := s.doc.Sections[index]
	if p.Heading != nil {
		sec.Heading = *p.Heading
	}
	if p.Summary != nil {
		sec.Summary = *p.Summary
	}
	contentChanged := p.Content != nil
	if contentChanged {
		sec.Content = *p.Content
	}
	ch := Change{Index: index, Content: sec.Content}
	var subs []func(Change)
	if contentChanged {
		subs = s.subscribers()
	}
	s.mu.Unlock()
	notify(subs, ch)
}

// AppendContent appends text to the section at index. Appends are the only
// content mutation permitted while a session is streaming into the section;
// previously appended content never disappears.
func (s *Store) AppendContent(index int, text string) {
	s.mu.Lock()
	s.check(index)
	sec := s.doc.Sections[index]
	sec.Content += text
	ch := Change{Index: index, Content: sec.Content}
	subs := s.subscribers()
	s.mu.Unlock()
	notify(subs, ch)
}

// Reorder removes the section at from and reinserts it at to, preserving
// the relative order of all other sections.
func (s *Store) Reorder(from, to int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.check(from)
	s.check(to)
	if from == to {
		return
	}
	sec := s.doc.Sections[from]
	rest := append(s.doc.Sections[:from:from], s.doc.Sections[from+1:]...)
	s.doc.Sections = make([]*Section, 0, len(rest)+1)
	s.doc.Sections = append(s.doc.Sections, rest[:to]...)
	s.doc.Sections = append(s.doc.Sections, sec)
	s.doc.Sections = append(s.doc.Sections, rest[to:]...)
}

// AttachCitation adds a snippet id to the section's citation set. Returns
// false if the id was already attached (the operation is idempotent).
func (s *Store) AttachCitation(index, snippetID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.check(index)
	return s.doc.Sections[index].Citations.Add(snippetID)
}

// Subscribe registers fn to receive content-change notifications. There is
// no unsubscribe: subscribers live as long as the store.
func (s *Store) Subscribe(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) subscribers() []func(Change) {
	out := make([]func(Change), len(s.subs))
	copy(out, s.subs)
	return out
}

func notify(subs []func(Change), ch Change) {
	for _, fn := range subs {
		fn(ch)
	}
}

// check panics on an out-of-range index. Callers hold s.mu.
func (s *Store) check(index int) {
	if s.doc == nil {
		panic("outline: no outline loaded")
	}
	if index < 0 || index >= len(s.doc.Sections) {
		panic(fmt.Sprintf("outline: section index %d out of range [0,%d)", index, len(s.doc.Sections)))
	}
}
