package merge

// Surface is the editable view the engine projects section content onto.
// Implementations wrap whatever actually renders rich content; the engine
// never owns canonical text, only this projection plus transient edit
// state.
//
// SetContent must invoke the registered edit callback synchronously, the
// way real edit surfaces fire change events for programmatic writes. The
// engine relies on its guard to tell those apart from typing.
type Surface interface {
	Content() string
	SetContent(text string)

	CursorOffset() int
	SetCursorOffset(offset int)

	// ScrollToEnd scrolls the view to the end of content so the user can
	// watch generation happen.
	ScrollToEnd()

	// SetEditingEnabled toggles structural editing controls (lists,
	// formatting). Plain typing is always possible.
	SetEditingEnabled(enabled bool)

	// OnEdit registers the callback receiving the surface's full content
	// after every change, user-typed or programmatic.
	OnEdit(fn func(text string))
}

// TextSurface is a minimal in-memory Surface for tests and the terminal
// watch view. It reproduces the awkward property real surfaces have:
// programmatic SetContent fires the edit callback synchronously.
type TextSurface struct {
	content  string
	cursor   int
	atEnd    bool
	editable bool
	onEdit   func(string)
}

// NewTextSurface creates an empty surface with editing enabled.
func NewTextSurface() *TextSurface {
	return &TextSurface{editable: true}
}

func (s *TextSurface) Content() string { return s.content }

func (s *TextSurface) SetContent(text string) {
	s.content = text
	if s.cursor > len(text) {
		s.cursor = len(text)
	}
	if s.onEdit != nil {
		s.onEdit(text)
	}
}

func (s *TextSurface) CursorOffset() int { return s.cursor }

func (s *TextSurface) SetCursorOffset(offset int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(s.content) {
		offset = len(s.content)
	}
	s.cursor = offset
	s.atEnd = false
}

func (s *TextSurface) ScrollToEnd() { s.atEnd = true }

// AtEnd reports whether the view was last scrolled to the end.
func (s *TextSurface) AtEnd() bool { return s.atEnd }

func (s *TextSurface) SetEditingEnabled(enabled bool) { s.editable = enabled }

// EditingEnabled reports whether structural controls are enabled.
func (s *TextSurface) EditingEnabled() bool { return s.editable }

func (s *TextSurface) OnEdit(fn func(text string)) { s.onEdit = fn }

// Type simulates the user typing: content and cursor move, then the edit
// callback fires exactly as it would for programmatic writes.
func (s *TextSurface) Type(text string, cursor int) {
	s.content = text
	s.cursor = cursor
	s.atEnd = false
	if s.onEdit != nil {
		s.onEdit(text)
	}
}
