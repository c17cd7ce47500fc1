package outline

import (
	"fmt"
	"testing"
)

func testOutline(n int) *Outline {
	o := &Outline{Title: "doc", Mode: "technical document"}
	for i := 0; i < n; i++ {
		o.Sections = append(o.Sections, &Section{Heading: fmt.Sprintf("S%d", i)})
	}
	return o
}

func TestAppendContent(t *testing.T) {
	s := NewStore()
	s.Replace(testOutline(2))

	s.AppendContent(1, "hello")
	s.AppendContent(1, " world")
	if got := s.Section(1).Content; got != "hello world" {
		t.Errorf("content = %q, want %q", got, "hello world")
	}
	if got := s.Section(0).Content; got != "" {
		t.Errorf("section 0 content = %q, want empty", got)
	}
}

func TestPatchSection(t *testing.T) {
	s := NewStore()
	s.Replace(testOutline(1))
	s.AppendContent(0, "partial streamed text")

	summary := "sums it up"
	s.PatchSection(0, Patch{Summary: &summary})
	sec := s.Section(0)
	if sec.Summary != summary {
		t.Errorf("summary = %q", sec.Summary)
	}
	if sec.Content != "partial streamed text" {
		t.Errorf("patch without Content touched content: %q", sec.Content)
	}

	final := "authoritative final"
	s.PatchSection(0, Patch{Content: &final})
	if got := s.Section(0).Content; got != final {
		t.Errorf("content = %q, want %q", got, final)
	}
}

func TestReorderPreservesSet(t *testing.T) {
	const n = 5
	for from := 0; from < n; from++ {
		for to := 0; to < n; to++ {
			t.Run(fmt.Sprintf("from=%d,to=%d", from, to), func(t *testing.T) {
				s := NewStore()
				s.Replace(testOutline(n))
				s.Reorder(from, to)

				o := s.Snapshot()
				if len(o.Sections) != n {
					t.Fatalf("len = %d, want %d", len(o.Sections), n)
				}
				seen := make(map[string]bool)
				for _, sec := range o.Sections {
					seen[sec.Heading] = true
				}
				if len(seen) != n {
					t.Errorf("sections not a permutation: %v", seen)
				}
				if got := o.Sections[to].Heading; got != fmt.Sprintf("S%d", from) {
					t.Errorf("moved section at %d = %s, want S%d", to, got, from)
				}
			})
		}
	}
}

func TestAttachCitationIdempotent(t *testing.T) {
	s := NewStore()
	s.Replace(testOutline(1))

	if !s.AttachCitation(0, 42) {
		t.Error("first attach reported duplicate")
	}
	if s.AttachCitation(0, 42) {
		t.Error("second attach reported new")
	}
	cs := s.Section(0).Citations
	if len(cs) != 1 || !cs.Has(42) {
		t.Errorf("citations = %v, want {42}", cs.IDs())
	}
}

func TestOutOfRangePanics(t *testing.T) {
	s := NewStore()
	s.Replace(testOutline(2))
	for name, fn := range map[string]func(){
		"append":  func() { s.AppendContent(2, "x") },
		"patch":   func() { s.PatchSection(-1, Patch{}) },
		"reorder": func() { s.Reorder(0, 7) },
		"cite":    func() { s.AttachCitation(5, 1) },
		"focus":   func() { s.SetFocus(2) },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			fn()
		})
	}
}

func TestReplaceEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewStore().Replace(&Outline{Title: "empty"})
}

func TestSubscribeDeliversContentChanges(t *testing.T) {
	s := NewStore()
	s.Replace(testOutline(2))

	var got []Change
	s.Subscribe(func(ch Change) { got = append(got, ch) })

	s.AppendContent(0, "a")
	s.AppendContent(0, "b")
	s.SetFocus(1)

	want := []Change{{0, "a"}, {0, "ab"}, {1, ""}}
	if len(got) != len(want) {
		t.Fatalf("changes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("change[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := NewStore()
	s.Replace(testOutline(1))
	s.AttachCitation(0, 1)

	snap := s.Snapshot()
	snap.Sections[0].Content = "tampered"
	snap.Sections[0].Citations.Add(99)

	sec := s.Section(0)
	if sec.Content != "" {
		t.Error("snapshot mutation leaked into store content")
	}
	if sec.Citations.Has(99) {
		t.Error("snapshot mutation leaked into store citations")
	}
}

func TestReplaceClipsFocus(t *testing.T) {
	s := NewStore()
	s.Replace(testOutline(5))
	s.SetFocus(4)
	s.Replace(testOutline(2))
	if got := s.Focus(); got != 1 {
		t.Errorf("focus = %d, want 1", got)
	}
}
