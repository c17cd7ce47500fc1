package outline

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	t.Run("valid json", func(t *testing.T) {
		data := []byte(`{"title":"T","mode":"technical document","sections":[{"heading":"Intro","content":"hi","citations":[2,1]}]}`)
		o, err := Parse(data)
		if err != nil {
			t.Fatal(err)
		}
		if o.Title != "T" || len(o.Sections) != 1 {
			t.Fatalf("parsed = %+v", o)
		}
		ids := o.Sections[0].Citations.IDs()
		if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
			t.Errorf("citations = %v, want [1 2]", ids)
		}
	})

	t.Run("repairs truncated json", func(t *testing.T) {
		// A model-produced blob cut off mid-array.
		data := []byte(`{"title":"T","sections":[{"heading":"A"},{"heading":"B"`)
		o, err := Parse(data)
		if err != nil {
			t.Fatal(err)
		}
		if len(o.Sections) != 2 {
			t.Errorf("sections = %d, want 2", len(o.Sections))
		}
	})

	t.Run("no sections", func(t *testing.T) {
		if _, err := Parse([]byte(`{"title":"T","sections":[]}`)); !errors.Is(err, ErrNoSections) {
			t.Errorf("err = %v, want ErrNoSections", err)
		}
	})
}

func TestParseMarkdown(t *testing.T) {
	content := "# My Doc\n\n## Intro\n\nfirst paragraph.\n\n## Method\n\nsecond paragraph.\nmore.\n\n"
	o, err := ParseMarkdown(content)
	if err != nil {
		t.Fatal(err)
	}
	if o.Title != "My Doc" {
		t.Errorf("title = %q", o.Title)
	}
	if len(o.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(o.Sections))
	}
	if o.Sections[0].Heading != "Intro" || o.Sections[0].Content != "first paragraph." {
		t.Errorf("section 0 = %+v", o.Sections[0])
	}
	if o.Sections[1].Content != "second paragraph.\nmore." {
		t.Errorf("section 1 content = %q", o.Sections[1].Content)
	}
}

func TestParseMarkdownNoHeadings(t *testing.T) {
	if _, err := ParseMarkdown("just some text\n"); !errors.Is(err, ErrNoSections) {
		t.Errorf("err = %v, want ErrNoSections", err)
	}
}

func TestMarkdownRoundTrip(t *testing.T) {
	o := &Outline{
		Title: "My Doc",
		Sections: []*Section{
			{Heading: "Intro", Content: "first."},
			{Heading: "Method", Content: "second."},
			{Heading: "Pending"},
		},
	}
	back, err := ParseMarkdown(o.Markdown())
	if err != nil {
		t.Fatal(err)
	}
	if back.Title != o.Title || len(back.Sections) != len(o.Sections) {
		t.Fatalf("round trip = %+v", back)
	}
	for i := range o.Sections {
		if back.Sections[i].Heading != o.Sections[i].Heading {
			t.Errorf("heading[%d] = %q", i, back.Sections[i].Heading)
		}
		if back.Sections[i].Content != o.Sections[i].Content {
			t.Errorf("content[%d] = %q", i, back.Sections[i].Content)
		}
	}
}
