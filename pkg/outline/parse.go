package outline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoSections is returned when a parsed document yields an outline with
// no sections at all.
var ErrNoSections = errors.New("outline: no sections")

// Parse decodes an outline from a persisted document content blob. Content
// written by the generation backend goes through a language model at some
// point, so a syntactically broken JSON body is repaired before giving up.
func Parse(data []byte) (*Outline, error) {
	var o Outline
	err := json.Unmarshal(data, &o)
	if err != nil {
		var syn *json.SyntaxError
		if !errors.As(err, &syn) {
			return nil, fmt.Errorf("outline: parse: %w", err)
		}
		fixed, rerr := jsonrepair.JSONRepair(string(data))
		if rerr != nil {
			return nil, fmt.Errorf("outline: parse: %w", err)
		}
		if err := json.Unmarshal([]byte(fixed), &o); err != nil {
			return nil, fmt.Errorf("outline: parse repaired: %w", err)
		}
	}
	if len(o.Sections) == 0 {
		return nil, ErrNoSections
	}
	return &o, nil
}

// ParseMarkdown rebuilds an outline from the markdown document form the
// backend persists ("# title" followed by "## heading" sections). Text
// before the first section heading is dropped apart from the title line.
func ParseMarkdown(content string) (*Outline, error) {
	o := &Outline{}
	var cur *Section
	var body strings.Builder
	flush := func() {
		if cur == nil {
			return
		}
		cur.Content = strings.TrimSpace(body.String())
		body.Reset()
		o.Sections = append(o.Sections, cur)
	}
	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "## "):
			flush()
			cur = &Section{Heading: strings.TrimSpace(line[3:])}
		case strings.HasPrefix(line, "# ") && o.Title == "" && cur == nil:
			o.Title = strings.TrimSpace(line[2:])
		case cur != nil:
			body.WriteString(line)
			body.WriteByte('\n')
		}
	}
	flush()
	if len(o.Sections) == 0 {
		return nil, ErrNoSections
	}
	return o, nil
}

// Markdown renders the outline back into the backend's markdown document
// form, the inverse of ParseMarkdown.
func (o *Outline) Markdown() string {
	var b strings.Builder
	if o.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", o.Title)
	}
	for _, s := range o.Sections {
		fmt.Fprintf(&b, "## %s\n\n", s.Heading)
		if s.Content != "" {
			b.WriteString(s.Content)
			b.WriteString("\n\n")
		}
	}
	return b.String()
}
