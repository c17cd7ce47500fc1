// Package cite inserts numbered evidence-citation markers into generated
// text at sentence boundaries.
//
// Placement is pure and deterministic: the same text and id sequence always
// produce the same annotated string. The package never touches document
// state; callers use it for rendering only.
package cite

import (
	"fmt"
	"strings"
)

// Marker returns the superscript marker rendered for a snippet id.
func Marker(id int) string {
	return fmt.Sprintf("<sup>[%d]</sup>", id)
}

// Place annotates text with one citation marker per sentence, consuming ids
// in order (first id after the first sentence, and so on). A sentence
// boundary is terminal punctuation ('.', '?' or '!') directly followed by
// whitespace. Ids left over when the boundaries run out, including the case
// of text too short to split at all, are appended at the end of the text in
// order.
func Place(text string, ids []int) string {
	if len(ids) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + len(ids)*len("<sup>[00]</sup>"))
	next := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		b.WriteByte(c)
		if next < len(ids) && isTerminal(c) && i+1 < len(text) && isSpace(text[i+1]) {
			b.WriteString(Marker(ids[next]))
			next++
		}
	}
	for ; next < len(ids); next++ {
		b.WriteString(Marker(ids[next]))
	}
	return b.String()
}

func isTerminal(c byte) bool {
	return c == '.' || c == '?' || c == '!'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
