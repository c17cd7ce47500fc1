// Package outline holds the in-memory document model for streamed
// generation: an ordered sequence of sections with content, summaries and
// evidence citations, plus the Store that owns all mutation.
package outline

import (
	"encoding/json"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// Outline is the full structured document: title, generation mode and the
// ordered sections. Section order is document reading order and changes only
// through Store.Reorder.
type Outline struct {
	Title    string     `json:"title" yaml:"title" msgpack:"title"`
	Mode     string     `json:"mode,omitempty" yaml:"mode,omitempty" msgpack:"mode"`
	Sections []*Section `json:"sections" yaml:"sections" msgpack:"sections"`
}

// Section is one heading+content unit, the unit of streaming and citation.
// Content is empty until generation reaches the section; while a session
// targets the section it grows by appends only.
type Section struct {
	Heading   string      `json:"heading" yaml:"heading" msgpack:"heading"`
	Summary   string      `json:"summary,omitempty" yaml:"summary,omitempty" msgpack:"summary"`
	Content   string      `json:"content,omitempty" yaml:"content,omitempty" msgpack:"content"`
	Citations CitationSet `json:"citations,omitempty" yaml:"citations,omitempty" msgpack:"citations"`
}

// Clone returns a deep copy of the section.
func (s *Section) Clone() *Section {
	c := *s
	c.Citations = s.Citations.clone()
	return &c
}

// Clone returns a deep copy of the outline.
func (o *Outline) Clone() *Outline {
	c := &Outline{Title: o.Title, Mode: o.Mode, Sections: make([]*Section, len(o.Sections))}
	for i, s := range o.Sections {
		c.Sections[i] = s.Clone()
	}
	return c
}

// CitationSet is a set of evidence snippet ids. Insertion order is
// irrelevant; serialized forms are sorted for stability.
type CitationSet map[int]struct{}

// Add inserts id into the set. Returns false if it was already present.
func (cs *CitationSet) Add(id int) bool {
	if *cs == nil {
		*cs = make(CitationSet)
	}
	if _, ok := (*cs)[id]; ok {
		return false
	}
	(*cs)[id] = struct{}{}
	return true
}

// Has reports whether id is in the set.
func (cs CitationSet) Has(id int) bool {
	_, ok := cs[id]
	return ok
}

// IDs returns the snippet ids in ascending order.
func (cs CitationSet) IDs() []int {
	ids := make([]int, 0, len(cs))
	for id := range cs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (cs CitationSet) clone() CitationSet {
	if cs == nil {
		return nil
	}
	c := make(CitationSet, len(cs))
	for id := range cs {
		c[id] = struct{}{}
	}
	return c
}

// MarshalJSON implements json.Marshaler, emitting a sorted id array.
func (cs CitationSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(cs.IDs())
}

// UnmarshalJSON implements json.Unmarshaler, accepting an id array.
func (cs *CitationSet) UnmarshalJSON(data []byte) error {
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*cs = make(CitationSet, len(ids))
	for _, id := range ids {
		(*cs)[id] = struct{}{}
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (cs CitationSet) MarshalYAML() (any, error) {
	return cs.IDs(), nil
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (cs CitationSet) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(cs.IDs())
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (cs *CitationSet) DecodeMsgpack(dec *msgpack.Decoder) error {
	var ids []int
	if err := dec.Decode(&ids); err != nil {
		return err
	}
	*cs = make(CitationSet, len(ids))
	for _, id := range ids {
		(*cs)[id] = struct{}{}
	}
	return nil
}
