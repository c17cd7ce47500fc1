package docstream

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind identifies a stream event type.
type Kind int

const (
	KindStart Kind = iota
	KindSectionBegin
	KindToken
	KindCite
	KindSectionEnd
	KindSaved
	KindDone
	KindPing
	KindPaymentRequired
	KindError
)

var kindNames = map[Kind]string{
	KindStart:           "start",
	KindSectionBegin:    "section_begin",
	KindToken:           "token",
	KindCite:            "cite",
	KindSectionEnd:      "section_end",
	KindSaved:           "saved",
	KindDone:            "done",
	KindPing:            "ping",
	KindPaymentRequired: "payment_required",
	KindError:           "error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Terminal reports whether the event kind ends a generation session.
func (k Kind) Terminal() bool {
	switch k {
	case KindSaved, KindPaymentRequired, KindError:
		return true
	}
	return false
}

// Event is one typed message from the generation stream. The concrete types
// below are the only implementations; consumers switch exhaustively.
type Event interface {
	Kind() Kind
}

// Start signals that generation is beginning.
type Start struct{}

// SectionBegin signals the server starting to write section Index.
type SectionBegin struct {
	Index   int
	Heading string
	Hint    string
}

// Token carries an incremental append-only content chunk. Index is -1 when
// the server did not scope the token to a section (whole-document streams).
type Token struct {
	Index int
	Text  string
}

// Cite attaches an evidence snippet reference to a section.
type Cite struct {
	SnippetID int
	Index     int
}

// SectionEnd signals the current section is complete.
type SectionEnd struct {
	Index int
}

// Saved is terminal success. Content, when HasContent is true, is the
// authoritative persisted document body and supersedes any partial
// streamed content.
type Saved struct {
	DocID      int64
	Content    string
	HasContent bool
}

// Done marks the clean end of the stream, after any terminal event.
type Done struct{}

// Ping is a heartbeat keeping the connection alive. TS is the server's
// unix timestamp in seconds.
type Ping struct {
	TS float64
}

// PaymentRequired is terminal: the usage-limit/billing gate was hit.
type PaymentRequired struct{}

// ErrorEvent is terminal failure; Message is surfaced verbatim.
type ErrorEvent struct {
	Message string
}

func (Start) Kind() Kind           { return KindStart }
func (SectionBegin) Kind() Kind    { return KindSectionBegin }
func (Token) Kind() Kind           { return KindToken }
func (Cite) Kind() Kind            { return KindCite }
func (SectionEnd) Kind() Kind      { return KindSectionEnd }
func (Saved) Kind() Kind           { return KindSaved }
func (Done) Kind() Kind            { return KindDone }
func (Ping) Kind() Kind            { return KindPing }
func (PaymentRequired) Kind() Kind { return KindPaymentRequired }
func (ErrorEvent) Kind() Kind      { return KindError }

// ErrUnknownEvent is returned by Decode for a well-formed message whose
// event discriminator is not a recognized kind.
var ErrUnknownEvent = errors.New("docstream: unknown event")

// wireEvent is the superset of all payload fields on the wire.
type wireEvent struct {
	Event     string          `json:"event"`
	Index     *int            `json:"index"`
	Heading   string          `json:"heading"`
	Hint      string          `json:"hint"`
	Text      string          `json:"text"`
	SnippetID int             `json:"snippet_id"`
	DocID     int64           `json:"doc_id"`
	Content   json.RawMessage `json:"content"`
	Message   string          `json:"message"`
	TS        float64         `json:"ts"`
}

func (w *wireEvent) index() int {
	if w.Index == nil {
		return -1
	}
	return *w.Index
}

// Decode parses one wire message into a typed Event. A message without a
// recognized event discriminator decodes to ErrUnknownEvent; the transport
// drops such messages rather than terminating the stream.
func Decode(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("docstream: decode: %w", err)
	}
	switch w.Event {
	case "start":
		return Start{}, nil
	case "section_begin":
		return SectionBegin{Index: w.index(), Heading: w.Heading, Hint: w.Hint}, nil
	case "token":
		return Token{Index: w.index(), Text: w.Text}, nil
	case "cite":
		return Cite{SnippetID: w.SnippetID, Index: w.index()}, nil
	case "section_end":
		return SectionEnd{Index: w.index()}, nil
	case "saved":
		ev := Saved{DocID: w.DocID}
		if len(w.Content) > 0 && string(w.Content) != "null" {
			ev.HasContent = true
			// Content is normally a JSON string; tolerate a raw object.
			if err := json.Unmarshal(w.Content, &ev.Content); err != nil {
				ev.Content = string(w.Content)
			}
		}
		return ev, nil
	case "done":
		return Done{}, nil
	case "ping":
		return Ping{TS: w.TS}, nil
	case "payment_required":
		return PaymentRequired{}, nil
	case "error":
		return ErrorEvent{Message: w.Message}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, w.Event)
	}
}
