package docstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// GenerateRequest describes a whole-document generation stream, opened as
// GET {base}/ingest/stream_generate with the fields as query parameters.
type GenerateRequest struct {
	Project     string
	Title       string
	Template    string
	Description string

	// Model selects the generation model; empty uses the server default.
	Model string

	// System optionally overrides the system prompt.
	System string

	// Variables is an opaque template-variable bundle, passed through
	// verbatim. The client never interprets it.
	Variables json.RawMessage
}

// StreamURL builds the stream endpoint URL for the request.
func (r *GenerateRequest) StreamURL(base string) (string, error) {
	if r.Project == "" || r.Title == "" || r.Template == "" {
		return "", errors.New("docstream: GenerateRequest needs project, title and template")
	}
	q := url.Values{}
	q.Set("project", r.Project)
	q.Set("title", r.Title)
	q.Set("template", r.Template)
	if r.Description != "" {
		q.Set("description", r.Description)
	}
	if r.Model != "" {
		q.Set("model", r.Model)
	}
	if r.System != "" {
		q.Set("system", r.System)
	}
	if len(r.Variables) > 0 {
		q.Set("vars", string(r.Variables))
	}
	return joinURL(base, "/ingest/stream_generate", q)
}

// RegenRequest describes a single-section regeneration stream, opened as
// GET {base}/documents/{id}/stream_regen.
type RegenRequest struct {
	DocID int64
	Index int

	Model  string
	System string

	// Hint is extra user context steering the regeneration.
	Hint string
}

// StreamURL builds the stream endpoint URL for the request.
func (r *RegenRequest) StreamURL(base string) (string, error) {
	if r.DocID <= 0 {
		return "", errors.New("docstream: RegenRequest needs a document id")
	}
	if r.Index < 0 {
		return "", fmt.Errorf("docstream: RegenRequest index %d out of range", r.Index)
	}
	q := url.Values{}
	q.Set("index", strconv.Itoa(r.Index))
	if r.Model != "" {
		q.Set("model", r.Model)
	}
	if r.System != "" {
		q.Set("system", r.System)
	}
	if r.Hint != "" {
		q.Set("hint", r.Hint)
	}
	return joinURL(base, fmt.Sprintf("/documents/%d/stream_regen", r.DocID), q)
}

func joinURL(base, path string, q url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("docstream: invalid base URL: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawQuery = q.Encode()
	return u.String(), nil
}
