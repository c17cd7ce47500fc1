// Package docapi is the plain request/response client for the two services
// the streaming core collaborates with: document persistence (fetch and
// save outline content) and evidence snippets (resolve the snippet ids the
// stream attaches as citations). Neither is part of the streaming protocol.
package docapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Document is the persisted document record.
type Document struct {
	ID        int64  `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Template  string `json:"template,omitempty" yaml:"template,omitempty"`
	Content   string `json:"content" yaml:"content"`
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Snippet is a resolved evidence snippet. The streaming core stores only
// ids; the body and score exist for display.
type Snippet struct {
	ID     int     `json:"id" yaml:"id"`
	Text   string  `json:"text" yaml:"text"`
	Score  float64 `json:"score,omitempty" yaml:"score,omitempty"`
	Path   string  `json:"path,omitempty" yaml:"path,omitempty"`
	Pinned bool    `json:"pinned,omitempty" yaml:"pinned,omitempty"`
}

// SnippetQuery parameterizes a snippet search.
type SnippetQuery struct {
	DocID        int64
	SectionQuery string
	TopK         int // 0 uses the server default
}

// Config configures a Client.
type Config struct {
	// BaseURL of the backend, e.g. "https://api.example.com".
	BaseURL string

	// APIKey is sent as a bearer token.
	APIKey string

	// HTTPClient overrides the default client.
	HTTPClient *http.Client

	// MaxRetries for retryable failures (network errors, 5xx, 429).
	// Default 2.
	MaxRetries int
}

// Client talks to the document persistence and snippet services.
type Client struct {
	baseURL    string
	apiKey     string
	hc         *http.Client
	maxRetries int
}

// NewClient creates a REST client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("docapi: Config.BaseURL is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = 2
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		hc:         hc,
		maxRetries: retries,
	}, nil
}

// GetDocument fetches the persisted document.
func (c *Client) GetDocument(ctx context.Context, id int64) (*Document, error) {
	var doc Document
	if err := c.request(ctx, http.MethodGet, fmt.Sprintf("/documents/%d", id), nil, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// PutDocument persists edited document content. The in-memory model stays
// authoritative for the session regardless of the outcome.
func (c *Client) PutDocument(ctx context.Context, id int64, content string) error {
	body := map[string]string{"content": content}
	return c.request(ctx, http.MethodPut, fmt.Sprintf("/documents/%d", id), nil, body, nil)
}

// SearchSnippets runs an evidence search scoped to a document section.
func (c *Client) SearchSnippets(ctx context.Context, q SnippetQuery) ([]Snippet, error) {
	qs := url.Values{}
	qs.Set("doc_id", strconv.FormatInt(q.DocID, 10))
	qs.Set("section_query", q.SectionQuery)
	if q.TopK > 0 {
		qs.Set("topk", strconv.Itoa(q.TopK))
	}
	var out []Snippet
	if err := c.request(ctx, http.MethodGet, "/snippets", qs, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSnippet resolves one snippet id.
func (c *Client) GetSnippet(ctx context.Context, id int) (*Snippet, error) {
	var sn Snippet
	if err := c.request(ctx, http.MethodGet, fmt.Sprintf("/snippets/%d", id), nil, nil, &sn); err != nil {
		return nil, err
	}
	return &sn, nil
}

// SnippetsByIDs resolves a batch of snippet ids, e.g. a section's citation
// set, for rendering.
func (c *Client) SnippetsByIDs(ctx context.Context, ids []int) ([]Snippet, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	qs := url.Values{}
	qs.Set("ids", strings.Join(parts, ","))
	var out []Snippet
	if err := c.request(ctx, http.MethodGet, "/snippets/by_ids", qs, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PinSnippet pins a snippet to a document section so regeneration keeps
// citing it.
func (c *Client) PinSnippet(ctx context.Context, docID int64, sectionIndex, snippetID int) error {
	return c.request(ctx, http.MethodPost, "/snippets/pin", pinQuery(docID, sectionIndex, snippetID), nil, nil)
}

// UnpinSnippet removes a pin.
func (c *Client) UnpinSnippet(ctx context.Context, docID int64, sectionIndex, snippetID int) error {
	return c.request(ctx, http.MethodDelete, "/snippets/pin", pinQuery(docID, sectionIndex, snippetID), nil, nil)
}

func pinQuery(docID int64, sectionIndex, snippetID int) url.Values {
	qs := url.Values{}
	qs.Set("doc_id", strconv.FormatInt(docID, 10))
	qs.Set("section_index", strconv.Itoa(sectionIndex))
	qs.Set("snippet_id", strconv.Itoa(snippetID))
	return qs
}
