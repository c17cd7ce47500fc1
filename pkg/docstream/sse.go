package docstream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// dialSSE opens a Server-Sent Events connection. Messages are `data:` lines
// terminated by a blank line; comment lines (leading ':') and unknown SSE
// fields are skipped.
func (c *Client) dialSSE(ctx context.Context) (eventSource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vv := range c.cfg.Header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	hc := c.cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return &sseSource{reader: bufio.NewReader(resp.Body), body: resp.Body}, nil
}

type sseSource struct {
	reader *bufio.Reader
	body   io.Closer
}

// Next reads the next event payload. Multi-line data fields are joined with
// newlines per the SSE spec, though the generation backend emits one data
// line per event.
func (s *sseSource) Next() ([]byte, error) {
	var data []byte
	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(data) > 0 {
				return data, nil
			}
			return nil, err
		}
		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			// Blank line ends the event.
			if len(data) > 0 {
				return data, nil
			}
			continue
		}
		if line[0] == ':' {
			continue
		}
		if rest, ok := bytes.CutPrefix(line, []byte("data:")); ok {
			rest = bytes.TrimPrefix(rest, []byte(" "))
			if len(data) > 0 {
				data = append(data, '\n')
			}
			data = append(data, rest...)
		}
	}
}

func (s *sseSource) Close() error {
	return s.body.Close()
}
