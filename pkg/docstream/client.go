package docstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Handler receives decoded stream events in arrival order. It is always
// invoked from the client's single reader goroutine, so calls never overlap.
type Handler func(Event)

// Config configures a stream Client.
type Config struct {
	// URL is the stream endpoint, including query parameters. Schemes
	// http/https use SSE; ws/wss use a WebSocket carrying the same JSON
	// events one per message.
	URL string

	// Handler receives every decoded event. Required.
	Handler Handler

	// HTTPClient overrides the default HTTP client for SSE streams.
	HTTPClient *http.Client

	// Header is added to every connection attempt (e.g. Authorization).
	Header http.Header

	// Backoff overrides the reconnect backoff parameters.
	Backoff Backoff

	// Logger for transport-level noise. Defaults to slog.Default().
	// Transport faults are never surfaced as errors; they show up here
	// at debug level and in the reconnect behavior.
	Logger *slog.Logger
}

// Client consumes a one-way server-push event stream. Start opens exactly
// one live connection; on transport-level failure it reconnects with
// exponential backoff, forever, until Stop. A clean stream end (the server
// finished and closed) does not reconnect.
//
// Corrupt or unrecognized messages are dropped silently: one bad message
// must never terminate the stream.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	backoff Backoff
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewClient creates a stream client. Start must be called to connect.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("docstream: Config.URL is required")
	}
	if cfg.Handler == nil {
		return nil, errors.New("docstream: Config.Handler is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("docstream: invalid URL: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, logger: logger, backoff: cfg.Backoff}, nil
}

// Start opens the connection and begins delivering events. It returns
// immediately; events arrive on the configured handler. Calling Start while
// already started is an error; a Stop/Start cycle is fine and resets the
// reconnect backoff.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return errors.New("docstream: already started")
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.backoff.Reset()
	go c.run(ctx, c.done)
	return nil
}

// Stop permanently closes the connection and suppresses any pending
// reconnect. Idempotent; safe to call before Start or repeatedly. Blocks
// until the reader goroutine has exited, so no handler call can arrive
// after Stop returns.
func (c *Client) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// ResetBackoff returns the reconnect delay to its base value. The transport
// has no notion of application-level success, so deciding that a connection
// "worked" is the caller's job.
func (c *Client) ResetBackoff() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.backoff.Reset()
}

func (c *Client) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		if ctx.Err() != nil {
			return
		}
		src, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Debug("docstream: connect failed", "url", c.cfg.URL, "err", err)
			if !c.wait(ctx) {
				return
			}
			continue
		}
		clean := c.consume(src)
		src.Close()
		if clean || ctx.Err() != nil {
			return
		}
		if !c.wait(ctx) {
			return
		}
	}
}

// consume reads messages until the stream ends. Returns true on a clean
// stream end, false on a transport fault that warrants reconnecting. The
// end is clean only when the server said so with a done event before
// closing; a bare EOF is a dropped connection.
func (c *Client) consume(src eventSource) bool {
	sawDone := false
	for {
		data, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) && sawDone {
				return true
			}
			c.logger.Debug("docstream: stream interrupted", "err", err)
			return false
		}
		ev, err := Decode(data)
		if err != nil {
			c.logger.Debug("docstream: dropping message", "err", err)
			continue
		}
		if ev.Kind() == KindDone {
			sawDone = true
		}
		c.cfg.Handler(ev)
	}
}

// wait sleeps for the next backoff delay. Returns false if the client was
// stopped while waiting.
func (c *Client) wait(ctx context.Context) bool {
	c.mu.Lock()
	d := c.backoff.Next()
	c.mu.Unlock()
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Client) dial(ctx context.Context) (eventSource, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "ws", "wss":
		return dialWebSocket(ctx, c.cfg.URL, c.cfg.Header)
	default:
		return c.dialSSE(ctx)
	}
}

// eventSource yields raw message payloads. Next returns io.EOF on a clean
// stream end and any other error on a transport fault.
type eventSource interface {
	Next() ([]byte, error)
	Close() error
}
