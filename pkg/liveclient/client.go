package liveclient

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"talentvault_backend/internal/logger"
	"talentvault_backend/internal/models"
	"talentvault_backend/ws"
)

// Reconnection policy: a dropped or failed connection is retried a fixed
// number of times at a fixed interval, then the client stays disconnected.
const (
	DefaultMaxRetries = 5
	DefaultRetryDelay = 1000 * time.Millisecond
)

type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
)

// Config configures a live client.
type Config struct {
	// URL is the websocket endpoint, e.g. "ws://host:4000/api/v1/ws".
	URL string
	// Token is the access token; the server derives identity and role
	// from it. Role here only drives the local display filter.
	Token string
	Role  models.UserRole

	// FeedCap bounds each in-memory feed. Defaults to 100.
	FeedCap int

	MaxRetries int
	RetryDelay time.Duration

	// API reconciles dismissals with the persisted store. Optional.
	API API

	// OnBroadcast / OnIndustry fire after an event is accepted into a
	// feed. Optional.
	OnBroadcast func(Entry)
	OnIndustry  func(Entry)
}

// Client maintains the live connection and merges pushed events into two
// session-local feeds. The feeds never replace the persisted notification
// list fetched over REST; they exist for same-session latency only.
type Client struct {
	cfg Config

	Industry  *Feed
	Broadcast *Feed

	mu    sync.Mutex
	state ConnState
	conn  *websocket.Conn

	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.FeedCap <= 0 {
		cfg.FeedCap = 100
	}
	return &Client{
		cfg:       cfg,
		Industry:  NewFeed(cfg.FeedCap),
		Broadcast: NewFeed(cfg.FeedCap),
		state:     StateDisconnected,
	}
}

// Start connects and begins consuming events. It returns after the first
// connection attempt resolves; reconnection continues in the background
// until the retry budget is spent or Close is called.
func (c *Client) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	err := c.connect(ctx)
	if err != nil {
		// Retry budget already spent by connect; stay disconnected.
		close(c.done)
		cancel()
		return err
	}
	go c.run(ctx)
	return nil
}

// Close tears down the connection and stops reconnection.
func (c *Client) Close() {
	c.mu.Lock()
	cancel := c.cancel
	conn := c.conn
	done := c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	if done != nil {
		<-done
	}
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dismiss removes the entry from whichever feed holds it and, when an API
// is configured, marks the corresponding persisted notification read so the
// two views do not diverge.
func (c *Client) Dismiss(ctx context.Context, id string) error {
	removed := c.Broadcast.Remove(id)
	if !removed {
		removed = c.Industry.Remove(id)
	}
	if !removed || c.cfg.API == nil {
		return nil
	}
	return c.cfg.API.MarkRead(ctx, id)
}

func (c *Client) setState(s ConnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// connect dials once, retrying per the fixed policy. It returns nil once a
// connection is established.
func (c *Client) connect(ctx context.Context) error {
	c.setState(StateConnecting)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL+"?token="+c.cfg.Token, nil)
		if err == nil {
			c.mu.Lock()
			c.conn = conn
			c.state = StateConnected
			c.mu.Unlock()
			c.join(conn)
			return nil
		}
		lastErr = err
		logger.Debug("liveclient connect failed", "attempt", attempt, "error", err)

		if attempt == c.cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			c.setState(StateDisconnected)
			return ctx.Err()
		case <-time.After(c.cfg.RetryDelay):
		}
	}

	c.setState(StateDisconnected)
	return lastErr
}

// join re-registers room membership after (re)connecting; membership is
// derivable from identity and role, so nothing else needs restoring.
func (c *Client) join(conn *websocket.Conn) {
	conn.WriteJSON(ws.IncomingFrame{Action: ws.ActionJoinNotifications})
	if c.cfg.Role.IsAdminTier() {
		conn.WriteJSON(ws.IncomingFrame{Action: ws.ActionJoinAdminNotifications})
	}
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)

	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		if conn != nil {
			c.readLoop(ctx, conn)
		}

		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return
		}

		// Connection dropped: run the retry policy again. A spent retry
		// budget leaves the client disconnected for good.
		if err := c.connect(ctx); err != nil {
			return
		}
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			return
		}

		var frame struct {
			Event   string          `json:"event"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(payload, &frame); err != nil {
			logger.Warn("liveclient bad frame", "error", err)
			continue
		}
		c.handleEvent(frame.Event, frame.Payload)
	}
}

func (c *Client) handleEvent(event string, payload json.RawMessage) {
	switch event {

	case ws.EventIndustryNotification:
		var ev ws.IndustryEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return
		}
		entry := Entry{
			ID:      ev.ID,
			Type:    ev.EventType,
			Title:   ev.Title,
			Message: ev.Message,
			Payload: ev.Data,
		}
		c.Industry.Prepend(entry)
		if c.cfg.OnIndustry != nil {
			c.cfg.OnIndustry(entry)
		}

	case ws.EventBroadcastNotification:
		var ev ws.BroadcastEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return
		}
		// The server filter is authoritative; this check only guards the
		// local display against a stale tag table.
		if !models.RoleMatchesTargets(c.cfg.Role, ev.Targets) {
			return
		}
		entry := Entry{
			ID:      ev.ID,
			Type:    ev.Type,
			Title:   ev.Title,
			Message: ev.Message,
		}
		c.Broadcast.Prepend(entry)
		if c.cfg.OnBroadcast != nil {
			c.cfg.OnBroadcast(entry)
		}
	}
}
